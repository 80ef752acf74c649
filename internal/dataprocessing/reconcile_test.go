package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewership/pkg/contracts/domain"
)

func engagement(title string, hours float64) domain.EngagementRow {
	return domain.EngagementRow{NormalizedRow: domain.NormalizedRow{
		TitleRecord: domain.TitleRecord{Title: title, HoursViewed: domain.Float(hours)},
		GroupTitle:  GroupTitle(title),
		Window:      h12023(),
	}}
}

func TestReconcile(t *testing.T) {
	helper := []domain.MasterRow{
		master("Glass Onion", domain.MediaFilm, domain.Float(140), 10, h22023()),
		master("Other Film", domain.MediaFilm, domain.Float(100), 10, h22023()),
		master("Mystery", domain.MediaFilm, domain.Missing(), 10, h22023()),
		master("Wednesday: Season 1", domain.MediaTV, domain.Float(400), 10, h22023()),
		master("Wednesday: Season 1", domain.MediaTV, domain.Float(999), 10, h22023()),
	}
	rows := []domain.EngagementRow{
		engagement("Glass Onion", 1000),
		engagement("Wednesday: Season 1", 800),
		engagement("New Show: Season 1", 500),
		engagement("Fresh Film", 10),
		engagement("Mystery", 20),
	}

	got := Reconcile(rows, helper)
	require.Len(t, got, 5)

	tests := []struct {
		title   string
		media   domain.MediaType
		runtime float64
	}{
		{"Glass Onion", domain.MediaFilm, 140},
		{"Wednesday: Season 1", domain.MediaTV, 400},
		{"New Show: Season 1", domain.MediaTV, 400},
		{"Fresh Film", domain.MediaFilm, 120},
		{"Mystery", domain.MediaFilm, 120},
	}
	for i, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.title, got[i].Title)
			assert.Equal(t, tt.media, got[i].Media)
			assert.Equal(t, domain.Float(tt.runtime), got[i].RuntimeMinutes)
			assert.True(t, got[i].Backfilled)
			assert.Equal(t, h12023(), got[i].Window)
		})
	}
	assert.Equal(t, 1000.0, got[0].HoursViewed.Float64)
}

func TestReconcile_NoHelper(t *testing.T) {
	got := Reconcile([]domain.EngagementRow{
		engagement("Squid Game: Season 1", 10),
		engagement("Red Notice", 10),
	}, nil)

	require.Len(t, got, 2)
	assert.Equal(t, domain.MediaTV, got[0].Media)
	assert.Equal(t, domain.MediaFilm, got[1].Media)
	assert.False(t, got[0].RuntimeMinutes.Valid)
	assert.False(t, got[1].RuntimeMinutes.Valid)
}

func TestReconcile_Empty(t *testing.T) {
	assert.Empty(t, Reconcile(nil, []domain.MasterRow{
		master("Glass Onion", domain.MediaFilm, domain.Float(140), 10, h22023()),
	}))
}

func TestToMaster(t *testing.T) {
	tv := domain.TVRow{RuntimeMinutes: domain.Float(60)}
	m, ok := ToMaster(tv)
	require.True(t, ok)
	assert.Equal(t, domain.MediaTV, m.Media)
	assert.Equal(t, domain.Float(60), m.RuntimeMinutes)

	_, ok = ToMaster(engagement("x", 1))
	assert.False(t, ok)
}

func TestInferMedia(t *testing.T) {
	assert.Equal(t, domain.MediaTV, InferMedia("Bridgerton: Season 2"))
	assert.Equal(t, domain.MediaFilm, InferMedia("Bridgerton season two"))
}
