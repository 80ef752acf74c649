package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFiscalHalf(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), "H1 2023"},
		{time.Date(2023, time.June, 30, 0, 0, 0, 0, time.UTC), "H1 2023"},
		{time.Date(2023, time.July, 1, 0, 0, 0, 0, time.UTC), "H2 2023"},
		{time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC), "H2 2024"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FiscalHalf(tt.date))
		})
	}
}

func TestParseMediaType(t *testing.T) {
	for _, s := range []string{"Film", "film", "FILM", "Films", "fIlM"} {
		m, err := ParseMediaType(s)
		assert.NoError(t, err)
		assert.Equal(t, MediaFilm, m)
	}
	for _, s := range []string{"TV", "tv", "tV", "Shows"} {
		m, err := ParseMediaType(s)
		assert.NoError(t, err)
		assert.Equal(t, MediaTV, m)
	}
	for _, s := range []string{"radio", "", "t v", "filmss"} {
		_, err := ParseMediaType(s)
		assert.Error(t, err, s)
	}
}

func TestParseMetricAndDimension(t *testing.T) {
	m, err := ParseMetric("")
	assert.NoError(t, err)
	assert.Equal(t, MetricViews, m)

	m, err = ParseMetric("hours_viewed")
	assert.NoError(t, err)
	assert.Equal(t, MetricHoursViewed, m)

	_, err = ParseMetric("likes")
	assert.Error(t, err)

	d, err := ParseDimension("ownership")
	assert.NoError(t, err)
	assert.Equal(t, DimensionOwnership, d)

	_, err = ParseDimension("genre")
	assert.Error(t, err)
}

func TestTopLabels(t *testing.T) {
	group, count := TopLabels(MediaTV)
	assert.Equal(t, "Series Title", group)
	assert.Equal(t, "# of Seasons", count)

	group, count = TopLabels(MediaFilm)
	assert.Equal(t, "Title", group)
	assert.Equal(t, "# of Films", count)
}

func TestCorpusTable(t *testing.T) {
	c := &Corpus{
		Film: []MasterRow{{Media: MediaFilm}},
		TV:   []MasterRow{{Media: MediaTV}, {Media: MediaTV}},
	}
	assert.Len(t, c.Table(MediaFilm), 1)
	assert.Len(t, c.Table(MediaTV), 2)
}
