package dataprocessing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viewership/internal/config"
	"viewership/internal/files"
	"viewership/pkg/contracts/domain"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline(config.PipelineConfig{BannerRows: config.BannerRows}, nil, nil)
	require.NoError(t, err)
	return p
}

func writeCorpusFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeExport(t, dir, "What_We_Watched_2023Jan-Jun.xlsx", map[string][][]interface{}{
		"Engagement": {
			engagementHeader,
			{"Glass Onion", "Yes", "2022-12-23", 1000},
			{"New Show: Season 1", "No", nil, 500},
			{"Fresh Film", "Yes", nil, 10},
		},
		// the legacy export is read from its Engagement tab only
		"Film": {
			filmHeader,
			{"Ignored", "Yes", nil, 1, "1:00", 1},
		},
	})
	writeExport(t, dir, "What_We_Watched_2023Jul-Dec.xlsx", map[string][][]interface{}{
		"Film": {
			filmHeader,
			{"Glass Onion", "Yes", "2022-12-23", 2800, "2:20", 1200},
			{"Other Film", "No", nil, 500, "1:40", 300},
		},
		"TV": {
			filmHeader,
			{"Wednesday: Season 1", "Yes", "2022-11-23", 4000, "6:40", 600},
		},
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.xlsx"), []byte("not a workbook"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "~$What_We_Watched_2023Jul-Dec.xlsx"), []byte("lock"), 0o644))

	return dir
}

func titles(rows []domain.MasterRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Title)
	}
	return out
}

func TestPipeline_RunDir(t *testing.T) {
	dir := writeCorpusFixture(t)

	corpus, err := newTestPipeline(t).RunDir(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"Glass Onion", "Other Film", "Glass Onion", "Fresh Film"}, titles(corpus.Film))
	assert.Equal(t, []string{"Wednesday: Season 1", "New Show: Season 1"}, titles(corpus.TV))

	backfilledOnion := corpus.Film[2]
	assert.True(t, backfilledOnion.Backfilled)
	assert.Equal(t, domain.Float(140), backfilledOnion.RuntimeMinutes)
	assert.Equal(t, "H1 2023", backfilledOnion.Window.FiscalHalf())

	assert.Equal(t, domain.Float(120), corpus.Film[3].RuntimeMinutes)
	assert.Equal(t, domain.Float(400), corpus.TV[1].RuntimeMinutes)
	assert.Equal(t, domain.OwnershipLicensed, corpus.TV[1].Ownership)

	require.Len(t, corpus.Files, 2)
	assert.Equal(t, "What_We_Watched_2023Jan-Jun.xlsx", corpus.Files[0].Name)
	assert.True(t, corpus.Files[0].Legacy)
	assert.False(t, corpus.Files[1].Legacy)

	require.Len(t, corpus.Skipped, 1)
	assert.Equal(t, "notes.xlsx", corpus.Skipped[0].Name)
	assert.Contains(t, corpus.Skipped[0].Reason, "incorrect filename format")

	assert.NotEmpty(t, corpus.Fingerprint)
	assert.False(t, corpus.BuiltAt.IsZero())
}

func TestPipeline_MissingSheetIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeExport(t, dir, "What_We_Watched_2024Jan-Jun.xlsx", map[string][][]interface{}{
		"Film": {
			filmHeader,
			{"Lift", "Yes", "2024-01-12", 1000, "1:44", 576},
		},
	})

	corpus, err := newTestPipeline(t).RunDir(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"Lift"}, titles(corpus.Film))
	assert.Empty(t, corpus.TV)
	require.Len(t, corpus.Skipped, 1)
	assert.Contains(t, corpus.Skipped[0].Reason, "error processing TV sheet")
}

func TestPipeline_EmptyDirectory(t *testing.T) {
	corpus, err := newTestPipeline(t).RunDir(context.Background(), filepath.Join(t.TempDir(), "exports"))
	require.NoError(t, err)
	assert.Empty(t, corpus.Film)
	assert.Empty(t, corpus.TV)
	assert.Empty(t, corpus.Files)
}

func TestPipeline_Cancelled(t *testing.T) {
	dir := writeCorpusFixture(t)
	sources, err := files.NewDiscovery(dir).FindExportFiles()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = newTestPipeline(t).Run(ctx, sources)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_LegacyPeriodOverride(t *testing.T) {
	dir := writeCorpusFixture(t)
	p, err := NewPipeline(config.PipelineConfig{BannerRows: config.BannerRows, LegacyPeriod: "2019Jan-Jun"}, nil, nil)
	require.NoError(t, err)

	corpus, err := p.RunDir(context.Background(), dir)
	require.NoError(t, err)

	// without a legacy export the Jan-Jun file is read like any other, and
	// its missing TV tab is reported
	assert.Contains(t, titles(corpus.Film), "Ignored")
	assert.NotContains(t, titles(corpus.Film), "Fresh Film")
	assert.Len(t, corpus.Skipped, 2)
}

func TestNewPipeline_BadPattern(t *testing.T) {
	_, err := NewPipeline(config.PipelineConfig{PeriodPattern: `(\d{4})`}, nil, nil)
	assert.Error(t, err)
}
