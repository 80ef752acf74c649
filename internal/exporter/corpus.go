package exporter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"viewership/internal/config"
	"viewership/pkg/contracts/domain"
)

// Default file names written by ExportCorpus
const (
	FilmMasterFile = "film_master.csv"
	TVMasterFile   = "tv_master.csv"
	WorkbookFile   = "viewership.xlsx"
	FiscalHalfFile = "fiscal_halves_%s.csv"
	TopTitlesFile  = "top_%s.csv"
)

// MasterHeaders are the columns of an exported master table
var MasterHeaders = []string{
	config.ColumnTitle,
	"Group Title",
	"Media",
	config.ColumnReleaseDate,
	config.ColumnRuntime,
	"Runtime in Minutes",
	config.ColumnHoursViewed,
	config.ColumnViews,
	config.ColumnAvailableGlobally,
	"Ownership",
	"Start Date",
	"End Date",
	"Backfilled",
}

// CorpusExporter writes master tables and aggregates as CSV files
type CorpusExporter struct {
	csvWriter *CSVWriter
	logger    *slog.Logger
}

// NewCorpusExporter creates an exporter writing relative paths to the
// reports directory
func NewCorpusExporter(paths *config.Paths, logger *slog.Logger) *CorpusExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CorpusExporter{
		csvWriter: NewCSVWriter(paths, logger),
		logger:    logger.With(slog.String("component", "corpus_exporter")),
	}
}

// ExportCorpus writes both master tables into dir and returns the paths
func (e *CorpusExporter) ExportCorpus(corpus *domain.Corpus, dir string) ([]string, error) {
	var written []string
	for _, table := range []struct {
		name string
		rows []domain.MasterRow
	}{
		{FilmMasterFile, corpus.Film},
		{TVMasterFile, corpus.TV},
	} {
		path, err := e.ExportMasterTable(table.rows, filepath.Join(dir, table.name))
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}

	e.logger.Info("corpus exported",
		slog.String("dir", dir),
		slog.Int("film_rows", len(corpus.Film)),
		slog.Int("tv_rows", len(corpus.TV)))
	return written, nil
}

// ExportMasterTable streams rows to filePath
func (e *CorpusExporter) ExportMasterTable(rows []domain.MasterRow, filePath string) (string, error) {
	stream, err := e.csvWriter.CreateStreamWriter(filePath, MasterHeaders)
	if err != nil {
		return "", err
	}

	for i, r := range rows {
		if err := stream.WriteRecord(masterRecord(r)); err != nil {
			stream.Close()
			return "", fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if err := stream.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", filePath, err)
	}
	return stream.Path(), nil
}

func masterRecord(r domain.MasterRow) []string {
	return []string{
		r.Title,
		r.GroupTitle,
		string(r.Media),
		formatDate(r.ReleaseDate),
		r.Runtime,
		formatNullable(r.RuntimeMinutes),
		formatNullable(r.HoursViewed),
		formatNullable(r.Views),
		r.AvailableGlobally,
		string(r.Ownership),
		formatDate(&r.Window.Start),
		formatDate(&r.Window.End),
		formatBool(r.Backfilled),
	}
}

// TopHeaders returns the columns of a top-N export for media
func TopHeaders(media domain.MediaType) []string {
	group, count := domain.TopLabels(media)
	return []string{"Rank", group, count, "Views", config.ColumnHoursViewed, "Avg Runtime (min)"}
}

// ExportTop writes a ranked top-N table
func (e *CorpusExporter) ExportTop(media domain.MediaType, ranked []domain.RankedGroup, filePath string) error {
	records := make([][]string, 0, len(ranked))
	for _, g := range ranked {
		records = append(records, []string{
			formatInt(g.Rank),
			g.GroupTitle,
			formatInt(g.TitleCount),
			formatNumber(g.Views),
			formatNumber(g.HoursViewed),
			formatNullable(g.AvgRuntime),
		})
	}
	return e.csvWriter.WriteSimpleCSV(filePath, TopHeaders(media), records)
}

// ExportFiscalHalves writes a fiscal-half summary for dim
func (e *CorpusExporter) ExportFiscalHalves(dim domain.Dimension, buckets []domain.FiscalHalfBucket, filePath string) error {
	records := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		start := b.StartDate
		records = append(records, []string{
			b.Value,
			b.FiscalHalf,
			formatDate(&start),
			formatNumber(b.Views),
			formatFloat(b.ViewsBillions),
			b.Label,
		})
	}
	headers := []string{string(dim), "Fiscal Half", "Start Date", "Views", "Views (B)", "Label"}
	return e.csvWriter.WriteSimpleCSV(filePath, headers, records)
}

// TopFileName returns the default file name of a top-N export
func TopFileName(media domain.MediaType) string {
	return fmt.Sprintf(TopTitlesFile, strings.ToLower(string(media)))
}

// FiscalHalfFileName returns the default file name of a fiscal-half export
func FiscalHalfFileName(dim domain.Dimension) string {
	return fmt.Sprintf(FiscalHalfFile, strings.ToLower(string(dim)))
}
