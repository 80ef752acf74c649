package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"viewership/pkg/contracts/domain"
)

// WorkbookExporter writes the master tables to one XLSX file with a Film
// and a TV sheet
type WorkbookExporter struct {
	logger *slog.Logger
}

// NewWorkbookExporter creates a new workbook exporter
func NewWorkbookExporter(logger *slog.Logger) *WorkbookExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookExporter{logger: logger.With(slog.String("component", "workbook_exporter"))}
}

// Export saves corpus to path. Numbers are written as numbers and dates
// as dates; missing values are left blank.
func (e *WorkbookExporter) Export(corpus *domain.Corpus, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	sheets := []struct {
		name string
		rows []domain.MasterRow
	}{
		{string(domain.MediaFilm), corpus.Film},
		{string(domain.MediaTV), corpus.TV},
	}
	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return err
		}
		if err := e.writeSheet(f, sheet.name, sheet.rows, headerStyle, dateStyle); err != nil {
			return fmt.Errorf("failed to write %s sheet: %w", sheet.name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	e.logger.Info("workbook exported",
		slog.String("path", path),
		slog.Int("film_rows", len(corpus.Film)),
		slog.Int("tv_rows", len(corpus.TV)))
	return nil
}

func (e *WorkbookExporter) writeSheet(f *excelize.File, sheet string, rows []domain.MasterRow, headerStyle, dateStyle int) error {
	header := make([]interface{}, len(MasterHeaders))
	for i, h := range MasterHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(MasterHeaders))
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return err
	}

	for i, r := range rows {
		row := []interface{}{
			r.Title,
			r.GroupTitle,
			string(r.Media),
			dateCell(r.ReleaseDate),
			r.Runtime,
			numberCell(r.RuntimeMinutes),
			numberCell(r.HoursViewed),
			numberCell(r.Views),
			r.AvailableGlobally,
			string(r.Ownership),
			r.Window.Start,
			r.Window.End,
			r.Backfilled,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if len(rows) > 0 {
		for _, col := range []string{"D", "K", "L"} {
			if err := f.SetCellStyle(sheet, col+"2", fmt.Sprintf("%s%d", col, len(rows)+1), dateStyle); err != nil {
				return err
			}
		}
	}
	return nil
}

func numberCell(n domain.NullFloat64) interface{} {
	if !n.Valid {
		return nil
	}
	return n.Float64
}

func dateCell(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
