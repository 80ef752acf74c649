package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"viewership/internal/config"
	apperrors "viewership/internal/errors"
	"viewership/pkg/contracts/domain"
)

// releaseDateLayouts are the text forms a Release Date cell may take when
// it is not stored as an Excel date serial
var releaseDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
	"1/2/06",
	"01-02-06",
}

// SheetReader normalises the Film, TV and Engagement tabs of an export
type SheetReader struct {
	logger     *slog.Logger
	bannerRows int
}

// NewSheetReader creates a reader that skips bannerRows rows above the header
func NewSheetReader(logger *slog.Logger, bannerRows int) *SheetReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetReader{
		logger:     logger.With(slog.String("component", "sheet_reader")),
		bannerRows: bannerRows,
	}
}

// ParseSheet reads one tab of the export at path with the default layout
func ParseSheet(ctx context.Context, path string, kind domain.SheetKind, window domain.Window) ([]domain.SheetRow, error) {
	return NewSheetReader(nil, config.BannerRows).ParseSheet(ctx, path, kind, window)
}

// ParseSheet opens path and reads one tab. Failures are logged and returned
// as SHEET_READ errors together with an empty result.
func (r *SheetReader) ParseSheet(ctx context.Context, path string, kind domain.SheetKind, window domain.Window) ([]domain.SheetRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, r.fail(ctx, path, kind, err)
	}
	defer f.Close()

	return r.ReadSheet(ctx, f, path, kind, window)
}

// ReadSheet reads one tab of an already opened workbook
func (r *SheetReader) ReadSheet(ctx context.Context, f *excelize.File, path string, kind domain.SheetKind, window domain.Window) ([]domain.SheetRow, error) {
	rows, err := f.GetRows(string(kind), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, r.fail(ctx, path, kind, err)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	out, err := r.normalize(rows, kind, window, date1904)
	if err != nil {
		return nil, r.fail(ctx, path, kind, err)
	}

	r.logger.DebugContext(ctx, "sheet parsed",
		slog.String("file", path),
		slog.String("sheet", string(kind)),
		slog.Int("rows", len(out)))

	return out, nil
}

func (r *SheetReader) fail(ctx context.Context, path string, kind domain.SheetKind, cause error) error {
	err := apperrors.NewSheetReadError(path, string(kind), cause)
	r.logger.ErrorContext(ctx, "error processing sheet",
		slog.String("file", path),
		slog.String("sheet", string(kind)),
		slog.String("error", cause.Error()))
	return err
}

// columns maps header text to its position, after the index column is dropped
type columns map[string]int

func (c columns) index(name string) int {
	if i, ok := c[name]; ok {
		return i
	}
	return -1
}

func (r *SheetReader) normalize(rows [][]string, kind domain.SheetKind, window domain.Window, date1904 bool) ([]domain.SheetRow, error) {
	switch kind {
	case domain.SheetFilm, domain.SheetTV, domain.SheetEngagement:
	default:
		return nil, fmt.Errorf("unsupported sheet %q", kind)
	}

	if len(rows) <= r.bannerRows {
		return nil, fmt.Errorf("no header row after %d banner rows", r.bannerRows)
	}

	cols := make(columns)
	for i, h := range dropIndexColumn(rows[r.bannerRows]) {
		h = strings.TrimSpace(h)
		if _, dup := cols[h]; h != "" && !dup {
			cols[h] = i
		}
	}
	if cols.index(config.ColumnTitle) < 0 {
		return nil, fmt.Errorf("missing %s column", config.ColumnTitle)
	}

	var (
		titleCol   = cols.index(config.ColumnTitle)
		releaseCol = cols.index(config.ColumnReleaseDate)
		runtimeCol = cols.index(config.ColumnRuntime)
		hoursCol   = cols.index(config.ColumnHoursViewed)
		viewsCol   = cols.index(config.ColumnViews)
		globalCol  = cols.index(config.ColumnAvailableGlobally)
	)

	out := make([]domain.SheetRow, 0, len(rows)-r.bannerRows-1)
	for _, raw := range rows[r.bannerRows+1:] {
		cells := dropIndexColumn(raw)
		title := strings.TrimSpace(cellAt(cells, titleCol))
		if title == "" {
			continue
		}

		rec := domain.TitleRecord{
			Title:             title,
			ReleaseDate:       parseReleaseDate(cellAt(cells, releaseCol), date1904),
			Runtime:           normalizeRuntimeCell(cellAt(cells, runtimeCol)),
			HoursViewed:       parseNumber(cellAt(cells, hoursCol)),
			Views:             parseNumber(cellAt(cells, viewsCol)),
			AvailableGlobally: strings.TrimSpace(cellAt(cells, globalCol)),
		}
		norm := domain.NormalizedRow{
			TitleRecord: rec,
			GroupTitle:  GroupTitle(title),
			Ownership:   DetermineOwnership(title, rec.ReleaseDate),
			Window:      window,
		}

		switch kind {
		case domain.SheetFilm:
			out = append(out, domain.FilmRow{
				NormalizedRow:  norm,
				RuntimeMinutes: ResolveRuntime(rec.Runtime, rec.HoursViewed, rec.Views),
			})
		case domain.SheetTV:
			out = append(out, domain.TVRow{
				NormalizedRow:  norm,
				RuntimeMinutes: ResolveRuntime(rec.Runtime, rec.HoursViewed, rec.Views),
			})
		default:
			out = append(out, domain.EngagementRow{NormalizedRow: norm})
		}
	}

	return out, nil
}

// dropIndexColumn removes the leading index column of an export row
func dropIndexColumn(row []string) []string {
	if len(row) == 0 {
		return nil
	}
	return row[1:]
}

func cellAt(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

func parseNumber(s string) domain.NullFloat64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return domain.Missing()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.Missing()
	}
	return domain.Float(v)
}

// parseReleaseDate accepts Excel date serials and common text layouts
func parseReleaseDate(s string, date1904 bool) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return nil
		}
		d := truncateDate(t)
		return &d
	}

	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := truncateDate(t)
			return &d
		}
	}
	return nil
}

// normalizeRuntimeCell turns a Runtime cell stored as an Excel time (a
// fraction of a day in [0, 1)) into "H:MM". Anything else passes through
// trimmed, so plain numbers like "90" later resolve to missing.
func normalizeRuntimeCell(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == RuntimeSentinel {
		return s
	}
	days, err := strconv.ParseFloat(s, 64)
	if err != nil || days < 0 || days >= 1 {
		return s
	}
	minutes := int(math.Round(days * 24 * 60))
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

// truncateDate strips the time of day, keeping the calendar date in UTC
func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
