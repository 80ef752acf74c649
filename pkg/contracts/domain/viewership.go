package domain

import (
	"fmt"
	"strings"
	"time"
)

// MediaType identifies which master table a row belongs to
type MediaType string

const (
	MediaFilm MediaType = "Film"
	MediaTV   MediaType = "TV"
)

// Ownership classifies a title as produced in-house or acquired
type Ownership string

const (
	OwnershipOriginal Ownership = "Original"
	OwnershipLicensed Ownership = "Licensed"
)

// SheetKind names the workbook tabs the pipeline knows how to read
type SheetKind string

const (
	SheetFilm       SheetKind = "Film"
	SheetTV         SheetKind = "TV"
	SheetEngagement SheetKind = "Engagement"
)

// Window is the six-month reporting period an export covers
type Window struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// FiscalHalf labels the window by its start date: "H1 2023" or "H2 2023".
func (w Window) FiscalHalf() string {
	return FiscalHalf(w.Start)
}

// FiscalHalf returns the H1/H2 label for the half-year containing t
func FiscalHalf(t time.Time) string {
	if t.Month() >= time.January && t.Month() <= time.June {
		return fmt.Sprintf("H1 %d", t.Year())
	}
	return fmt.Sprintf("H2 %d", t.Year())
}

// TitleRecord is one raw row of an export sheet.
// Runtime keeps the sheet text ("1:30", "*" or blank); it is resolved later.
type TitleRecord struct {
	Title             string      `json:"title"`
	ReleaseDate       *time.Time  `json:"release_date"`
	Runtime           string      `json:"runtime,omitempty"`
	HoursViewed       NullFloat64 `json:"hours_viewed"`
	Views             NullFloat64 `json:"views"`
	AvailableGlobally string      `json:"available_globally"`
}

// NormalizedRow is a TitleRecord tagged with its window and derived columns
type NormalizedRow struct {
	TitleRecord
	GroupTitle string    `json:"group_title"`
	Ownership  Ownership `json:"ownership"`
	Window     Window    `json:"window"`
}

// SheetRow is the closed set of row shapes a sheet can produce: FilmRow, TVRow
// and EngagementRow. The legacy Engagement tab has no media or runtime columns.
type SheetRow interface {
	Normalized() NormalizedRow
	Kind() SheetKind
	sheetRow()
}

// FilmRow is a row read from a Film tab
type FilmRow struct {
	NormalizedRow
	RuntimeMinutes NullFloat64 `json:"runtime_minutes"`
}

func (r FilmRow) Normalized() NormalizedRow { return r.NormalizedRow }
func (r FilmRow) Kind() SheetKind           { return SheetFilm }
func (FilmRow) sheetRow()                   {}

// TVRow is a row read from a TV tab
type TVRow struct {
	NormalizedRow
	RuntimeMinutes NullFloat64 `json:"runtime_minutes"`
}

func (r TVRow) Normalized() NormalizedRow { return r.NormalizedRow }
func (r TVRow) Kind() SheetKind           { return SheetTV }
func (TVRow) sheetRow()                   {}

// EngagementRow is a row read from the legacy Engagement tab
type EngagementRow struct {
	NormalizedRow
}

func (r EngagementRow) Normalized() NormalizedRow { return r.NormalizedRow }
func (r EngagementRow) Kind() SheetKind           { return SheetEngagement }
func (EngagementRow) sheetRow()                   {}

// MasterRow is a row of the Film or TV master table. Media always matches the
// table holding the row.
type MasterRow struct {
	NormalizedRow
	Media          MediaType   `json:"media"`
	RuntimeMinutes NullFloat64 `json:"runtime_minutes"`
	Backfilled     bool        `json:"backfilled"`
}

// SourceFile describes one export file that fed a corpus build
type SourceFile struct {
	Name    string    `json:"name"`
	Path    string    `json:"-"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Window  Window    `json:"window"`
	Legacy  bool      `json:"legacy"`
}

// SkippedFile records an export that could not contribute to the corpus
type SkippedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Corpus holds the two master tables produced by one pipeline run
type Corpus struct {
	Film        []MasterRow   `json:"film"`
	TV          []MasterRow   `json:"tv"`
	Files       []SourceFile  `json:"files"`
	Skipped     []SkippedFile `json:"skipped,omitempty"`
	Fingerprint string        `json:"fingerprint"`
	BuiltAt     time.Time     `json:"built_at"`
}

// Table returns the master table for the given media type
func (c *Corpus) Table(media MediaType) []MasterRow {
	if media == MediaTV {
		return c.TV
	}
	return c.Film
}

// ParseMediaType accepts "film"/"films" and "tv"/"shows" in any case
func ParseMediaType(s string) (MediaType, error) {
	for _, alias := range []string{"film", "films"} {
		if strings.EqualFold(s, alias) {
			return MediaFilm, nil
		}
	}
	for _, alias := range []string{"tv", "shows"} {
		if strings.EqualFold(s, alias) {
			return MediaTV, nil
		}
	}
	return "", fmt.Errorf("unknown media type %q", s)
}
