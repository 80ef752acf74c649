package domain

import (
	"fmt"
	"time"
)

// Metric selects the value top-N tables rank by
type Metric string

const (
	MetricViews       Metric = "Views"
	MetricHoursViewed Metric = "Hours Viewed"
)

// Dimension selects how fiscal-half totals are split
type Dimension string

const (
	DimensionMedia        Dimension = "Media"
	DimensionAvailability Dimension = "Availability"
	DimensionOwnership    Dimension = "Ownership"
)

// Availability values derived from the "Available Globally?" column
const (
	AvailabilityGlobal   = "Global"
	AvailabilityDomestic = "Domestic"
)

// ParseMetric accepts the display names plus a few URL-friendly spellings
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "", "Views", "views":
		return MetricViews, nil
	case "Hours Viewed", "hours", "hours_viewed", "hours-viewed":
		return MetricHoursViewed, nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}

// ParseDimension accepts display names in any case
func ParseDimension(s string) (Dimension, error) {
	switch s {
	case "", "Media", "media":
		return DimensionMedia, nil
	case "Availability", "availability":
		return DimensionAvailability, nil
	case "Ownership", "ownership":
		return DimensionOwnership, nil
	}
	return "", fmt.Errorf("unknown dimension %q", s)
}

// TitleTotal is one title collapsed across overlapping reporting windows
type TitleTotal struct {
	GroupTitle     string      `json:"group_title"`
	Title          string      `json:"title"`
	ReleaseDate    *time.Time  `json:"release_date"`
	RuntimeMinutes NullFloat64 `json:"runtime_minutes"`
	HoursViewed    float64     `json:"hours_viewed"`
	Views          NullFloat64 `json:"views"`
	StartDate      time.Time   `json:"start_date"`
	EndDate        time.Time   `json:"end_date"`
}

// GroupSummary holds franchise-level totals
type GroupSummary struct {
	GroupTitle  string      `json:"group_title"`
	TitleCount  int         `json:"title_count"`
	Views       float64     `json:"views"`
	HoursViewed float64     `json:"hours_viewed"`
	AvgRuntime  NullFloat64 `json:"avg_runtime_minutes"`
}

// TopQuery parameterises a top-N table. Zero MinCount/MaxCount disable the
// count filter on that side.
type TopQuery struct {
	N        int    `json:"n" validate:"min=1,max=1000"`
	Metric   Metric `json:"metric" validate:"oneof=Views 'Hours Viewed'"`
	MinCount int    `json:"min_count" validate:"min=0"`
	MaxCount int    `json:"max_count" validate:"min=0"`
}

// RankedGroup is one row of a top-N table
type RankedGroup struct {
	Rank        int         `json:"rank"`
	GroupTitle  string      `json:"group_title"`
	TitleCount  int         `json:"title_count"`
	Views       float64     `json:"views"`
	HoursViewed float64     `json:"hours_viewed"`
	AvgRuntime  NullFloat64 `json:"avg_runtime_minutes"`
}

// TopLabels returns the display headers for a top-N table of the given media:
// the group column and the title-count column.
func TopLabels(media MediaType) (groupLabel, countLabel string) {
	if media == MediaTV {
		return "Series Title", "# of Seasons"
	}
	return "Title", "# of Films"
}

// FiscalHalfBucket is one bar of the views-by-fiscal-half chart
type FiscalHalfBucket struct {
	Value         string    `json:"value"`
	FiscalHalf    string    `json:"fiscal_half"`
	StartDate     time.Time `json:"start_date"`
	Views         float64   `json:"views"`
	ViewsBillions float64   `json:"views_billions"`
	Label         string    `json:"label"`
}
