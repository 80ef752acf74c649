package exporter

import (
	"strconv"
	"time"

	"viewership/pkg/contracts/domain"
)

const dateLayout = "2006-01-02"

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatNumber writes f without trailing zeros: 1200000 stays "1200000"
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatNullable formats a missing value as an empty cell
func formatNullable(n domain.NullFloat64) string {
	if !n.Valid {
		return ""
	}
	return formatNumber(n.Float64)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	return strconv.FormatBool(b)
}

// formatDate formats a calendar date; nil is an empty cell
func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
