package dataprocessing

import (
	"math"
	"strconv"
	"strings"

	"viewership/pkg/contracts/domain"
)

// RuntimeSentinel in the Runtime column means "derive from views"
const RuntimeSentinel = "*"

// ResolveRuntime converts a Runtime cell to minutes. "H:MM" parses
// directly; the sentinel derives hours/views*60. Blank, malformed and
// negative values, and a zero or missing views count, resolve to missing.
func ResolveRuntime(runtime string, hours, views domain.NullFloat64) domain.NullFloat64 {
	runtime = strings.TrimSpace(runtime)

	if runtime == RuntimeSentinel {
		if !hours.Valid || !views.Valid || views.Float64 == 0 {
			return domain.Missing()
		}
		return nonNegative(roundHalfEven(hours.Float64 / views.Float64 * 60))
	}

	return parseHoursMinutes(runtime)
}

func parseHoursMinutes(runtime string) domain.NullFloat64 {
	if runtime == "" {
		return domain.Missing()
	}
	parts := strings.Split(runtime, ":")
	if len(parts) != 2 {
		return domain.Missing()
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return domain.Missing()
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return domain.Missing()
	}
	return nonNegative(float64(h*60 + m))
}

func nonNegative(v float64) domain.NullFloat64 {
	if v < 0 {
		return domain.Missing()
	}
	return domain.Float(v)
}

// roundHalfEven rounds to the nearest integer, ties to even
func roundHalfEven(v float64) float64 {
	return math.RoundToEven(v)
}

// roundTo rounds v to the given number of decimal places, ties to even.
// Negative places round to tens, hundreds and so on.
func roundTo(v float64, places int) float64 {
	if places < 0 {
		scale := math.Pow(10, float64(-places))
		return math.RoundToEven(v/scale) * scale
	}
	scale := math.Pow(10, float64(places))
	return math.RoundToEven(v*scale) / scale
}
