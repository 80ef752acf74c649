package dataprocessing

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"viewership/internal/config"
	apperrors "viewership/internal/errors"
	"viewership/pkg/contracts/domain"
)

// PeriodParser extracts the reporting window from export filenames. The
// pattern must capture the year and the half token (Jan-Jun or Jul-Dec).
type PeriodParser struct {
	re *regexp.Regexp
}

var defaultPeriodParser = MustPeriodParser(config.PeriodPattern)

// NewPeriodParser compiles pattern into a parser
func NewPeriodParser(pattern string) (*PeriodParser, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid period pattern: %w", err)
	}
	if re.NumSubexp() < 2 {
		return nil, fmt.Errorf("period pattern %q must capture year and half", pattern)
	}
	return &PeriodParser{re: re}, nil
}

// MustPeriodParser is like NewPeriodParser but panics on a bad pattern
func MustPeriodParser(pattern string) *PeriodParser {
	p, err := NewPeriodParser(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// ExtractPeriod parses filename with the default ingestion pattern
func ExtractPeriod(filename string) (domain.Window, error) {
	return defaultPeriodParser.Extract(filename)
}

// Extract returns the window named by filename, or a FORMAT error when the
// name carries no period
func (p *PeriodParser) Extract(filename string) (domain.Window, error) {
	m := p.re.FindStringSubmatch(filename)
	if m == nil {
		return domain.Window{}, apperrors.NewFormatError(filename)
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return domain.Window{}, apperrors.NewFormatError(filename)
	}

	if m[2] == "Jan-Jun" {
		return domain.Window{
			Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(year, time.June, 30, 0, 0, 0, 0, time.UTC),
		}, nil
	}
	return domain.Window{
		Start: time.Date(year, time.July, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}, nil
}

// Token returns the period token of filename, e.g. "2023Jan-Jun"
func (p *PeriodParser) Token(filename string) (string, bool) {
	m := p.re.FindStringSubmatch(filename)
	if m == nil {
		return "", false
	}
	return m[1] + m[2], true
}
