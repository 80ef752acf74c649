package dataprocessing

import (
	"strings"

	"viewership/pkg/contracts/domain"
)

// ToMaster converts a Film or TV sheet row into a master table row.
// Engagement rows have no media yet and report false.
func ToMaster(row domain.SheetRow) (domain.MasterRow, bool) {
	switch r := row.(type) {
	case domain.FilmRow:
		return domain.MasterRow{NormalizedRow: r.NormalizedRow, Media: domain.MediaFilm, RuntimeMinutes: r.RuntimeMinutes}, true
	case domain.TVRow:
		return domain.MasterRow{NormalizedRow: r.NormalizedRow, Media: domain.MediaTV, RuntimeMinutes: r.RuntimeMinutes}, true
	}
	return domain.MasterRow{}, false
}

// Reconcile backfills media and runtime for Engagement rows from helper,
// the Film rows followed by the TV rows of every other period.
//
// The first helper row of each title wins. Titles absent from helper are
// TV when they mention "Season" and Film otherwise. A runtime that is still
// missing takes the mean runtime of the deduplicated helper rows of the
// same media; when that media has no runtimes it stays missing.
func Reconcile(engagement []domain.EngagementRow, helper []domain.MasterRow) []domain.MasterRow {
	lookup := make(map[string]domain.MasterRow, len(helper))
	sums := make(map[domain.MediaType]float64)
	counts := make(map[domain.MediaType]int)

	for _, h := range helper {
		if _, seen := lookup[h.Title]; seen {
			continue
		}
		lookup[h.Title] = h
		if h.RuntimeMinutes.Valid {
			sums[h.Media] += h.RuntimeMinutes.Float64
			counts[h.Media]++
		}
	}

	out := make([]domain.MasterRow, 0, len(engagement))
	for _, e := range engagement {
		row := domain.MasterRow{NormalizedRow: e.NormalizedRow, Backfilled: true}

		if h, ok := lookup[e.Title]; ok {
			row.Media = h.Media
			row.RuntimeMinutes = h.RuntimeMinutes
		}
		if row.Media == "" {
			row.Media = InferMedia(e.Title)
		}
		if !row.RuntimeMinutes.Valid && counts[row.Media] > 0 {
			row.RuntimeMinutes = domain.Float(sums[row.Media] / float64(counts[row.Media]))
		}

		out = append(out, row)
	}
	return out
}

// InferMedia guesses the media of a title no other period lists
func InferMedia(title string) domain.MediaType {
	if strings.Contains(title, "Season") {
		return domain.MediaTV
	}
	return domain.MediaFilm
}
