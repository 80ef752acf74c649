package dataprocessing

import (
	"viewership/pkg/contracts/domain"
)

// Assemble builds the two master tables: Film and TV rows in the order
// given, followed by the reconciled rows of the matching media. Dates are
// reduced to calendar dates. Inputs are not modified.
func Assemble(film, tv, reconciled []domain.MasterRow) domain.Corpus {
	corpus := domain.Corpus{
		Film: make([]domain.MasterRow, 0, len(film)),
		TV:   make([]domain.MasterRow, 0, len(tv)),
	}

	for _, r := range film {
		corpus.Film = append(corpus.Film, normalizeDates(r, domain.MediaFilm))
	}
	for _, r := range tv {
		corpus.TV = append(corpus.TV, normalizeDates(r, domain.MediaTV))
	}
	for _, r := range reconciled {
		if r.Media == domain.MediaTV {
			corpus.TV = append(corpus.TV, normalizeDates(r, domain.MediaTV))
			continue
		}
		corpus.Film = append(corpus.Film, normalizeDates(r, domain.MediaFilm))
	}

	return corpus
}

func normalizeDates(r domain.MasterRow, media domain.MediaType) domain.MasterRow {
	r.Media = media
	r.Window = domain.Window{
		Start: truncateDate(r.Window.Start),
		End:   truncateDate(r.Window.End),
	}
	if r.ReleaseDate != nil {
		d := truncateDate(*r.ReleaseDate)
		r.ReleaseDate = &d
	}
	return r
}
