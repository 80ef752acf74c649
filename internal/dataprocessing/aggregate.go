package dataprocessing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"viewership/pkg/contracts/domain"
)

var queryValidator = validator.New()

type titleKey struct {
	group   string
	title   string
	release int64
	runtime float64
}

// CombineWindows collapses repeated observations of the same title across
// reporting windows. Rows sharing group title, title, release date and
// runtime are summed. Rows missing a release date or runtime have no key
// and are left out. Views are derived from hours and runtime.
func CombineWindows(rows []domain.MasterRow) []domain.TitleTotal {
	index := make(map[titleKey]int)
	var out []domain.TitleTotal

	for _, r := range rows {
		if r.ReleaseDate == nil || !r.RuntimeMinutes.Valid {
			continue
		}
		key := titleKey{
			group:   r.GroupTitle,
			title:   r.Title,
			release: r.ReleaseDate.Unix(),
			runtime: r.RuntimeMinutes.Float64,
		}

		i, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, domain.TitleTotal{
				GroupTitle:     r.GroupTitle,
				Title:          r.Title,
				ReleaseDate:    r.ReleaseDate,
				RuntimeMinutes: r.RuntimeMinutes,
				HoursViewed:    r.HoursViewed.OrZero(),
				StartDate:      r.Window.Start,
				EndDate:        r.Window.End,
			})
			continue
		}

		t := &out[i]
		t.HoursViewed += r.HoursViewed.OrZero()
		if r.Window.Start.Before(t.StartDate) {
			t.StartDate = r.Window.Start
		}
		if r.Window.End.After(t.EndDate) {
			t.EndDate = r.Window.End
		}
	}

	for i := range out {
		out[i].Views = deriveViews(domain.Float(out[i].HoursViewed), out[i].RuntimeMinutes)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.GroupTitle != b.GroupTitle {
			return a.GroupTitle < b.GroupTitle
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		if c := a.ReleaseDate.Compare(*b.ReleaseDate); c != 0 {
			return c < 0
		}
		return a.RuntimeMinutes.OrZero() < b.RuntimeMinutes.OrZero()
	})

	return out
}

// deriveViews is hours / (runtime/60), rounded; missing without a runtime
func deriveViews(hours, runtime domain.NullFloat64) domain.NullFloat64 {
	if !hours.Valid || !runtime.Valid || runtime.Float64 == 0 {
		return domain.Missing()
	}
	return domain.Float(roundHalfEven(hours.Float64 / (runtime.Float64 / 60)))
}

// GroupAndAggregate totals combined titles per group title: summed views
// and hours, the number of distinct titles and the mean known runtime.
// Groups are returned in group title order.
func GroupAndAggregate(totals []domain.TitleTotal) []domain.GroupSummary {
	type acc struct {
		summary    domain.GroupSummary
		titles     map[string]struct{}
		runtimeSum float64
		runtimeN   int
	}

	groups := make(map[string]*acc)
	var order []string

	for _, t := range totals {
		a, ok := groups[t.GroupTitle]
		if !ok {
			a = &acc{
				summary: domain.GroupSummary{GroupTitle: t.GroupTitle},
				titles:  make(map[string]struct{}),
			}
			groups[t.GroupTitle] = a
			order = append(order, t.GroupTitle)
		}
		a.summary.Views += t.Views.OrZero()
		a.summary.HoursViewed += t.HoursViewed
		a.titles[t.Title] = struct{}{}
		if t.RuntimeMinutes.Valid {
			a.runtimeSum += t.RuntimeMinutes.Float64
			a.runtimeN++
		}
	}

	sort.Strings(order)
	out := make([]domain.GroupSummary, 0, len(order))
	for _, g := range order {
		a := groups[g]
		a.summary.TitleCount = len(a.titles)
		if a.runtimeN > 0 {
			a.summary.AvgRuntime = domain.Float(a.runtimeSum / float64(a.runtimeN))
		}
		out = append(out, a.summary)
	}
	return out
}

// GroupTable runs CombineWindows and GroupAndAggregate over a master table
func GroupTable(rows []domain.MasterRow) []domain.GroupSummary {
	return GroupAndAggregate(CombineWindows(rows))
}

// TopN ranks groups by the query metric after applying the title-count
// range. The ranked metric is rounded to the nearest 100,000 and the
// average runtime to whole minutes. Ties keep their input order.
func TopN(groups []domain.GroupSummary, q domain.TopQuery) ([]domain.RankedGroup, error) {
	if q.Metric == "" {
		q.Metric = domain.MetricViews
	}
	if err := queryValidator.Struct(q); err != nil {
		return nil, err
	}
	if q.MinCount > 0 && q.MaxCount > 0 && q.MinCount > q.MaxCount {
		return nil, fmt.Errorf("min_count %d exceeds max_count %d", q.MinCount, q.MaxCount)
	}

	metric := func(g domain.GroupSummary) float64 {
		if q.Metric == domain.MetricHoursViewed {
			return g.HoursViewed
		}
		return g.Views
	}

	filtered := make([]domain.GroupSummary, 0, len(groups))
	for _, g := range groups {
		if q.MinCount > 0 && g.TitleCount < q.MinCount {
			continue
		}
		if q.MaxCount > 0 && g.TitleCount > q.MaxCount {
			continue
		}
		filtered = append(filtered, g)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return metric(filtered[i]) > metric(filtered[j])
	})
	if len(filtered) > q.N {
		filtered = filtered[:q.N]
	}

	out := make([]domain.RankedGroup, 0, len(filtered))
	for i, g := range filtered {
		ranked := domain.RankedGroup{
			Rank:        i + 1,
			GroupTitle:  g.GroupTitle,
			TitleCount:  g.TitleCount,
			Views:       g.Views,
			HoursViewed: g.HoursViewed,
		}
		if q.Metric == domain.MetricHoursViewed {
			ranked.HoursViewed = roundTo(g.HoursViewed, -5)
		} else {
			ranked.Views = roundTo(g.Views, -5)
		}
		if g.AvgRuntime.Valid {
			ranked.AvgRuntime = domain.Float(roundHalfEven(g.AvgRuntime.Float64))
		}
		out = append(out, ranked)
	}
	return out, nil
}

type halfKey struct {
	value string
	half  string
	start int64
}

// FiscalHalfSummary sums derived views of both tables per dimension value
// and reporting window, ordered by window start then value
func FiscalHalfSummary(film, tv []domain.MasterRow, dim domain.Dimension) ([]domain.FiscalHalfBucket, error) {
	valueOf, err := dimensionValue(dim)
	if err != nil {
		return nil, err
	}

	index := make(map[halfKey]int)
	var out []domain.FiscalHalfBucket

	add := func(rows []domain.MasterRow, media domain.MediaType) {
		for _, r := range rows {
			key := halfKey{
				value: valueOf(r, media),
				half:  r.Window.FiscalHalf(),
				start: r.Window.Start.Unix(),
			}
			i, ok := index[key]
			if !ok {
				i = len(out)
				index[key] = i
				out = append(out, domain.FiscalHalfBucket{
					Value:      key.value,
					FiscalHalf: key.half,
					StartDate:  r.Window.Start,
				})
			}
			out[i].Views += deriveViews(r.HoursViewed, r.RuntimeMinutes).OrZero()
		}
	}
	add(film, domain.MediaFilm)
	add(tv, domain.MediaTV)

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].Value < out[j].Value
	})

	for i := range out {
		out[i].ViewsBillions = out[i].Views / 1e9
		out[i].Label = BillionsLabel(out[i].ViewsBillions)
	}
	return out, nil
}

func dimensionValue(dim domain.Dimension) (func(domain.MasterRow, domain.MediaType) string, error) {
	switch dim {
	case domain.DimensionMedia:
		return func(_ domain.MasterRow, media domain.MediaType) string { return string(media) }, nil
	case domain.DimensionAvailability:
		return func(r domain.MasterRow, _ domain.MediaType) string { return Availability(r.AvailableGlobally) }, nil
	case domain.DimensionOwnership:
		return func(r domain.MasterRow, _ domain.MediaType) string { return string(r.Ownership) }, nil
	}
	return nil, fmt.Errorf("unknown dimension %q", dim)
}

// Availability maps the "Available Globally?" flag to Global or Domestic
func Availability(flag string) string {
	if flag == "Yes" {
		return domain.AvailabilityGlobal
	}
	return domain.AvailabilityDomestic
}

// BillionsLabel formats a value in billions to two decimals: 1.234 -> "1.23B",
// 2 -> "2.0B"
func BillionsLabel(billions float64) string {
	s := strconv.FormatFloat(roundTo(billions, 2), 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + "B"
}
