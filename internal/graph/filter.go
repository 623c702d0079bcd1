package graph

import (
	"strconv"

	"github.com/couchcryptid/flood-wave-graph/internal/domain"
)

// StationQuery selects a river-km range. A nil bound takes the default.
type StationQuery struct {
	Lower *float64
	Upper *float64
}

// DateQuery selects an ISO date range. A nil bound takes the default.
type DateQuery struct {
	Start *string
	End   *string
}

// Filter restricts a wave graph to a station or date range. Requests that
// resolve to exactly the default range return the input graph itself.
type Filter struct {
	defaults domain.Extent
}

// NewFilter returns a filter whose default range is defaults, typically the
// catalog extent or the configured filter defaults.
func NewFilter(defaults domain.Extent) *Filter {
	return &Filter{defaults: defaults}
}

// Defaults returns the default range.
func (f *Filter) Defaults() domain.Extent { return f.defaults }

// Stations keeps the nodes whose river km lies in [lower, upper].
func (f *Filter) Stations(g *Graph, q StationQuery) (*Graph, error) {
	lower, upper := f.defaults.LowerStation, f.defaults.UpperStation
	if q.Lower != nil {
		lower = *q.Lower
	}
	if q.Upper != nil {
		upper = *q.Upper
	}

	if lower == f.defaults.LowerStation && upper == f.defaults.UpperStation {
		return g, nil
	}
	if upper < lower {
		return nil, &domain.RangeError{
			Field: "station",
			Lower: strconv.FormatFloat(lower, 'f', -1, 64),
			Upper: strconv.FormatFloat(upper, 'f', -1, 64),
		}
	}

	return g.Subgraph(func(v domain.Vertex) bool {
		return lower <= v.RiverKm && v.RiverKm <= upper
	}), nil
}

// Dates keeps the nodes whose date lies in [start, end].
func (f *Filter) Dates(g *Graph, q DateQuery) (*Graph, error) {
	start, end := f.defaults.StartDate, f.defaults.EndDate
	if q.Start != nil {
		start = *q.Start
	}
	if q.End != nil {
		end = *q.End
	}

	if start == f.defaults.StartDate && end == f.defaults.EndDate {
		return g, nil
	}
	if end < start {
		return nil, &domain.RangeError{Field: "date", Lower: start, Upper: end}
	}

	return g.Subgraph(func(v domain.Vertex) bool {
		return start <= v.Key.Date && v.Key.Date <= end
	}), nil
}
