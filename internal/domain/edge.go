package domain

import (
	"fmt"
	"slices"
	"sort"
)

// Edge is a candidate propagation link between peaks of adjacent stations.
type Edge struct {
	From  VertexKey `json:"from" msgpack:"from"`
	To    VertexKey `json:"to" msgpack:"to"`
	Slope float64   `json:"slope" msgpack:"slope"`
}

// Slope is the level change per river kilometre between two vertices.
func Slope(up, down Vertex) float64 {
	return (down.Value - up.Value) / (down.RiverKm - up.RiverKm)
}

// BuildEdges links every upstream vertex at day u to every downstream
// vertex at day v with u <= v <= u+beta. Either side being empty yields no
// edges. Output is ordered by upstream date, then downstream date.
func BuildEdges(upstream, downstream []Vertex, beta int) ([]Edge, error) {
	if beta < 0 {
		return nil, fmt.Errorf("%w: beta must not be negative, got %d", ErrInvalidRange, beta)
	}
	if len(upstream) == 0 || len(downstream) == 0 {
		return nil, nil
	}

	down, err := byDay(downstream)
	if err != nil {
		return nil, err
	}
	up, err := byDay(upstream)
	if err != nil {
		return nil, err
	}

	var edges []Edge
	for _, u := range up {
		first := sort.Search(len(down), func(i int) bool { return down[i].day >= u.day })
		for _, d := range down[first:] {
			if d.day > u.day+int64(beta) {
				break
			}
			edges = append(edges, Edge{
				From:  u.vertex.Key,
				To:    d.vertex.Key,
				Slope: Slope(u.vertex, d.vertex),
			})
		}
	}
	return edges, nil
}

type dayVertex struct {
	day    int64
	vertex Vertex
}

func byDay(vs []Vertex) ([]dayVertex, error) {
	out := make([]dayVertex, len(vs))
	for i, v := range vs {
		day, err := dayNumber(v.Key.Date)
		if err != nil {
			key := v.Key
			return nil, &StructuralError{Key: &key, Reason: err.Error()}
		}
		out[i] = dayVertex{day: day, vertex: v}
	}
	slices.SortFunc(out, func(a, b dayVertex) int { return int(a.day - b.day) })
	return out, nil
}

// ValidateEdges checks the wave-graph invariants for a set of candidate
// edges: both endpoints were produced by peak detection, the stations are
// consecutive in the catalog ordering, and the downstream date lies in
// [upstream date, upstream date + beta].
func ValidateEdges(stations []Station, vertices VertexMap, beta int, edges []Edge) error {
	position := make(map[string]int, len(stations))
	for i, s := range stations {
		position[s.ID] = i
	}

	for i := range edges {
		e := &edges[i]
		if _, ok := vertices[e.From]; !ok {
			return &StructuralError{Edge: e, Reason: "upstream vertex was not detected"}
		}
		if _, ok := vertices[e.To]; !ok {
			return &StructuralError{Edge: e, Reason: "downstream vertex was not detected"}
		}

		up, okUp := position[e.From.Station]
		down, okDown := position[e.To.Station]
		if !okUp || !okDown || down != up+1 {
			return &StructuralError{Edge: e, Reason: "stations are not adjacent"}
		}

		lag, err := DaysBetween(e.From.Date, e.To.Date)
		if err != nil {
			return &StructuralError{Edge: e, Reason: err.Error()}
		}
		if lag < 0 || lag > beta {
			return &StructuralError{Edge: e, Reason: fmt.Sprintf("lag of %d days is outside [0, %d]", lag, beta)}
		}
	}
	return nil
}
