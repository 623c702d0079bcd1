package domain

import (
	"cmp"
	"math"
	"slices"
)

// Color classifies a peak against the station's level group.
type Color string

const (
	Yellow Color = "yellow"
	Red    Color = "red"
)

// VertexKey identifies a candidate wave event.
type VertexKey struct {
	Station string `json:"station" msgpack:"station"`
	Date    string `json:"date" msgpack:"date"`
}

func (k VertexKey) String() string { return k.Station + "@" + k.Date }

// Compare orders keys by station, then date. This is the canonical order
// for components, source/sink pairs and tie-breaks.
func (k VertexKey) Compare(o VertexKey) int {
	if c := cmp.Compare(k.Station, o.Station); c != 0 {
		return c
	}
	return cmp.Compare(k.Date, o.Date)
}

// Vertex is a detected peak.
type Vertex struct {
	Key     VertexKey `json:"key" msgpack:"key"`
	RiverKm float64   `json:"river_km" msgpack:"river_km"`
	Value   float64   `json:"value" msgpack:"value"`
	Color   Color     `json:"color" msgpack:"color"`
}

// VertexMap indexes every vertex of a run by key.
type VertexMap map[VertexKey]Vertex

// NewVertexMap indexes per-station vertices. A key seen twice is a
// structural error.
func NewVertexMap(byStation map[string][]Vertex) (VertexMap, error) {
	n := 0
	for _, vs := range byStation {
		n += len(vs)
	}
	m := make(VertexMap, n)
	for _, vs := range byStation {
		for _, v := range vs {
			if _, dup := m[v.Key]; dup {
				key := v.Key
				return nil, &StructuralError{Key: &key, Reason: "duplicate vertex"}
			}
			m[v.Key] = v
		}
	}
	return m, nil
}

// Keys returns the vertex keys in canonical order.
func (m VertexMap) Keys() []VertexKey {
	keys := make([]VertexKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	SortKeys(keys)
	return keys
}

// SortKeys sorts keys in canonical order.
func SortKeys(keys []VertexKey) {
	slices.SortFunc(keys, VertexKey.Compare)
}

// roundLevel rounds a corrected level to centimetre precision.
func roundLevel(v float64) float64 {
	return math.Round(v*100) / 100
}
