package domain

import (
	"fmt"
	"time"
)

// Wave is a flood wave: a directed path of vertex keys from a source
// (in-degree 0) to a sink (out-degree 0) of its component. Waves are
// derived views and are never mutated after extraction.
type Wave []VertexKey

// Source is the first vertex of the wave.
func (w Wave) Source() VertexKey { return w[0] }

// Sink is the last vertex of the wave.
func (w Wave) Sink() VertexKey { return w[len(w)-1] }

// Passes reports whether the wave visits the station.
func (w Wave) Passes(station string) bool {
	for _, k := range w {
		if k.Station == station {
			return true
		}
	}
	return false
}

// PropagationDays is the number of days between the source and the sink.
func (w Wave) PropagationDays() (int, error) {
	return DaysBetween(w.Source().Date, w.Sink().Date)
}

// Equal reports whether both waves visit the same vertices in order.
func (w Wave) Equal(o Wave) bool {
	if len(w) != len(o) {
		return false
	}
	for i := range w {
		if w[i] != o[i] {
			return false
		}
	}
	return true
}

// RunInfo identifies one extraction run and its parameters.
type RunInfo struct {
	ID              string    `json:"run_id" msgpack:"run_id"`
	GeneratedAt     time.Time `json:"generated_at" msgpack:"generated_at"`
	Beta            int       `json:"beta" msgpack:"beta"`
	Delta           int       `json:"delta" msgpack:"delta"`
	WithEquivalence bool      `json:"with_equivalence" msgpack:"with_equivalence"`
}

// NewRunInfo stamps a run with the package clock.
func NewRunInfo(id string, beta, delta int, withEquivalence bool) RunInfo {
	return RunInfo{
		ID:              id,
		GeneratedAt:     clock.Now().UTC(),
		Beta:            beta,
		Delta:           delta,
		WithEquivalence: withEquivalence,
	}
}

// WaveRecord is the denormalized form of a wave handed to sinks.
type WaveRecord struct {
	RunID           string   `json:"run_id"`
	Index           int      `json:"index"`
	Source          string   `json:"source"`
	Sink            string   `json:"sink"`
	Length          int      `json:"length"`
	PropagationDays int      `json:"propagation_days"`
	Red             bool     `json:"red"`
	Vertices        []Vertex `json:"vertices"`
}

// NewWaveRecords resolves every wave vertex against the vertex map. A key
// missing from the map is a structural error.
func NewWaveRecords(run RunInfo, waves []Wave, vertices VertexMap) ([]WaveRecord, error) {
	records := make([]WaveRecord, 0, len(waves))
	for i, w := range waves {
		if len(w) == 0 {
			return nil, &StructuralError{Reason: fmt.Sprintf("wave %d is empty", i)}
		}
		days, err := w.PropagationDays()
		if err != nil {
			return nil, &StructuralError{Reason: fmt.Sprintf("wave %d: %v", i, err)}
		}

		rec := WaveRecord{
			RunID:           run.ID,
			Index:           i,
			Source:          w.Source().String(),
			Sink:            w.Sink().String(),
			Length:          len(w),
			PropagationDays: days,
			Red:             true,
			Vertices:        make([]Vertex, len(w)),
		}
		for j, k := range w {
			v, ok := vertices[k]
			if !ok {
				key := k
				return nil, &StructuralError{Key: &key, Reason: "wave references an unknown vertex"}
			}
			rec.Vertices[j] = v
			rec.Red = rec.Red && v.Color == Red
		}
		records = append(records, rec)
	}
	return records, nil
}
