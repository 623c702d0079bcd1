package analysis

import (
	"github.com/couchcryptid/flood-wave-graph/internal/domain"
	"github.com/couchcryptid/flood-wave-graph/internal/graph"
)

// Summary describes one completed run.
type Summary struct {
	Run             domain.RunInfo `json:"run" msgpack:"run"`
	Stations        int            `json:"stations" msgpack:"stations"`
	Peaks           int            `json:"peaks" msgpack:"peaks"`
	RedPeaks        int            `json:"red_peaks" msgpack:"red_peaks"`
	GraphNodes      int            `json:"graph_nodes" msgpack:"graph_nodes"`
	GraphEdges      int            `json:"graph_edges" msgpack:"graph_edges"`
	Components      int            `json:"components" msgpack:"components"`
	Waves           int            `json:"waves" msgpack:"waves"`
	RedWaves        int            `json:"red_waves" msgpack:"red_waves"`
	ExtractedNodes  int            `json:"extracted_nodes" msgpack:"extracted_nodes"`
	ExtractedEdges  int            `json:"extracted_edges" msgpack:"extracted_edges"`
	WaveCounts      PeriodStats    `json:"wave_counts" msgpack:"wave_counts"`
	MeanPropagation PeriodStats    `json:"mean_propagation" msgpack:"mean_propagation"`
}

// Summarize collects the figures of a run. A wave is counted as red when
// all of its vertices are red.
func Summarize(run domain.RunInfo, stations int, vertices domain.VertexMap, g *graph.Graph, waves []domain.Wave, extracted *graph.Graph) (Summary, error) {
	s := Summary{
		Run:            run,
		Stations:       stations,
		Peaks:          len(vertices),
		GraphNodes:     g.NodeCount(),
		GraphEdges:     g.EdgeCount(),
		Components:     len(graph.WeakComponents(g)),
		Waves:          len(waves),
		ExtractedNodes: extracted.NodeCount(),
		ExtractedEdges: extracted.EdgeCount(),
	}
	for _, v := range vertices {
		if v.Color == domain.Red {
			s.RedPeaks++
		}
	}
	for _, w := range waves {
		red := true
		for _, k := range w {
			if vertices[k].Color != domain.Red {
				red = false
				break
			}
		}
		if red {
			s.RedWaves++
		}
	}

	var err error
	if s.WaveCounts, err = CountWaves(waves); err != nil {
		return Summary{}, err
	}
	if s.MeanPropagation, err = PropagationTimes(waves, Mean); err != nil {
		return Summary{}, err
	}
	return s, nil
}
