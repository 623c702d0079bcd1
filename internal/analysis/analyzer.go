package analysis

import (
	"context"
	"fmt"

	"github.com/couchcryptid/flood-wave-graph/internal/domain"
	"github.com/couchcryptid/flood-wave-graph/internal/graph"
)

// Analyzer runs regional analyses over an extracted graph. The graph is
// shared read-only between calls.
type Analyzer struct {
	extracted       *graph.Graph
	filter          *graph.Filter
	extractor       *graph.Extractor
	withEquivalence bool
}

// NewAnalyzer creates an Analyzer over the extracted graph of a run.
func NewAnalyzer(extracted *graph.Graph, filter *graph.Filter, extractor *graph.Extractor, withEquivalence bool) *Analyzer {
	return &Analyzer{
		extracted:       extracted,
		filter:          filter,
		extractor:       extractor,
		withEquivalence: withEquivalence,
	}
}

// Between restricts the extracted graph to a river-km range and extracts
// the waves of that section.
func (a *Analyzer) Between(ctx context.Context, q graph.StationQuery) ([]domain.Wave, error) {
	section, err := a.filter.Stations(a.extracted, q)
	if err != nil {
		return nil, fmt.Errorf("filter stations: %w", err)
	}
	waves, err := a.extractor.Extract(ctx, section, a.withEquivalence)
	if err != nil {
		return nil, fmt.Errorf("extract section: %w", err)
	}
	return waves, nil
}

// ReportRequest selects a river section, a statistic and the station whose
// high-water waves are reported.
type ReportRequest struct {
	Section   graph.StationQuery
	Statistic Statistic
	Target    string
	FullWave  bool
}

// Report is the statistical summary of a river section.
type Report struct {
	Waves          int         `json:"waves"`
	WaveCounts     PeriodStats `json:"wave_counts"`
	Propagation    PeriodStats `json:"propagation"`
	RedWaves       int         `json:"red_waves"`
	RedCounts      PeriodStats `json:"red_counts"`
	RedPropagation PeriodStats `json:"red_propagation"`
}

// Report extracts the waves of a section and aggregates them. Red-wave
// figures are only filled when a target station is given.
func (a *Analyzer) Report(ctx context.Context, req ReportRequest) (Report, error) {
	if _, err := ParseStatistic(string(req.Statistic)); err != nil {
		return Report{}, err
	}
	waves, err := a.Between(ctx, req.Section)
	if err != nil {
		return Report{}, err
	}

	r := Report{Waves: len(waves)}
	if r.WaveCounts, err = CountWaves(waves); err != nil {
		return Report{}, err
	}
	if r.Propagation, err = PropagationTimes(waves, req.Statistic); err != nil {
		return Report{}, err
	}
	if req.Target == "" {
		return r, nil
	}

	red := RedWaves(waves, a.extracted.Vertices(), req.Target, req.FullWave)
	r.RedWaves = len(red)
	if r.RedCounts, err = CountWaves(red); err != nil {
		return Report{}, err
	}
	if r.RedPropagation, err = PropagationTimes(red, req.Statistic); err != nil {
		return Report{}, err
	}
	return r, nil
}
