package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/flood-wave-graph/internal/analysis"
	"github.com/couchcryptid/flood-wave-graph/internal/config"
	"github.com/couchcryptid/flood-wave-graph/internal/domain"
	"github.com/couchcryptid/flood-wave-graph/internal/graph"
	"github.com/couchcryptid/flood-wave-graph/internal/observability"
)

// ErrNoRun is returned while no extraction run has completed.
var ErrNoRun = errors.New("no extraction run has completed yet")

// CatalogSource loads the stations and series of a run.
type CatalogSource interface {
	Load(ctx context.Context) (*domain.Catalog, error)
}

// WaveLoader writes the waves of a run to a result sink.
type WaveLoader interface {
	Name() string
	LoadWaves(ctx context.Context, run domain.RunInfo, records []domain.WaveRecord) error
}

// GraphStore persists the extracted graph of a run.
type GraphStore interface {
	SaveGraph(ctx context.Context, run domain.RunInfo, g *graph.Graph) error
}

// Result is everything a run produced. All fields are read-only.
type Result struct {
	Run       domain.RunInfo
	Catalog   *domain.Catalog
	Vertices  domain.VertexMap
	Graph     *graph.Graph
	Filter    *graph.Filter
	Filtered  *graph.Graph
	Waves     []domain.Wave
	Extracted *graph.Graph
	Summary   analysis.Summary
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLoaders adds result sinks for extracted waves.
func WithLoaders(loaders ...WaveLoader) Option {
	return func(p *Pipeline) { p.loaders = append(p.loaders, loaders...) }
}

// WithGraphStore persists the extracted graph after every run.
func WithGraphStore(s GraphStore) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithRunID overrides run identifier generation.
func WithRunID(next func() string) Option {
	return func(p *Pipeline) { p.newRunID = next }
}

// Pipeline orchestrates one batch run: load, detect peaks, build edges,
// assemble, filter, extract, summarize, publish.
type Pipeline struct {
	source   CatalogSource
	params   *config.Analysis
	workers  int
	loaders  []WaveLoader
	store    GraphStore
	newRunID func() string

	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
	last    atomic.Pointer[Result]
}

// New creates a Pipeline with the given source, parameters and observability.
func New(source CatalogSource, params *config.Analysis, workers int, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:   source,
		params:   params,
		workers:  workers,
		newRunID: uuid.NewString,
		logger:   logger,
		metrics:  metrics,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once a run has completed, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return ErrNoRun
	}
	return nil
}

// Ready reports whether a run has completed.
func (p *Pipeline) Ready() bool { return p.ready.Load() }

// LastSummary returns the summary of the latest completed run.
func (p *Pipeline) LastSummary() (analysis.Summary, bool) {
	r := p.last.Load()
	if r == nil {
		return analysis.Summary{}, false
	}
	return r.Summary, true
}

// Waves re-extracts the waves of the latest run within a river-km range.
func (p *Pipeline) Waves(ctx context.Context, q graph.StationQuery) ([]domain.Wave, error) {
	r := p.last.Load()
	if r == nil {
		return nil, ErrNoRun
	}
	a := analysis.NewAnalyzer(r.Extracted, r.Filter, graph.NewExtractor(p.workers, p.logger), r.Run.WithEquivalence)
	return a.Between(ctx, q)
}

// Run executes one extraction run. Structural inconsistencies and invalid
// ranges abort the run; nothing is retried.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	run := domain.NewRunInfo(p.newRunID(), p.params.Beta, p.params.Delta, p.params.WithEquivalence)
	logger := p.logger.With("run_id", run.ID)
	logger.Info("run started",
		"beta", run.Beta,
		"delta", run.Delta,
		"with_equivalence", run.WithEquivalence,
		"workers", p.workers,
	)

	res, err := p.run(ctx, run, logger)
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		logger.Error("run failed", "error", err)
		return nil, err
	}

	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.metrics.LastRunSuccess.Set(float64(run.GeneratedAt.Unix()))
	p.last.Store(res)
	p.ready.Store(true)
	logger.Info("run finished",
		"peaks", res.Summary.Peaks,
		"graph_edges", res.Summary.GraphEdges,
		"components", res.Summary.Components,
		"waves", res.Summary.Waves,
	)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, run domain.RunInfo, logger *slog.Logger) (*Result, error) {
	res := &Result{Run: run}
	stage := func(name string, fn func() error) error {
		start := time.Now()
		if err := fn(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		elapsed := time.Since(start)
		p.metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
		logger.Debug("stage done", "stage", name, "duration", elapsed)
		return nil
	}

	var (
		peaks map[string][]domain.Vertex
		edges []domain.Edge
	)
	steps := []struct {
		name string
		fn   func() error
	}{
		{"load", func() (err error) {
			if res.Catalog, err = p.source.Load(ctx); err != nil {
				return err
			}
			return res.Catalog.Validate()
		}},
		{"peaks", func() (err error) {
			if peaks, err = DetectPeaks(ctx, res.Catalog, p.params.Delta, p.params.PeakWindow(), p.workers); err != nil {
				return err
			}
			if res.Vertices, err = domain.NewVertexMap(peaks); err != nil {
				return err
			}
			p.metrics.PeaksDetected.Add(float64(len(res.Vertices)))
			return nil
		}},
		{"edges", func() (err error) {
			if edges, err = BuildEdges(ctx, res.Catalog.Stations, peaks, p.params.Beta, p.workers); err != nil {
				return err
			}
			p.metrics.EdgesBuilt.Add(float64(len(edges)))
			return domain.ValidateEdges(res.Catalog.Stations, res.Vertices, p.params.Beta, edges)
		}},
		{"assemble", func() (err error) {
			res.Graph, err = graph.Assemble(edges, res.Vertices)
			return err
		}},
		{"filter", func() error {
			res.Filter = graph.NewFilter(p.params.ResolveDefaults(res.Catalog.Extent()))
			byStation, err := res.Filter.Stations(res.Graph, p.params.StationQuery())
			if err != nil {
				return err
			}
			res.Filtered, err = res.Filter.Dates(byStation, p.params.DateQuery())
			return err
		}},
		{"extract", func() (err error) {
			x := graph.NewExtractor(p.workers, logger)
			if res.Waves, err = x.Extract(ctx, res.Filtered, p.params.WithEquivalence); err != nil {
				return err
			}
			p.metrics.WavesExtracted.Add(float64(len(res.Waves)))
			res.Extracted, err = graph.FromWaves(res.Filtered, res.Waves)
			return err
		}},
		{"summarize", func() (err error) {
			res.Summary, err = analysis.Summarize(run, len(res.Catalog.Stations), res.Vertices, res.Filtered, res.Waves, res.Extracted)
			p.metrics.Components.Set(float64(res.Summary.Components))
			return err
		}},
		{"publish", func() error {
			return p.publish(ctx, res)
		}},
	}

	for _, s := range steps {
		if err := stage(s.name, s.fn); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// publish hands the run to every configured sink. The first failing sink
// fails the run.
func (p *Pipeline) publish(ctx context.Context, res *Result) error {
	if len(p.loaders) > 0 {
		records, err := domain.NewWaveRecords(res.Run, res.Waves, res.Vertices)
		if err != nil {
			return err
		}
		for _, l := range p.loaders {
			if err := l.LoadWaves(ctx, res.Run, records); err != nil {
				p.metrics.SinkErrors.WithLabelValues(l.Name()).Inc()
				return fmt.Errorf("sink %s: %w", l.Name(), err)
			}
			p.metrics.WavesPublished.WithLabelValues(l.Name()).Add(float64(len(records)))
		}
	}

	if p.store != nil {
		if err := p.store.SaveGraph(ctx, res.Run, res.Extracted); err != nil {
			p.metrics.SinkErrors.WithLabelValues("snapshot").Inc()
			return fmt.Errorf("save extracted graph: %w", err)
		}
	}
	return nil
}
