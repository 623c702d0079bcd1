package graph

import (
	"context"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/flood-wave-graph/internal/domain"
)

// Extractor finds the flood waves of a wave graph. Weak components are
// independent and are processed concurrently.
type Extractor struct {
	workers int
	logger  *slog.Logger
}

// NewExtractor creates an Extractor running at most workers components at
// a time. A non-positive workers value means no limit.
func NewExtractor(workers int, logger *slog.Logger) *Extractor {
	return &Extractor{workers: workers, logger: logger}
}

// Extract returns the waves of g. For every weak component it pairs each
// source (in-degree 0) with each sink (out-degree 0) and keeps the
// shortest paths between them; unreachable pairs are skipped.
//
// With equivalence, a pair yields exactly one wave: the lexicographically
// smallest minimum-edge path. Without it, a pair yields every minimum-edge
// path in lexicographic order.
//
// Waves are ordered by component (smallest key first), then by source and
// sink, then by path. The graph is only read.
func (x *Extractor) Extract(ctx context.Context, g *Graph, withEquivalence bool) ([]domain.Wave, error) {
	components := WeakComponents(g)
	results := make([][]domain.Wave, len(components))

	eg, ctx := errgroup.WithContext(ctx)
	if x.workers > 0 {
		eg.SetLimit(x.workers)
	}
	for i, component := range components {
		eg.Go(func() error {
			waves, err := componentWaves(ctx, g, component, withEquivalence)
			if err != nil {
				return err
			}
			results[i] = waves
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	waves := slices.Concat(results...)
	x.logger.Debug("waves extracted",
		"components", len(components),
		"waves", len(waves),
		"with_equivalence", withEquivalence,
	)
	return waves, nil
}

// Endpoints returns the sources and sinks of a component, each in
// canonical order. A node without edges is both.
func Endpoints(g *Graph, component []domain.VertexKey) (sources, sinks []domain.VertexKey) {
	for _, k := range component {
		if g.InDegree(k) == 0 {
			sources = append(sources, k)
		}
		if g.OutDegree(k) == 0 {
			sinks = append(sinks, k)
		}
	}
	return sources, sinks
}

func componentWaves(ctx context.Context, g *Graph, component []domain.VertexKey, withEquivalence bool) ([]domain.Wave, error) {
	sources, sinks := Endpoints(g, component)

	distTo := make([]map[domain.VertexKey]int, len(sinks))
	for i, sink := range sinks {
		distTo[i] = distancesTo(g, sink)
	}

	var waves []domain.Wave
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range sinks {
			if withEquivalence {
				if w, ok := shortestPath(g, source, distTo[i]); ok {
					waves = append(waves, w)
				}
				continue
			}
			waves = append(waves, allShortestPaths(g, source, distTo[i])...)
		}
	}
	return waves, nil
}

// FromWaves builds the extracted graph: the union of the nodes and edges
// of the waves, with vertex data and slopes taken from g. A wave step that
// is not an edge of g is a structural error.
func FromWaves(g *Graph, waves []domain.Wave) (*Graph, error) {
	out := New()
	for _, w := range waves {
		for i, k := range w {
			v, ok := g.Node(k)
			if !ok {
				key := k
				return nil, &domain.StructuralError{Key: &key, Reason: "wave vertex is not in the graph"}
			}
			if err := out.AddNode(v); err != nil {
				return nil, err
			}
			if i == 0 {
				continue
			}

			prev := w[i-1]
			if _, seen := out.Edge(prev, k); seen {
				continue
			}
			e, ok := g.Edge(prev, k)
			if !ok {
				return nil, &domain.StructuralError{
					Edge:   &domain.Edge{From: prev, To: k},
					Reason: "wave step is not an edge of the graph",
				}
			}
			if err := out.AddEdge(e); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
