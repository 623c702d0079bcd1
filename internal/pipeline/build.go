package pipeline

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/flood-wave-graph/internal/domain"
)

// DetectPeaks runs peak detection for every catalog station concurrently.
// Stations without a series contribute no vertices.
func DetectPeaks(ctx context.Context, catalog *domain.Catalog, delta int, window domain.Lifetime, workers int) (map[string][]domain.Vertex, error) {
	results := make([][]domain.Vertex, len(catalog.Stations))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, s := range catalog.Stations {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			peaks, err := domain.DetectPeaks(s, catalog.Series[s.ID], delta, window)
			if err != nil {
				return fmt.Errorf("station %s: %w", s.ID, err)
			}
			results[i] = peaks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byStation := make(map[string][]domain.Vertex, len(results))
	for i, s := range catalog.Stations {
		byStation[s.ID] = results[i]
	}
	return byStation, nil
}

// BuildEdges links the peaks of every pair of adjacent stations
// concurrently. The station at position i is upstream of i+1. Edges come
// back in station order, then upstream date, then downstream date.
func BuildEdges(ctx context.Context, stations []domain.Station, peaks map[string][]domain.Vertex, beta, workers int) ([]domain.Edge, error) {
	if len(stations) < 2 {
		return nil, nil
	}
	results := make([][]domain.Edge, len(stations)-1)

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := range results {
		up, down := stations[i], stations[i+1]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			edges, err := domain.BuildEdges(peaks[up.ID], peaks[down.ID], beta)
			if err != nil {
				return fmt.Errorf("stations %s -> %s: %w", up.ID, down.ID, err)
			}
			results[i] = edges
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.Concat(results...), nil
}
