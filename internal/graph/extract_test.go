package graph

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-wave-graph/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sortWaves(ws []domain.Wave) []domain.Wave {
	out := slices.Clone(ws)
	slices.SortFunc(out, func(a, b domain.Wave) int {
		return slices.CompareFunc(a, b, domain.VertexKey.Compare)
	})
	return out
}

// braid is a graph with several sources and sinks, unequal path lengths
// and a second component.
func braid(t *testing.T) *Graph {
	return build(t,
		[2]string{"A", "C"},
		[2]string{"B", "C"},
		[2]string{"B", "D"},
		[2]string{"C", "E"},
		[2]string{"D", "E"},
		[2]string{"E", "F"},
		[2]string{"D", "G"},
		[2]string{"A", "H"},
		[2]string{"H", "F"},
		[2]string{"P", "Q"},
		[2]string{"P", "R"},
		[2]string{"Q", "S"},
		[2]string{"R", "S"},
	)
}

func TestExtract_Diamond(t *testing.T) {
	x := NewExtractor(2, discardLogger())

	tests := []struct {
		name            string
		withEquivalence bool
		expected        []domain.Wave
	}{
		{"with equivalence", true, []domain.Wave{wave("A", "B", "D")}},
		{"without equivalence", false, []domain.Wave{wave("A", "B", "D"), wave("A", "C", "D")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := diamond(t)
			waves, err := x.Extract(context.Background(), g, tt.withEquivalence)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, waves)

			extracted, err := FromWaves(g, waves)
			require.NoError(t, err)
			want := build(t, wavePairs(tt.expected)...)
			assert.True(t, want.Equal(extracted))
		})
	}
}

func wavePairs(waves []domain.Wave) [][2]string {
	var pairs [][2]string
	seen := make(map[[2]string]bool)
	for _, w := range waves {
		for i := 1; i < len(w); i++ {
			p := [2]string{w[i-1].Station, w[i].Station}
			if !seen[p] {
				seen[p] = true
				pairs = append(pairs, p)
			}
		}
	}
	return pairs
}

func TestExtract_PairsAndOrdering(t *testing.T) {
	g := braid(t)
	x := NewExtractor(0, discardLogger())

	waves, err := x.Extract(context.Background(), g, true)
	require.NoError(t, err)

	// Sources A, B; sinks F, G. A cannot reach G, and reaches F through H
	// in fewer edges than through C.
	expected := []domain.Wave{
		wave("A", "H", "F"),
		wave("B", "C", "E", "F"),
		wave("B", "D", "G"),
		wave("P", "Q", "S"),
	}
	assert.Empty(t, cmp.Diff(expected, waves))
}

func TestExtract_AllShortestWithoutEquivalence(t *testing.T) {
	g := braid(t)
	x := NewExtractor(1, discardLogger())

	waves, err := x.Extract(context.Background(), g, false)
	require.NoError(t, err)

	expected := []domain.Wave{
		wave("A", "H", "F"),
		wave("B", "C", "E", "F"),
		wave("B", "D", "E", "F"),
		wave("B", "D", "G"),
		wave("P", "Q", "S"),
		wave("P", "R", "S"),
	}
	assert.Empty(t, cmp.Diff(expected, waves))
}

func TestExtract_NoCrossComponentWaves(t *testing.T) {
	g := braid(t)
	components := WeakComponents(g)
	member := make(map[domain.VertexKey]int)
	for i, c := range components {
		for _, k := range c {
			member[k] = i
		}
	}

	for _, eq := range []bool{true, false} {
		waves, err := NewExtractor(4, discardLogger()).Extract(context.Background(), g, eq)
		require.NoError(t, err)
		for _, w := range waves {
			for _, k := range w {
				assert.Equal(t, member[w.Source()], member[k])
			}
			assert.Equal(t, 0, g.InDegree(w.Source()))
			assert.Equal(t, 0, g.OutDegree(w.Sink()))
		}
	}
}

func TestExtract_OneWavePerPairWithEquivalence(t *testing.T) {
	waves, err := NewExtractor(0, discardLogger()).Extract(context.Background(), braid(t), true)
	require.NoError(t, err)

	seen := make(map[[2]domain.VertexKey]bool)
	for _, w := range waves {
		pair := [2]domain.VertexKey{w.Source(), w.Sink()}
		assert.False(t, seen[pair], "pair %v emitted twice", pair)
		seen[pair] = true
	}
}

func TestExtract_RoundTripStable(t *testing.T) {
	for _, eq := range []bool{true, false} {
		x := NewExtractor(3, discardLogger())
		g := braid(t)

		first, err := x.Extract(context.Background(), g, eq)
		require.NoError(t, err)
		extracted, err := FromWaves(g, first)
		require.NoError(t, err)

		second, err := x.Extract(context.Background(), extracted, eq)
		require.NoError(t, err)
		assert.Equal(t, sortWaves(first), sortWaves(second), "with_equivalence=%v", eq)
	}
}

func TestExtract_IsolatedNodeIsSingleVertexWave(t *testing.T) {
	g := build(t, [2]string{"A", "B"})
	sub := g.Subgraph(func(v domain.Vertex) bool { return v.Key.Station == "B" })

	waves, err := NewExtractor(0, discardLogger()).Extract(context.Background(), sub, true)
	require.NoError(t, err)
	assert.Equal(t, []domain.Wave{wave("B")}, waves)
}

func TestExtract_EmptyGraph(t *testing.T) {
	waves, err := NewExtractor(0, discardLogger()).Extract(context.Background(), New(), true)
	require.NoError(t, err)
	assert.Empty(t, waves)
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExtractor(0, discardLogger()).Extract(ctx, braid(t), true)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtract_DoesNotMutateGraph(t *testing.T) {
	g := braid(t)
	before := braid(t)

	_, err := NewExtractor(0, discardLogger()).Extract(context.Background(), g, false)
	require.NoError(t, err)
	assert.True(t, before.Equal(g))
}

func TestEndpoints(t *testing.T) {
	g := braid(t)
	sources, sinks := Endpoints(g, WeakComponents(g)[0])
	assert.Equal(t, keys("A", "B"), sources)
	assert.Equal(t, keys("F", "G"), sinks)
}

func TestFromWaves_PreservesSlopes(t *testing.T) {
	g := New()
	for _, n := range []string{"A", "B"} {
		require.NoError(t, g.AddNode(vertex(n)))
	}
	require.NoError(t, g.AddEdge(domain.Edge{From: key("A"), To: key("B"), Slope: -2.5}))

	out, err := FromWaves(g, []domain.Wave{wave("A", "B"), wave("A", "B")})
	require.NoError(t, err)

	e, ok := out.Edge(key("A"), key("B"))
	require.True(t, ok)
	assert.Equal(t, -2.5, e.Slope)
	assert.Equal(t, 1, out.EdgeCount())
}

func TestFromWaves_StructuralErrors(t *testing.T) {
	g := diamond(t)

	_, err := FromWaves(g, []domain.Wave{wave("A", "D")})
	assert.ErrorIs(t, err, domain.ErrStructural, "step without an edge")

	_, err = FromWaves(g, []domain.Wave{wave("A", "X")})
	assert.ErrorIs(t, err, domain.ErrStructural, "unknown vertex")
}
