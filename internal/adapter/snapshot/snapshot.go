// Package snapshot persists an extracted wave graph with the run that
// produced it, for later regional re-analysis.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/couchcryptid/flood-wave-graph/internal/domain"
	"github.com/couchcryptid/flood-wave-graph/internal/graph"
)

// Snapshot is the on-disk form of a graph. Vertices and edges are stored
// in canonical order, so equal graphs encode to equal bytes.
type Snapshot struct {
	Run      domain.RunInfo  `msgpack:"run"`
	Vertices []domain.Vertex `msgpack:"vertices"`
	Edges    []domain.Edge   `msgpack:"edges"`
}

// Store writes snapshots to a single file. It implements pipeline.GraphStore.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a Store writing to path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// SaveGraph replaces the snapshot file. The file is written next to the
// target and renamed into place, so readers never see a partial snapshot.
func (s *Store) SaveGraph(ctx context.Context, run domain.RunInfo, g *graph.Graph) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(run, g)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	s.logger.Info("snapshot saved",
		"path", s.path,
		"run_id", run.ID,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
	)
	return nil
}

// Load reads the snapshot at path and rebuilds its graph.
func Load(path string) (domain.RunInfo, *graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RunInfo{}, nil, fmt.Errorf("read snapshot: %w", err)
	}
	return Decode(data)
}

// Encode serializes a graph and its run.
func Encode(run domain.RunInfo, g *graph.Graph) ([]byte, error) {
	data, err := msgpack.Marshal(Snapshot{Run: run, Vertices: g.Nodes(), Edges: g.Edges()})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode rebuilds a graph from its serialized form. A snapshot whose edges
// reference unknown vertices is a structural error.
func Decode(data []byte) (domain.RunInfo, *graph.Graph, error) {
	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return domain.RunInfo{}, nil, fmt.Errorf("decode snapshot: %w", err)
	}

	g := graph.New()
	for _, v := range snap.Vertices {
		if err := g.AddNode(v); err != nil {
			return domain.RunInfo{}, nil, err
		}
	}
	for _, e := range snap.Edges {
		if err := g.AddEdge(e); err != nil {
			return domain.RunInfo{}, nil, err
		}
	}
	return snap.Run, g, nil
}
