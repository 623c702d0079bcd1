// Package graph holds the flood-wave graph: a directed graph over peak
// events of adjacent gauges, its filters and the wave extractor.
package graph

import (
	"slices"

	"github.com/couchcryptid/flood-wave-graph/internal/domain"
)

type edgeKey struct {
	From domain.VertexKey
	To   domain.VertexKey
}

// Graph is a directed graph keyed by (station, date). Adjacency lists are
// kept sorted in canonical key order so every traversal is deterministic.
//
// A Graph is not safe for concurrent mutation. Once built it is only read,
// and concurrent readers need no locking.
type Graph struct {
	nodes map[domain.VertexKey]domain.Vertex
	edges map[edgeKey]domain.Edge

	outgoing map[domain.VertexKey][]domain.VertexKey
	incoming map[domain.VertexKey][]domain.VertexKey
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[domain.VertexKey]domain.Vertex),
		edges:    make(map[edgeKey]domain.Edge),
		outgoing: make(map[domain.VertexKey][]domain.VertexKey),
		incoming: make(map[domain.VertexKey][]domain.VertexKey),
	}
}

// AddNode inserts a vertex. Re-adding an identical vertex is a no-op; a
// different vertex under the same key is a structural error.
func (g *Graph) AddNode(v domain.Vertex) error {
	if existing, ok := g.nodes[v.Key]; ok {
		if existing != v {
			key := v.Key
			return &domain.StructuralError{Key: &key, Reason: "conflicting vertex data"}
		}
		return nil
	}
	g.nodes[v.Key] = v
	return nil
}

// AddEdge inserts an edge between two existing nodes. Self loops, missing
// endpoints and duplicate edges are structural errors.
func (g *Graph) AddEdge(e domain.Edge) error {
	switch {
	case e.From == e.To:
		return &domain.StructuralError{Edge: &e, Reason: "self loop"}
	case !g.HasNode(e.From):
		return &domain.StructuralError{Edge: &e, Reason: "upstream vertex is not in the graph"}
	case !g.HasNode(e.To):
		return &domain.StructuralError{Edge: &e, Reason: "downstream vertex is not in the graph"}
	}

	key := edgeKey{From: e.From, To: e.To}
	if _, dup := g.edges[key]; dup {
		return &domain.StructuralError{Edge: &e, Reason: "duplicate edge"}
	}
	g.edges[key] = e
	g.outgoing[e.From] = insertSorted(g.outgoing[e.From], e.To)
	g.incoming[e.To] = insertSorted(g.incoming[e.To], e.From)
	return nil
}

func insertSorted(list []domain.VertexKey, k domain.VertexKey) []domain.VertexKey {
	i, _ := slices.BinarySearchFunc(list, k, domain.VertexKey.Compare)
	return slices.Insert(list, i, k)
}

// HasNode reports whether the key is a node of the graph.
func (g *Graph) HasNode(k domain.VertexKey) bool {
	_, ok := g.nodes[k]
	return ok
}

// Node returns the vertex stored under the key.
func (g *Graph) Node(k domain.VertexKey) (domain.Vertex, bool) {
	v, ok := g.nodes[k]
	return v, ok
}

// Edge returns the edge between two nodes.
func (g *Graph) Edge(from, to domain.VertexKey) (domain.Edge, bool) {
	e, ok := g.edges[edgeKey{From: from, To: to}]
	return e, ok
}

// Successors returns the downstream neighbours of a node in canonical
// order. The slice is owned by the graph and must not be modified.
func (g *Graph) Successors(k domain.VertexKey) []domain.VertexKey {
	return g.outgoing[k]
}

// Predecessors returns the upstream neighbours of a node in canonical
// order. The slice is owned by the graph and must not be modified.
func (g *Graph) Predecessors(k domain.VertexKey) []domain.VertexKey {
	return g.incoming[k]
}

func (g *Graph) InDegree(k domain.VertexKey) int  { return len(g.incoming[k]) }
func (g *Graph) OutDegree(k domain.VertexKey) int { return len(g.outgoing[k]) }

func (g *Graph) NodeCount() int { return len(g.nodes) }
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Keys returns every node key in canonical order.
func (g *Graph) Keys() []domain.VertexKey {
	keys := make([]domain.VertexKey, 0, len(g.nodes))
	for k := range g.nodes {
		keys = append(keys, k)
	}
	domain.SortKeys(keys)
	return keys
}

// Nodes returns every vertex in canonical key order.
func (g *Graph) Nodes() []domain.Vertex {
	keys := g.Keys()
	out := make([]domain.Vertex, len(keys))
	for i, k := range keys {
		out[i] = g.nodes[k]
	}
	return out
}

// Edges returns every edge ordered by upstream key, then downstream key.
func (g *Graph) Edges() []domain.Edge {
	out := make([]domain.Edge, 0, len(g.edges))
	for _, from := range g.Keys() {
		for _, to := range g.outgoing[from] {
			out = append(out, g.edges[edgeKey{From: from, To: to}])
		}
	}
	return out
}

// Vertices copies the node set into a vertex map.
func (g *Graph) Vertices() domain.VertexMap {
	m := make(domain.VertexMap, len(g.nodes))
	for k, v := range g.nodes {
		m[k] = v
	}
	return m
}

// Subgraph returns the induced subgraph on the nodes accepted by keep:
// retained nodes and every edge whose endpoints are both retained. The
// receiver is not modified.
func (g *Graph) Subgraph(keep func(domain.Vertex) bool) *Graph {
	sub := New()
	for k, v := range g.nodes {
		if keep(v) {
			sub.nodes[k] = v
		}
	}
	for _, e := range g.Edges() {
		if sub.HasNode(e.From) && sub.HasNode(e.To) {
			// Endpoints exist and edges are unique in g, so this cannot fail.
			_ = sub.AddEdge(e)
		}
	}
	return sub
}

// Equal reports whether both graphs have the same nodes and edges.
func (g *Graph) Equal(o *Graph) bool {
	if g.NodeCount() != o.NodeCount() || g.EdgeCount() != o.EdgeCount() {
		return false
	}
	for k, v := range g.nodes {
		if ov, ok := o.nodes[k]; !ok || ov != v {
			return false
		}
	}
	for k, e := range g.edges {
		if oe, ok := o.edges[k]; !ok || oe != e {
			return false
		}
	}
	return true
}

// Extent returns the river-km and date bounds of the nodes. It is the
// default filter range for a graph reloaded without its catalog.
func (g *Graph) Extent() domain.Extent {
	var e domain.Extent
	first := true
	for _, v := range g.nodes {
		if first || v.RiverKm < e.LowerStation {
			e.LowerStation = v.RiverKm
		}
		if first || v.RiverKm > e.UpperStation {
			e.UpperStation = v.RiverKm
		}
		if first || v.Key.Date < e.StartDate {
			e.StartDate = v.Key.Date
		}
		if first || v.Key.Date > e.EndDate {
			e.EndDate = v.Key.Date
		}
		first = false
	}
	return e
}
