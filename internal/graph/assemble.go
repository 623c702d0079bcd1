package graph

import "github.com/couchcryptid/flood-wave-graph/internal/domain"

// Assemble builds the wave graph from the candidate edges of every station
// pair. Only edge endpoints become nodes, so a vertex without edges never
// appears. Every endpoint must be present in vertices.
func Assemble(edges []domain.Edge, vertices domain.VertexMap) (*Graph, error) {
	g := New()
	for i := range edges {
		e := edges[i]
		from, ok := vertices[e.From]
		if !ok {
			return nil, &domain.StructuralError{Edge: &e, Reason: "upstream vertex was not detected"}
		}
		to, ok := vertices[e.To]
		if !ok {
			return nil, &domain.StructuralError{Edge: &e, Reason: "downstream vertex was not detected"}
		}
		if err := g.AddNode(from); err != nil {
			return nil, err
		}
		if err := g.AddNode(to); err != nil {
			return nil, err
		}
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
	}
	return g, nil
}
