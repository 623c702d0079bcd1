package graph

import (
	"slices"

	"github.com/couchcryptid/flood-wave-graph/internal/domain"
)

// WeakComponents returns the weakly connected components of g. Each
// component is sorted in canonical key order and components are ordered by
// their smallest key.
func WeakComponents(g *Graph) [][]domain.VertexKey {
	visited := make(map[domain.VertexKey]bool, g.NodeCount())
	var components [][]domain.VertexKey

	// Keys are visited in canonical order, so each new component starts at
	// its smallest key and components come out already ordered.
	for _, start := range g.Keys() {
		if visited[start] {
			continue
		}
		component := []domain.VertexKey{start}
		visited[start] = true
		queue := []domain.VertexKey{start}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			for _, next := range slices.Concat(g.outgoing[current], g.incoming[current]) {
				if !visited[next] {
					visited[next] = true
					component = append(component, next)
					queue = append(queue, next)
				}
			}
		}
		domain.SortKeys(component)
		components = append(components, component)
	}
	return components
}

// distancesTo runs a reverse BFS from sink and returns the number of edges
// on a shortest path from every node that can reach it.
func distancesTo(g *Graph, sink domain.VertexKey) map[domain.VertexKey]int {
	dist := map[domain.VertexKey]int{sink: 0}
	queue := []domain.VertexKey{sink}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, prev := range g.incoming[current] {
			if _, seen := dist[prev]; !seen {
				dist[prev] = dist[current] + 1
				queue = append(queue, prev)
			}
		}
	}
	return dist
}

// ShortestPath returns the lexicographically smallest of the minimum-edge
// paths from source to sink, or false when sink is unreachable.
func ShortestPath(g *Graph, source, sink domain.VertexKey) (domain.Wave, bool) {
	return shortestPath(g, source, distancesTo(g, sink))
}

// AllShortestPaths returns every minimum-edge path from source to sink in
// lexicographic order. It returns nil when sink is unreachable.
func AllShortestPaths(g *Graph, source, sink domain.VertexKey) []domain.Wave {
	return allShortestPaths(g, source, distancesTo(g, sink))
}

// shortestPath walks from source along successors that stay on a
// shortest path to the sink, always taking the smallest such successor.
// Successors are sorted, so the first admissible one is the smallest.
func shortestPath(g *Graph, source domain.VertexKey, distTo map[domain.VertexKey]int) (domain.Wave, bool) {
	remaining, ok := distTo[source]
	if !ok {
		return nil, false
	}
	path := make(domain.Wave, 0, remaining+1)
	path = append(path, source)
	current := source
	for remaining > 0 {
		for _, next := range g.outgoing[current] {
			if d, ok := distTo[next]; ok && d == remaining-1 {
				current = next
				break
			}
		}
		path = append(path, current)
		remaining--
	}
	return path, true
}

func allShortestPaths(g *Graph, source domain.VertexKey, distTo map[domain.VertexKey]int) []domain.Wave {
	length, ok := distTo[source]
	if !ok {
		return nil
	}

	var (
		paths []domain.Wave
		path  = make(domain.Wave, 0, length+1)
		walk  func(current domain.VertexKey)
	)
	walk = func(current domain.VertexKey) {
		path = append(path, current)
		defer func() { path = path[:len(path)-1] }()

		remaining := distTo[current]
		if remaining == 0 {
			paths = append(paths, slices.Clone(path))
			return
		}
		for _, next := range g.outgoing[current] {
			if d, ok := distTo[next]; ok && d == remaining-1 {
				walk(next)
			}
		}
	}
	walk(source)
	return paths
}
