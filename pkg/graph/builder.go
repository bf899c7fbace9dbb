package graph

import "fmt"

// EdgeSpec is an input edge for Build. Vertices are 0-indexed.
type EdgeSpec struct {
	From, To uint32
	Cost     int64
}

// Build creates a graph with n vertices from an edge list and optional
// coordinates (nil or len n). Any invalid edge fails the whole build.
func Build(n uint32, edges []EdgeSpec, coords []Coord) (*Graph, error) {
	if coords != nil && uint32(len(coords)) != n {
		return nil, fmt.Errorf("got %d coordinates for %d vertices", len(coords), n)
	}

	g := New(n)
	for i, e := range edges {
		if err := g.AddEdge(e.From, e.To, e.Cost); err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
	}

	if coords != nil {
		g.coords = make([]Coord, n)
		copy(g.coords, coords)
	}

	return g, nil
}

// MustBuild is like Build but panics on error. Intended for tests and
// literal graphs.
func MustBuild(n uint32, edges []EdgeSpec, coords []Coord) *Graph {
	g, err := Build(n, edges, coords)
	if err != nil {
		panic(err)
	}
	return g
}
