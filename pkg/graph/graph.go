package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrVertexOutOfRange is returned when an edge references a vertex >= NumNodes.
	ErrVertexOutOfRange = errors.New("vertex out of range")
	// ErrNegativeCost is returned for edges with cost < 0.
	ErrNegativeCost = errors.New("negative edge cost")
)

// NoVia marks an original (non-shortcut) edge.
const NoVia int32 = -1

// Direction selects the outgoing or incoming adjacency of a vertex.
type Direction uint8

const (
	Forward  Direction = iota // outgoing edges
	Backward                  // incoming edges
)

// Opposite returns the other search direction.
func (d Direction) Opposite() Direction {
	return 1 - d
}

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}

// Edge is one adjacency entry. In the outgoing list To is the head of the
// edge; in the incoming list To is its tail.
type Edge struct {
	To   uint32
	Cost int64
	Via  int32 // NoVia for original edges, else the contracted vertex
}

// Coord is a per-vertex 2D position used by the A* heuristic.
type Coord struct {
	X, Y float64
}

// Graph is a simple weighted digraph stored as forward and reverse adjacency
// lists. Parallel edges collapse to the cheapest one on insertion.
type Graph struct {
	NumNodes uint32

	out [][]Edge
	in  [][]Edge

	coords []Coord // nil when the graph has no coordinates
	// Geographic means coords hold (X=lon, Y=lat) degrees instead of planar units.
	Geographic bool
}

// New creates an empty graph with n vertices.
func New(n uint32) *Graph {
	return &Graph{
		NumNodes: n,
		out:      make([][]Edge, n),
		in:       make([][]Edge, n),
	}
}

// AddEdge inserts the directed edge u→v. If the edge already exists the lower
// cost is kept.
func (g *Graph) AddEdge(u, v uint32, cost int64) error {
	if u >= g.NumNodes || v >= g.NumNodes {
		return fmt.Errorf("edge %d->%d with %d vertices: %w", u, v, g.NumNodes, ErrVertexOutOfRange)
	}
	if cost < 0 {
		return fmt.Errorf("edge %d->%d cost %d: %w", u, v, cost, ErrNegativeCost)
	}
	g.addDirected(u, v, cost, NoVia)
	return nil
}

// AddShortcut inserts u→v as a shortcut through via and reports whether the
// adjacency changed. Callers guarantee that u and v are in range and cost is
// non-negative.
func (g *Graph) AddShortcut(u, v uint32, cost int64, via uint32) bool {
	return g.addDirected(u, v, cost, int32(via))
}

// addDirected reports whether the adjacency changed.
func (g *Graph) addDirected(u, v uint32, cost int64, via int32) bool {
	if !upsert(&g.out[u], v, cost, via) {
		return false
	}
	upsert(&g.in[v], u, cost, via)
	return true
}

// upsert adds (to, cost) to list or lowers the cost of an existing entry.
func upsert(list *[]Edge, to uint32, cost int64, via int32) bool {
	for i := range *list {
		e := &(*list)[i]
		if e.To != to {
			continue
		}
		if cost < e.Cost {
			e.Cost = cost
			e.Via = via
			return true
		}
		return false
	}
	*list = append(*list, Edge{To: to, Cost: cost, Via: via})
	return true
}

// Adjacent returns the outgoing (Forward) or incoming (Backward) edges of v.
// The returned slice must not be modified.
func (g *Graph) Adjacent(v uint32, dir Direction) []Edge {
	if dir == Forward {
		return g.out[v]
	}
	return g.in[v]
}

// FindEdge returns the u→v edge, if present.
func (g *Graph) FindEdge(u, v uint32) (Edge, bool) {
	for _, e := range g.out[u] {
		if e.To == v {
			return e, true
		}
	}
	return Edge{}, false
}

// NumEdges returns the number of distinct directed edges.
func (g *Graph) NumEdges() int {
	n := 0
	for _, l := range g.out {
		n += len(l)
	}
	return n
}

// SetCoord assigns a coordinate to v, allocating the coordinate table on first use.
func (g *Graph) SetCoord(v uint32, c Coord) error {
	if v >= g.NumNodes {
		return fmt.Errorf("coordinate for vertex %d: %w", v, ErrVertexOutOfRange)
	}
	if g.coords == nil {
		g.coords = make([]Coord, g.NumNodes)
	}
	g.coords[v] = c
	return nil
}

// HasCoords reports whether coordinates were supplied.
func (g *Graph) HasCoords() bool {
	return g.coords != nil
}

// Coord returns the coordinate of v (zero if the graph has none).
func (g *Graph) Coord(v uint32) Coord {
	if g.coords == nil {
		return Coord{}
	}
	return g.coords[v]
}

// Clone returns a deep copy of g.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		NumNodes:   g.NumNodes,
		out:        make([][]Edge, g.NumNodes),
		in:         make([][]Edge, g.NumNodes),
		Geographic: g.Geographic,
	}
	for v := range g.out {
		c.out[v] = append([]Edge(nil), g.out[v]...)
		c.in[v] = append([]Edge(nil), g.in[v]...)
	}
	if g.coords != nil {
		c.coords = append([]Coord(nil), g.coords...)
	}
	return c
}

// Shortcut records an edge inserted while contracting Via.
type Shortcut struct {
	From, To uint32
	Via      uint32
	Cost     int64
}

// RankedGraph is the output of contraction: the augmented store (original
// edges plus shortcuts) and the contraction order.
type RankedGraph struct {
	*Graph

	Rank  []uint32 // permutation of [0, NumNodes)
	Level []int32

	// Shortcuts lists inserted shortcuts in insertion order when the
	// contractor was asked to record them; otherwise it is nil, as after
	// ReadBinary.
	Shortcuts []Shortcut
	// NumShortcuts counts augmented edges that carry a via vertex.
	NumShortcuts uint32
}

// Upward reports whether the edge v→to (in either search direction) leads to
// a higher-ranked vertex.
func (rg *RankedGraph) Upward(v, to uint32) bool {
	return rg.Rank[to] > rg.Rank[v]
}

// CheckRanks verifies that Rank is a permutation of [0, NumNodes).
func (rg *RankedGraph) CheckRanks() error {
	if uint32(len(rg.Rank)) != rg.NumNodes {
		return fmt.Errorf("rank length %d != NumNodes %d", len(rg.Rank), rg.NumNodes)
	}
	seen := make([]bool, rg.NumNodes)
	for v, r := range rg.Rank {
		if r >= rg.NumNodes {
			return fmt.Errorf("rank[%d]=%d >= NumNodes=%d", v, r, rg.NumNodes)
		}
		if seen[r] {
			return fmt.Errorf("rank %d assigned twice", r)
		}
		seen[r] = true
	}
	return nil
}
