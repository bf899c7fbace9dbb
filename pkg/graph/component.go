package graph

// UnionFind implements a disjoint-set data structure with path compression
// and union by rank.
type UnionFind struct {
	parent []uint32
	rank   []byte // union by rank keeps this below 32
	size   []uint32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	parent := make([]uint32, n)
	size := make([]uint32, n)
	for i := range n {
		parent[i] = i
		size[i] = 1
	}
	return &UnionFind{
		parent: parent,
		rank:   make([]byte, n),
		size:   size,
	}
}

// Find returns the representative of the set containing x, with path halving.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx := uf.Find(x)
	ry := uf.Find(y)
	if rx == ry {
		return false
	}

	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
	return true
}

// Size returns the number of elements in x's set.
func (uf *UnionFind) Size(x uint32) uint32 {
	return uf.size[uf.Find(x)]
}

func weakUnion(g *Graph) *UnionFind {
	uf := NewUnionFind(g.NumNodes)
	for u := uint32(0); u < g.NumNodes; u++ {
		for _, e := range g.out[u] {
			uf.Union(u, e.To)
		}
	}
	return uf
}

// WeakComponents labels every vertex with the representative of its weakly
// connected component. Two vertices with different labels are mutually
// unreachable.
func WeakComponents(g *Graph) []uint32 {
	uf := weakUnion(g)
	labels := make([]uint32, g.NumNodes)
	for v := range labels {
		labels[v] = uf.Find(uint32(v))
	}
	return labels
}

// LargestComponent returns the vertices of the largest weakly connected
// component, in increasing order.
func LargestComponent(g *Graph) []uint32 {
	if g.NumNodes == 0 {
		return nil
	}

	uf := weakUnion(g)

	bestRoot := uint32(0)
	bestSize := uint32(0)
	for i := uint32(0); i < g.NumNodes; i++ {
		root := uf.Find(i)
		if uf.size[root] > bestSize {
			bestRoot = root
			bestSize = uf.size[root]
		}
	}

	nodes := make([]uint32, 0, bestSize)
	for i := uint32(0); i < g.NumNodes; i++ {
		if uf.Find(i) == bestRoot {
			nodes = append(nodes, i)
		}
	}
	return nodes
}

// FilterToComponent returns the subgraph induced by nodes. New vertex i is
// old vertex nodes[i]. Every kept edge becomes an original edge.
func FilterToComponent(g *Graph, nodes []uint32) *Graph {
	if len(nodes) == 0 {
		return New(0)
	}

	oldToNew := make(map[uint32]uint32, len(nodes))
	for newIdx, oldIdx := range nodes {
		oldToNew[oldIdx] = uint32(newIdx)
	}

	sub := New(uint32(len(nodes)))
	sub.Geographic = g.Geographic
	for newU, oldU := range nodes {
		for _, e := range g.out[oldU] {
			if newV, ok := oldToNew[e.To]; ok {
				sub.addDirected(uint32(newU), newV, e.Cost, NoVia)
			}
		}
	}

	if g.coords != nil {
		sub.coords = make([]Coord, len(nodes))
		for newIdx, oldIdx := range nodes {
			sub.coords[newIdx] = g.coords[oldIdx]
		}
	}
	return sub
}
