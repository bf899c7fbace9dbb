package routing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ch_router/pkg/graph"
)

// pathCost sums the edge costs along path, failing if a hop has no edge.
func pathCost(t testing.TB, g *graph.Graph, path []uint32) int64 {
	t.Helper()
	var total int64
	for i := 0; i+1 < len(path); i++ {
		e, ok := g.FindEdge(path[i], path[i+1])
		require.True(t, ok, "no edge %d->%d", path[i], path[i+1])
		total += e.Cost
	}
	return total
}
