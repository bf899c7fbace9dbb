package routing

import (
	"fmt"

	"ch_router/pkg/graph"
)

// unpackPath expands every shortcut hop of an overlay path into the original
// vertices it bypasses.
func unpackPath(g *graph.Graph, overlay []uint32) ([]uint32, error) {
	if len(overlay) < 2 {
		return overlay, nil
	}

	result := []uint32{overlay[0]}
	for i := 0; i < len(overlay)-1; i++ {
		hop, err := unpackHop(g, overlay[i], overlay[i+1])
		if err != nil {
			return nil, err
		}
		// Skip first node (already in result) to avoid duplication.
		result = append(result, hop[1:]...)
	}
	return result, nil
}

// unpackHop iteratively unpacks a single overlay hop from→to into a sequence
// of original-graph nodes. Uses an explicit stack to avoid recursion.
func unpackHop(g *graph.Graph, from, to uint32) ([]uint32, error) {
	type item struct{ from, to uint32 }

	stack := []item{{from, to}}
	result := []uint32{from}

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		e, ok := g.FindEdge(it.from, it.to)
		if !ok {
			return nil, fmt.Errorf("unpack: no edge %d->%d in overlay", it.from, it.to)
		}
		if e.Via == graph.NoVia {
			result = append(result, it.to)
			continue
		}

		m := uint32(e.Via)
		// Push right half first (m→to), then left half (from→m),
		// so left is processed first (LIFO).
		stack = append(stack, item{m, it.to}, item{it.from, m})
	}

	return result, nil
}
