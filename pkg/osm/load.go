package osm

import (
	"errors"
	"fmt"
	"slices"

	"github.com/paulmach/osm"

	"ch_router/pkg/graph"
)

// ErrEmptyNetwork is returned by ToGraph when no drivable segment survived
// filtering.
var ErrEmptyNetwork = errors.New("no routable edges")

// ToGraph assigns dense vertex ids to the OSM nodes used by res.Edges, in
// ascending OSM id order, and builds a geographic graph (X = lon, Y = lat).
// ids[v] is the OSM node of vertex v.
func ToGraph(res *ParseResult) (g *graph.Graph, ids []osm.NodeID, err error) {
	if len(res.Edges) == 0 {
		return nil, nil, ErrEmptyNetwork
	}

	seen := make(map[osm.NodeID]struct{}, len(res.NodeLat))
	for _, e := range res.Edges {
		seen[e.FromNodeID] = struct{}{}
		seen[e.ToNodeID] = struct{}{}
	}
	ids = make([]osm.NodeID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	index := make(map[osm.NodeID]uint32, len(ids))
	coords := make([]graph.Coord, len(ids))
	for v, id := range ids {
		index[id] = uint32(v)
		coords[v] = graph.Coord{X: res.NodeLon[id], Y: res.NodeLat[id]}
	}

	specs := make([]graph.EdgeSpec, len(res.Edges))
	for i, e := range res.Edges {
		specs[i] = graph.EdgeSpec{From: index[e.FromNodeID], To: index[e.ToNodeID], Cost: e.Cost}
	}

	g, err = graph.Build(uint32(len(ids)), specs, coords)
	if err != nil {
		return nil, nil, fmt.Errorf("build graph: %w", err)
	}
	g.Geographic = true
	return g, ids, nil
}
