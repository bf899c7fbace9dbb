// Package osm imports car-drivable road networks from OpenStreetMap PBF
// extracts.
package osm

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"ch_router/pkg/geo"
)

// RawEdge is a directed road segment between two OSM nodes.
type RawEdge struct {
	FromNodeID osm.NodeID
	ToNodeID   osm.NodeID
	Cost       int64 // length in millimetres, at least 1
}

// ParseResult holds the road segments and the coordinates of every node they
// reference.
type ParseResult struct {
	Edges   []RawEdge
	NodeLat map[osm.NodeID]float64
	NodeLon map[osm.NodeID]float64
}

var carHighways = map[string]bool{
	"motorway":       true,
	"motorway_link":  true,
	"trunk":          true,
	"trunk_link":     true,
	"primary":        true,
	"primary_link":   true,
	"secondary":      true,
	"secondary_link": true,
	"tertiary":       true,
	"tertiary_link":  true,
	"unclassified":   true,
	"residential":    true,
	"living_street":  true,
	"service":        true,
}

func isCarAccessible(tags osm.Tags) bool {
	if !carHighways[tags.Find("highway")] {
		return false
	}
	if tags.Find("area") == "yes" {
		return false
	}
	switch tags.Find("access") {
	case "no", "private":
		return false
	}
	return tags.Find("motor_vehicle") != "no"
}

// directionFlags returns which way along the node list traffic may flow.
func directionFlags(tags osm.Tags) (forward, backward bool) {
	forward, backward = true, true

	hw := tags.Find("highway")
	if hw == "motorway" || hw == "motorway_link" || tags.Find("junction") == "roundabout" {
		backward = false
	}

	switch tags.Find("oneway") {
	case "yes", "true", "1":
		forward, backward = true, false
	case "-1", "reverse":
		forward, backward = false, true
	case "no":
		forward, backward = true, true
	case "reversible":
		// Time-dependent; not routable on a static graph.
		forward, backward = false, false
	}
	return forward, backward
}

type wayInfo struct {
	NodeIDs  []osm.NodeID
	Forward  bool
	Backward bool
}

// BBox restricts an import to segments with both endpoints inside it.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

func (b BBox) IsZero() bool {
	return b == BBox{}
}

func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// ParseOptions configures Parse.
type ParseOptions struct {
	BBox BBox
}

// Parse reads a PBF extract in two passes: ways first, then the coordinates
// of the nodes those ways reference. rs is rewound between passes.
func Parse(ctx context.Context, rs io.ReadSeeker, opt ParseOptions) (*ParseResult, error) {
	referenced := make(map[osm.NodeID]struct{})
	var ways []wayInfo

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok || len(w.Nodes) < 2 || !isCarAccessible(w.Tags) {
			continue
		}
		fwd, bwd := directionFlags(w.Tags)
		if !fwd && !bwd {
			continue
		}

		ids := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			ids[i] = wn.ID
			referenced[wn.ID] = struct{}{}
		}
		ways = append(ways, wayInfo{NodeIDs: ids, Forward: fwd, Backward: bwd})
	}
	err := scanner.Err()
	scanner.Close()
	if err != nil {
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	log.Printf("Pass 1 complete: %d ways, %d referenced nodes", len(ways), len(referenced))

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	res := &ParseResult{
		NodeLat: make(map[osm.NodeID]float64, len(referenced)),
		NodeLon: make(map[osm.NodeID]float64, len(referenced)),
	}

	scanner = osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referenced[n.ID]; !needed {
			continue
		}
		res.NodeLat[n.ID] = n.Lat
		res.NodeLon[n.ID] = n.Lon
	}
	err = scanner.Err()
	scanner.Close()
	if err != nil {
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	log.Printf("Pass 2 complete: %d node coordinates collected", len(res.NodeLat))

	res.Edges = buildEdges(ways, res.NodeLat, res.NodeLon, opt.BBox)
	log.Printf("Built %d directed edges", len(res.Edges))
	return res, nil
}

// buildEdges splits ways into directed segments weighted by haversine
// length.
func buildEdges(ways []wayInfo, lat, lon map[osm.NodeID]float64, box BBox) []RawEdge {
	var edges []RawEdge
	var missing, outside int

	for _, w := range ways {
		for i := 0; i+1 < len(w.NodeIDs); i++ {
			from, to := w.NodeIDs[i], w.NodeIDs[i+1]
			fromLat, okFrom := lat[from]
			toLat, okTo := lat[to]
			if !okFrom || !okTo {
				missing++
				continue
			}
			fromLon, toLon := lon[from], lon[to]

			if !box.IsZero() && (!box.Contains(fromLat, fromLon) || !box.Contains(toLat, toLon)) {
				outside++
				continue
			}

			cost := int64(math.Round(geo.Haversine(fromLat, fromLon, toLat, toLon) * 1000))
			if cost == 0 {
				cost = 1
			}
			if w.Forward {
				edges = append(edges, RawEdge{FromNodeID: from, ToNodeID: to, Cost: cost})
			}
			if w.Backward {
				edges = append(edges, RawEdge{FromNodeID: to, ToNodeID: from, Cost: cost})
			}
		}
	}

	if missing > 0 {
		log.Printf("Warning: skipped %d edges due to missing node coordinates", missing)
	}
	if outside > 0 {
		log.Printf("Filtered %d edges outside bounding box", outside)
	}
	return edges
}
