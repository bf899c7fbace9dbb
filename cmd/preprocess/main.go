package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"ch_router/pkg/ch"
	"ch_router/pkg/graph"
	osmparser "ch_router/pkg/osm"
)

func main() {
	input := flag.String("input", "", "Path to .osm.pbf file")
	output := flag.String("output", "graph.bin", "Output binary graph file path")
	bbox := flag.String("bbox", "", "Bounding box filter: minLat,minLng,maxLat,maxLng (e.g. 1.15,103.6,1.48,104.1)")
	largest := flag.Bool("largest-component", true, "Keep only the largest weakly connected component")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: preprocess -input <file.osm.pbf> [-output graph.bin] [-bbox minLat,minLng,maxLat,maxLng] [-largest-component=false]")
		os.Exit(1)
	}

	var opts osmparser.ParseOptions
	if *bbox != "" {
		var minLat, minLng, maxLat, maxLng float64
		if _, err := fmt.Sscanf(*bbox, "%f,%f,%f,%f", &minLat, &minLng, &maxLat, &maxLng); err != nil {
			log.Fatalf("Invalid bbox format (expected minLat,minLng,maxLat,maxLng): %v", err)
		}
		opts.BBox = osmparser.BBox{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}
		log.Printf("Using bounding box filter: lat [%.4f, %.4f], lng [%.4f, %.4f]", minLat, maxLat, minLng, maxLng)
	}

	start := time.Now()

	f, err := os.Open(*input)
	if err != nil {
		log.Fatalf("Failed to open input file: %v", err)
	}
	defer f.Close()

	log.Println("Parsing OSM data...")
	parsed, err := osmparser.Parse(context.Background(), f, opts)
	if err != nil {
		log.Fatalf("Failed to parse OSM data: %v", err)
	}

	g, _, err := osmparser.ToGraph(parsed)
	if err != nil {
		log.Fatalf("Failed to build graph: %v", err)
	}
	log.Printf("Graph: %s nodes, %s edges", humanize.Comma(int64(g.NumNodes)), humanize.Comma(int64(g.NumEdges())))

	if *largest {
		nodes := graph.LargestComponent(g)
		log.Printf("Largest component: %d nodes (%.1f%%)", len(nodes), float64(len(nodes))/float64(g.NumNodes)*100)
		g = graph.FilterToComponent(g, nodes)
		log.Printf("Filtered graph: %d nodes, %d edges", g.NumNodes, g.NumEdges())
	}

	rg := ch.Contract(g)

	log.Printf("Writing binary to %s...", *output)
	if err := graph.WriteBinary(*output, rg); err != nil {
		log.Fatalf("Failed to write binary: %v", err)
	}

	info, err := os.Stat(*output)
	if err != nil {
		log.Fatalf("Stat output: %v", err)
	}
	log.Printf("Done in %s. Output: %s (%s)", time.Since(start).Round(time.Second), *output, humanize.Bytes(uint64(info.Size())))
}
