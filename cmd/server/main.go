package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/DmitriyVTitov/size"
	"github.com/dustin/go-humanize"

	"ch_router/pkg/api"
	"ch_router/pkg/config"
	"ch_router/pkg/graph"
	"ch_router/pkg/routing"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML or YAML config file (optional)")
	graphPath := flag.String("graph", "graph.bin", "Path to preprocessed graph binary")
	addr := flag.String("addr", "", "Listen address, overrides server.addr")
	corsOrigin := flag.String("cors-origin", "", "CORS allowed origin, overrides server.cors_origin")
	printConfig := flag.Bool("print-config", false, "Print the effective config as TOML and exit")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *corsOrigin != "" {
		cfg.Server.CORSOrigin = *corsOrigin
	}
	if *printConfig {
		if err := cfg.Write(os.Stdout); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		return
	}
	cfg.Log.SetLogger()

	start := time.Now()

	log.Printf("Loading graph from %s...", *graphPath)
	rg, err := graph.ReadBinary(*graphPath)
	if err != nil {
		log.Fatalf("Failed to load graph: %v", err)
	}
	log.Printf("Loaded: %s nodes, %s edges (%s shortcuts), ~%s in memory",
		humanize.Comma(int64(rg.NumNodes)), humanize.Comma(int64(rg.NumEdges())),
		humanize.Comma(int64(rg.NumShortcuts)), humanize.Bytes(uint64(size.Of(rg))))

	engine := routing.NewEngine(rg, nil)
	engine.SetWorkers(cfg.Server.Workers)
	if cfg.Server.CacheSize > 0 {
		engine.EnableCache(cfg.Server.CacheSize << 20)
		log.Printf("Created distance cache of ~ %d MB", cfg.Server.CacheSize)
	}
	log.Printf("Ready in %s", time.Since(start).Round(time.Millisecond))

	stats := api.StatsResponse{
		NumNodes:     rg.NumNodes,
		NumEdges:     rg.NumEdges(),
		NumShortcuts: rg.NumShortcuts,
		HasCoords:    rg.HasCoords(),
		Geographic:   rg.Geographic,
	}
	handlers := api.NewHandlers(engine, stats, cfg.Server.MaxMatrixSize)
	srv := api.NewServer(cfg.Server, handlers)

	if err := api.ListenAndServe(srv); err != nil {
		log.Printf("Server stopped: %v", err)
		os.Exit(1)
	}
}
