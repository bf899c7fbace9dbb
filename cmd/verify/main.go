package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"ch_router/pkg/graph"
	"ch_router/pkg/routing"
)

// methodStats accumulates per-method query results.
type methodStats struct {
	Method     routing.Method
	Queries    int
	Mismatches int
	Touched    int
	Elapsed    time.Duration
}

type report struct {
	Pairs       int
	Unreachable int
	Methods     []methodStats
}

func main() {
	graphPath := flag.String("graph", "graph.bin", "Path to preprocessed graph binary")
	pairs := flag.Int("pairs", 1000, "Number of random query pairs")
	seed := flag.Int64("seed", 1, "Random seed")
	withDijkstra := flag.Bool("dijkstra", false, "Also run unidirectional Dijkstra (slow on large graphs)")
	flag.Parse()

	rg, err := graph.ReadBinary(*graphPath)
	if err != nil {
		log.Fatalf("Failed to load graph: %v", err)
	}
	if rg.NumNodes == 0 {
		log.Fatalf("Graph %s is empty", *graphPath)
	}
	log.Printf("Loaded: %d nodes, %d edges", rg.NumNodes, rg.NumEdges())

	methods := []routing.Method{routing.MethodBidirectional, routing.MethodAStar}
	if *withDijkstra {
		methods = append(methods, routing.MethodDijkstra)
	}

	eng := routing.NewEngine(rg, nil)
	rep, err := verify(context.Background(), eng, randomPairs(rand.New(rand.NewSource(*seed)), rg.NumNodes, *pairs), methods)
	if err != nil {
		log.Fatalf("Verify: %v", err)
	}

	fmt.Printf("%d pairs, %d unreachable\n", rep.Pairs, rep.Unreachable)
	failed := false
	for _, m := range rep.Methods {
		avg := time.Duration(0)
		if m.Queries > 0 {
			avg = m.Elapsed / time.Duration(m.Queries)
		}
		fmt.Printf("%-14s avg %-10s touched/query %-8d mismatches %d\n",
			m.Method, avg.Round(time.Microsecond), m.Touched/max(m.Queries, 1), m.Mismatches)
		if m.Mismatches > 0 && m.Method != routing.MethodAStar {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func randomPairs(rng *rand.Rand, n uint32, count int) [][2]uint32 {
	out := make([][2]uint32, count)
	for i := range out {
		out[i] = [2]uint32{uint32(rng.Intn(int(n))), uint32(rng.Intn(int(n)))}
	}
	return out
}

// verify runs every pair through CH and each reference method. Methods[0]
// of the report is CH; a reference mismatch counts against the reference
// method. The A* entry counts a mismatch only when it under-reports, since
// its heuristic is not guaranteed consistent.
func verify(ctx context.Context, eng *routing.Engine, pairs [][2]uint32, methods []routing.Method) (report, error) {
	rep := report{Pairs: len(pairs), Methods: make([]methodStats, len(methods)+1)}
	rep.Methods[0].Method = routing.MethodCH
	for i, m := range methods {
		rep.Methods[i+1].Method = m
	}

	for _, p := range pairs {
		want, err := timed(ctx, eng, p, &rep.Methods[0])
		if err != nil {
			return report{}, err
		}
		if !want.Reachable {
			rep.Unreachable++
		}

		for i := range methods {
			st := &rep.Methods[i+1]
			got, err := timed(ctx, eng, p, st)
			if err != nil {
				return report{}, err
			}
			if mismatch(st.Method, want.Distance, got.Distance) {
				st.Mismatches++
				log.Printf("%v mismatch %d->%d: ch=%d %v=%d", st.Method, p[0], p[1], want.Distance, st.Method, got.Distance)
			}
		}
	}
	return rep, nil
}

func timed(ctx context.Context, eng *routing.Engine, p [2]uint32, st *methodStats) (routing.Result, error) {
	start := time.Now()
	res, err := eng.Distance(ctx, p[0], p[1], st.Method)
	st.Elapsed += time.Since(start)
	if err != nil {
		return routing.Result{}, fmt.Errorf("%v %d->%d: %w", st.Method, p[0], p[1], err)
	}
	st.Queries++
	st.Touched += res.Touched
	return res, nil
}

func mismatch(m routing.Method, want, got int64) bool {
	if m != routing.MethodAStar || want == routing.Unreachable || got == routing.Unreachable {
		return want != got
	}
	return got < want
}
