package graph

import (
	"errors"
	"testing"
)

func TestBuildBasic(t *testing.T) {
	g, err := Build(3, []EdgeSpec{
		{From: 0, To: 1, Cost: 1},
		{From: 1, To: 2, Cost: 2},
		{From: 0, To: 2, Cost: 5},
	}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if g.NumNodes != 3 {
		t.Errorf("NumNodes = %d, want 3", g.NumNodes)
	}
	if g.NumEdges() != 3 {
		t.Errorf("NumEdges = %d, want 3", g.NumEdges())
	}
	if g.HasCoords() {
		t.Error("graph without coordinates reports HasCoords")
	}

	out := g.Adjacent(0, Forward)
	if len(out) != 2 {
		t.Fatalf("out(0) has %d edges, want 2", len(out))
	}
	in := g.Adjacent(2, Backward)
	if len(in) != 2 {
		t.Fatalf("in(2) has %d edges, want 2", len(in))
	}
	for _, e := range in {
		if e.To != 0 && e.To != 1 {
			t.Errorf("in(2) contains tail %d", e.To)
		}
		if e.Via != NoVia {
			t.Errorf("original edge has Via=%d", e.Via)
		}
	}
}

func TestAddEdgeKeepsMinimumCost(t *testing.T) {
	tests := []struct {
		name  string
		costs []int64
		want  int64
	}{
		{"lower second", []int64{7, 3}, 3},
		{"higher second", []int64{3, 7}, 3},
		{"equal", []int64{4, 4}, 4},
		{"three inserts", []int64{9, 2, 5}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(2)
			for _, c := range tt.costs {
				if err := g.AddEdge(0, 1, c); err != nil {
					t.Fatalf("AddEdge: %v", err)
				}
			}
			if g.NumEdges() != 1 {
				t.Fatalf("NumEdges = %d, want 1", g.NumEdges())
			}
			e, ok := g.FindEdge(0, 1)
			if !ok || e.Cost != tt.want {
				t.Errorf("out cost = %d (found=%v), want %d", e.Cost, ok, tt.want)
			}
			in := g.Adjacent(1, Backward)
			if len(in) != 1 || in[0].Cost != tt.want {
				t.Errorf("in list = %v, want single edge with cost %d", in, tt.want)
			}
		})
	}
}

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name  string
		edges []EdgeSpec
		want  error
	}{
		{"target out of range", []EdgeSpec{{From: 0, To: 3, Cost: 1}}, ErrVertexOutOfRange},
		{"source out of range", []EdgeSpec{{From: 5, To: 0, Cost: 1}}, ErrVertexOutOfRange},
		{"negative cost", []EdgeSpec{{From: 0, To: 1, Cost: -2}}, ErrNegativeCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(3, tt.edges, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestBuildCoordinateCountMismatch(t *testing.T) {
	_, err := Build(3, nil, []Coord{{X: 1, Y: 1}})
	if err == nil {
		t.Fatal("expected error for coordinate count mismatch")
	}
}

func TestSelfLoopAndZeroCost(t *testing.T) {
	g := MustBuild(2, []EdgeSpec{
		{From: 0, To: 0, Cost: 4},
		{From: 1, To: 1, Cost: 0},
		{From: 0, To: 1, Cost: 0},
	}, nil)
	if len(g.Adjacent(0, Forward)) != 2 {
		t.Errorf("out(0) = %v, want self-loop and 0->1", g.Adjacent(0, Forward))
	}
	if len(g.Adjacent(1, Backward)) != 2 {
		t.Errorf("in(1) = %v, want 0->1 and self-loop", g.Adjacent(1, Backward))
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := MustBuild(3, []EdgeSpec{{From: 0, To: 1, Cost: 5}}, []Coord{{X: 0}, {X: 1}, {X: 2}})
	c := g.Clone()
	c.AddShortcut(0, 2, 9, 1)
	if err := c.AddEdge(0, 1, 1); err != nil {
		t.Fatal(err)
	}

	if g.NumEdges() != 1 {
		t.Errorf("original NumEdges = %d after mutating clone, want 1", g.NumEdges())
	}
	if e, _ := g.FindEdge(0, 1); e.Cost != 5 {
		t.Errorf("original cost = %d, want 5", e.Cost)
	}
	if c.Coord(2).X != 2 {
		t.Errorf("clone coord = %v, want X=2", c.Coord(2))
	}
}

func TestShortcutLowersViaToo(t *testing.T) {
	g := New(3)
	if !g.AddShortcut(0, 2, 10, 1) {
		t.Error("first shortcut reported no change")
	}
	if g.AddShortcut(0, 2, 12, 1) {
		t.Error("dearer shortcut reported a change")
	}
	if e, _ := g.FindEdge(0, 2); e.Cost != 10 || e.Via != 1 {
		t.Errorf("edge = %+v, want cost 10 via 1", e)
	}
	if err := g.AddEdge(0, 2, 3); err != nil {
		t.Fatal(err)
	}
	if e, _ := g.FindEdge(0, 2); e.Cost != 3 || e.Via != NoVia {
		t.Errorf("edge = %+v, want cost 3 original", e)
	}
}

func TestUpward(t *testing.T) {
	rg := &RankedGraph{Graph: New(3), Rank: []uint32{2, 0, 1}}
	if !rg.Upward(1, 0) || !rg.Upward(2, 0) || !rg.Upward(1, 2) {
		t.Error("edge into a higher rank not reported upward")
	}
	if rg.Upward(0, 1) || rg.Upward(2, 2) {
		t.Error("edge into an equal or lower rank reported upward")
	}
}

func TestCheckRanks(t *testing.T) {
	g := New(3)
	if err := (&RankedGraph{Graph: g, Rank: []uint32{2, 0, 1}}).CheckRanks(); err != nil {
		t.Errorf("valid permutation rejected: %v", err)
	}
	if err := (&RankedGraph{Graph: g, Rank: []uint32{0, 0, 1}}).CheckRanks(); err == nil {
		t.Error("duplicate rank accepted")
	}
	if err := (&RankedGraph{Graph: g, Rank: []uint32{0, 1, 3}}).CheckRanks(); err == nil {
		t.Error("out-of-range rank accepted")
	}
}
