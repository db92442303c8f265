package gnp

import (
	"math/rand"
	"strings"
	"testing"
)

func TestJudgeConcreteScenario(t *testing.T) {
	n := &Node{Type: TypeJudgment, Edges: []int{10, 11, 12, 13}, Boundaries: []float64{0, 0.25, 0.5, 0.75, 1.0}}
	cases := []struct {
		v    float64
		want int
	}{
		{-1, 0}, {0.1, 0}, {0.25, 1}, {0.6, 2}, {0.9, 3}, {2, 3},
	}
	for _, c := range cases {
		if got := n.Judge(c.v); got != c.want {
			t.Fatalf("Judge(%v) = %d, want %d", c.v, got, c.want)
		}
	}
}

func TestGoStringIncludesFullState(t *testing.T) {
	n := &Node{ID: 3, Type: TypeJudgment, F: 1, Edges: []int{1, 2}, Boundaries: []float64{0, 0.5, 1}, K: 2, D: 1}
	s := n.GoString()
	for _, want := range []string{"ID: 3", "Boundaries: [0 0.5 1]", "K: 2"} {
		if !strings.Contains(s, want) {
			t.Fatalf("GoString() = %q, missing %q", s, want)
		}
	}
}

func TestSetEdgesBoundariesEquallySpaced(t *testing.T) {
	n := &Node{Type: TypeJudgment, Edges: []int{1, 2, 3}}
	if err := n.SetEdgesBoundaries(0, 3, nil); err != nil {
		t.Fatalf("SetEdgesBoundaries: %v", err)
	}
	want := []float64{0, 1, 2, 3}
	for i, w := range want {
		if n.Boundaries[i] != w {
			t.Fatalf("Boundaries[%d] = %v, want %v", i, n.Boundaries[i], w)
		}
	}
}

func TestSetEdgesBoundariesFromLengths(t *testing.T) {
	n := &Node{Type: TypeJudgment, Edges: []int{1, 2}}
	if err := n.SetEdgesBoundaries(0, 10, []float64{0.25, 0.75}); err != nil {
		t.Fatalf("SetEdgesBoundaries: %v", err)
	}
	want := []float64{0, 2.5, 10}
	for i, w := range want {
		if n.Boundaries[i] != w {
			t.Fatalf("Boundaries[%d] = %v, want %v", i, n.Boundaries[i], w)
		}
	}
}

func TestSetEdgesBoundariesRejectsMismatchedLengths(t *testing.T) {
	n := &Node{Type: TypeJudgment, Edges: []int{1, 2, 3}}
	if err := n.SetEdgesBoundaries(0, 1, []float64{0.5, 0.5}); err == nil {
		t.Fatalf("expected error for mismatched lengths slice")
	}
}

func TestSetEdgesNoSelfLoop(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for id := 0; id < 5; id++ {
		n := NewNode(id, TypeJudgment, 0)
		if err := n.SetEdges(rng, 5, 0); err != nil {
			t.Fatalf("SetEdges: %v", err)
		}
		for _, e := range n.Edges {
			if e == id {
				t.Fatalf("node %d has self-loop edge", id)
			}
		}
	}
}

func TestSetEdgesTooFewNodes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n := NewNode(0, TypeJudgment, 0)
	if err := n.SetEdges(rng, 2, 0); err == nil {
		t.Fatalf("expected error for nn < 3 on Judgment SetEdges")
	}
}

func TestEdgeMutationNeverSelfLoopsOrStaysAtOldValue(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	n := NewNode(2, TypeJudgment, 0)
	if err := n.SetEdges(rng, 6, 3); err != nil {
		t.Fatalf("SetEdges: %v", err)
	}
	for trial := 0; trial < 100; trial++ {
		old := append([]int(nil), n.Edges...)
		if err := n.EdgeMutation(rng, 1.0, 6); err != nil {
			t.Fatalf("EdgeMutation: %v", err)
		}
		for i, e := range n.Edges {
			if e == n.ID {
				t.Fatalf("edge mutation introduced self-loop at index %d", i)
			}
			if e == old[i] {
				t.Fatalf("edge mutation left edge %d unchanged despite p=1.0", i)
			}
		}
	}
}

func TestBoundaryMutationUniformStaysStrictlyIncreasing(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	n := &Node{Type: TypeJudgment, Edges: []int{1, 2, 3, 4}, Boundaries: []float64{0, 0.25, 0.5, 0.75, 1.0}}
	for trial := 0; trial < 200; trial++ {
		n.BoundaryMutationUniform(rng, 1.0)
		assertStrictlyIncreasing(t, n.Boundaries)
	}
}

func TestBoundaryMutationNormalStaysStrictlyIncreasing(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := &Node{Type: TypeJudgment, Edges: []int{1, 2, 3, 4}, Boundaries: []float64{0, 0.25, 0.5, 0.75, 1.0}}
	for trial := 0; trial < 200; trial++ {
		n.BoundaryMutationNormal(rng, 1.0, 0.5)
		assertStrictlyIncreasing(t, n.Boundaries)
	}
}

func assertStrictlyIncreasing(t *testing.T, b []float64) {
	t.Helper()
	for i := 1; i < len(b); i++ {
		if b[i] <= b[i-1] {
			t.Fatalf("boundaries not strictly increasing: %v", b)
		}
	}
}

func TestBoundaryMutationFractalRecomputesBoundaries(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	n := &Node{Type: TypeJudgment, Edges: make([]int, 4), K: 2, D: 2, ProductionRuleParameter: []float64{0, 0.3, 1}}
	if err := n.SetEdgesBoundaries(0, 1, FractalLengths(2, SortAndDistance(n.ProductionRuleParameter))); err != nil {
		t.Fatalf("SetEdgesBoundaries: %v", err)
	}
	if err := n.BoundaryMutationFractal(rng, 1.0, 0, 1); err != nil {
		t.Fatalf("BoundaryMutationFractal: %v", err)
	}
	if len(n.Boundaries) != 5 {
		t.Fatalf("len(Boundaries) = %d, want 5", len(n.Boundaries))
	}
	if n.Boundaries[0] != 0 || n.Boundaries[4] != 1 {
		t.Fatalf("Boundaries endpoints = [%v, %v], want [0, 1]", n.Boundaries[0], n.Boundaries[4])
	}
	assertStrictlyIncreasing(t, n.Boundaries)
}
