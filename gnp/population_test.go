package gnp

import (
	"math"
	"reflect"
	"testing"
)

func testConfig() *Config {
	return &Config{
		GNP:              GNPConfig{NI: 10, JN: 4, JNF: 2, PN: 3, PNF: 2, FractalJudgment: false},
		Selection:        SelectionConfig{TournamentN: 2, TournamentE: 1},
		Crossover:        CrossoverConfig{P: 0.5},
		EdgeMutation:     EdgeMutationConfig{PInner: 0.1, PStart: 0.1},
		BoundaryMutation: BoundaryMutationConfig{Variant: BoundaryMutationVariantUniform, P: 0.1, Sigma: 0.2},
		Fitness:          FitnessConfig{DMax: 20, MaxSteps: 1, MaxConsecutiveP: 1, WorstFitness: 0, Penalty: 2.0},
	}
}

func newTestPopulation(t *testing.T, seed int64) *Population {
	t.Helper()
	cfg := testConfig()
	pop, err := NewPopulation(cfg, seed)
	if err != nil {
		t.Fatalf("NewPopulation: %v", err)
	}
	minF := []float64{0, 0}
	maxF := []float64{10, 10}
	if err := pop.SetAllNodeBoundaries(minF, maxF); err != nil {
		t.Fatalf("SetAllNodeBoundaries: %v", err)
	}
	return pop
}

func TestTournamentSelectionElitismPreservesBest(t *testing.T) {
	pop := newTestPopulation(t, 1)
	for i, net := range pop.Networks {
		net.Fitness = float64(i)
	}
	maxBefore := pop.Networks[len(pop.Networks)-1].Fitness

	if err := pop.TournamentSelection(2, 1); err != nil {
		t.Fatalf("TournamentSelection: %v", err)
	}

	if len(pop.IndicesElite) != 1 {
		t.Fatalf("len(IndicesElite) = %d, want 1", len(pop.IndicesElite))
	}
	eliteNet := pop.Networks[pop.IndicesElite[0]]
	if eliteNet.Fitness != maxBefore {
		t.Fatalf("elite fitness = %v, want %v", eliteNet.Fitness, maxBefore)
	}
	if pop.BestFit != maxBefore {
		t.Fatalf("BestFit = %v, want %v", pop.BestFit, maxBefore)
	}
	if len(pop.Networks) != 10 {
		t.Fatalf("len(Networks) = %d, want 10 (ni unchanged)", len(pop.Networks))
	}
}

func TestTournamentSelectionClonesAreIndependent(t *testing.T) {
	pop := newTestPopulation(t, 2)
	for i, net := range pop.Networks {
		net.Fitness = float64(i)
	}
	if err := pop.TournamentSelection(2, 1); err != nil {
		t.Fatalf("TournamentSelection: %v", err)
	}
	pop.Networks[0].InnerNodes[0].Edges[0] = -999
	for i := 1; i < len(pop.Networks); i++ {
		if pop.Networks[i].InnerNodes[0].Edges[0] == -999 {
			t.Fatalf("mutating Networks[0] affected Networks[%d]: selection did not clone", i)
		}
	}
}

func TestCrossoverDoesNotAliasNodesBetweenParents(t *testing.T) {
	pop := newTestPopulation(t, 3)
	// Force every pair to cross by using prob=1.0, and run several times to
	// exercise many swapped positions.
	for trial := 0; trial < 5; trial++ {
		if err := pop.Crossover(1.0); err != nil {
			t.Fatalf("Crossover: %v", err)
		}
	}
	// After crossover, mutating one network's swapped-in node must not be
	// observable from any other network: every InnerNodes entry across the
	// population must be a distinct *Node.
	seen := make(map[*Node]int)
	for ni, net := range pop.Networks {
		for _, node := range net.InnerNodes {
			if owner, ok := seen[node]; ok {
				t.Fatalf("node pointer %p shared between Networks[%d] and Networks[%d]: crossover aliased nodes", node, owner, ni)
			}
			seen[node] = ni
		}
	}
}

func TestCrossoverSkipsElitePairs(t *testing.T) {
	pop := newTestPopulation(t, 4)
	pop.IndicesElite = []int{0, 1, 2, 3, 4, 5, 6, 7, 8}
	elitePointers := make([]*Node, len(pop.IndicesElite))
	for i, idx := range pop.IndicesElite {
		elitePointers[i] = pop.Networks[idx].InnerNodes[0]
	}

	// Every network but one is elite, so every pair Crossover forms contains
	// at least one elite and every swap must be skipped.
	for trial := 0; trial < 20; trial++ {
		if err := pop.Crossover(1.0); err != nil {
			t.Fatalf("Crossover: %v", err)
		}
	}

	for i, idx := range pop.IndicesElite {
		if pop.Networks[idx].InnerNodes[0] != elitePointers[i] {
			t.Fatalf("elite network %d had its node swapped despite elite skip", idx)
		}
	}
}

func TestCallAddDelNodesAppliesToElitesToo(t *testing.T) {
	pop := newTestPopulation(t, 5)
	pop.IndicesElite = []int{0}
	for _, net := range pop.Networks {
		for _, node := range net.InnerNodes {
			node.Used = true
		}
	}
	sizesBefore := make([]int, len(pop.Networks))
	for i, net := range pop.Networks {
		sizesBefore[i] = len(net.InnerNodes)
	}
	if err := pop.CallAddDelNodes(pop.MinF, pop.MaxF); err != nil {
		t.Fatalf("CallAddDelNodes: %v", err)
	}
	// Every network had all nodes used, so a coin favoring "add" grows it by
	// exactly one; a coin favoring "delete" is a no-op (nothing unused).
	// Either way, size never shrinks below its prior value.
	for i, net := range pop.Networks {
		if len(net.InnerNodes) < sizesBefore[i] {
			t.Fatalf("network %d shrank from %d to %d despite all nodes used", i, sizesBefore[i], len(net.InnerNodes))
		}
	}
	// The elite at index 0 is not skipped: with all its nodes used, repeated
	// calls eventually draw "add" for it and it grows.
	elite := pop.Networks[0]
	eliteBefore := len(elite.InnerNodes)
	for i := 0; i < 50 && len(elite.InnerNodes) == eliteBefore; i++ {
		for _, node := range elite.InnerNodes {
			node.Used = true
		}
		if err := pop.CallAddDelNodes(pop.MinF, pop.MaxF); err != nil {
			t.Fatalf("CallAddDelNodes: %v", err)
		}
	}
	if len(elite.InnerNodes) != eliteBefore+1 {
		t.Fatalf("elite network 0 has %d nodes, want %d: CallAddDelNodes skipped the elite", len(elite.InnerNodes), eliteBefore+1)
	}
}

func TestBoundaryMutationDispatchSkipsElites(t *testing.T) {
	pop := newTestPopulation(t, 6)
	pop.IndicesElite = []int{0}
	eliteBoundariesBefore := cloneBoundaries(pop.Networks[0])

	for trial := 0; trial < 50; trial++ {
		pop.BoundaryMutationUniform(1.0)
	}

	eliteBoundariesAfter := cloneBoundaries(pop.Networks[0])
	for f := range eliteBoundariesBefore {
		for i := range eliteBoundariesBefore[f] {
			if eliteBoundariesBefore[f][i] != eliteBoundariesAfter[f][i] {
				t.Fatalf("elite node %d boundary %d changed despite elite skip", f, i)
			}
		}
	}
}

func cloneBoundaries(net *Network) [][]float64 {
	out := make([][]float64, 0, len(net.InnerNodes))
	for _, node := range net.InnerNodes {
		if node.Type != TypeJudgment {
			continue
		}
		out = append(out, append([]float64(nil), node.Boundaries...))
	}
	return out
}

func TestRunGenerationAdvancesGenerationCounter(t *testing.T) {
	pop := newTestPopulation(t, 7)
	X := [][]float64{{1, 1}, {9, 9}}
	y := []int{0, 0}
	for gen := 0; gen < 3; gen++ {
		if _, err := pop.RunGeneration(func(p *Population) {
			p.Accuracy(X, y, 20, 2.0)
		}); err != nil {
			t.Fatalf("RunGeneration: %v", err)
		}
	}
	if pop.Generation != 3 {
		t.Fatalf("Generation = %d, want 3", pop.Generation)
	}
	assertDenseIDsAndValidEdges(t, pop.Networks[0])
}

func TestFitnessStats(t *testing.T) {
	pop := newTestPopulation(t, 9)
	for i, net := range pop.Networks {
		net.Fitness = float64(i)
	}
	mean, stdev, median := pop.FitnessStats()
	if mean != 4.5 {
		t.Fatalf("mean = %v, want 4.5", mean)
	}
	if median != 4.5 {
		t.Fatalf("median = %v, want 4.5", median)
	}
	wantStdev := math.Sqrt(82.5 / 9)
	if math.Abs(stdev-wantStdev) > 1e-12 {
		t.Fatalf("stdev = %v, want %v", stdev, wantStdev)
	}
}

func TestSameSeedSameOperatorsProduceIdenticalPopulations(t *testing.T) {
	X := [][]float64{{1, 1}, {9, 9}, {3, 7}}
	y := []int{0, 1, 0}
	run := func() *Population {
		pop := newTestPopulation(t, 99)
		for gen := 0; gen < 4; gen++ {
			if _, err := pop.RunGeneration(func(p *Population) {
				p.Accuracy(X, y, 20, 2.0)
			}); err != nil {
				t.Fatalf("RunGeneration: %v", err)
			}
		}
		return pop
	}
	popA := run()
	popB := run()
	if !reflect.DeepEqual(popA.Networks, popB.Networks) {
		t.Fatalf("same seed and operator sequence produced structurally different populations")
	}
	if popA.BestFit != popB.BestFit || popA.MeanFitness != popB.MeanFitness || popA.MinFitness != popB.MinFitness {
		t.Fatalf("same seed produced different statistics: (%v,%v,%v) vs (%v,%v,%v)",
			popA.BestFit, popA.MeanFitness, popA.MinFitness,
			popB.BestFit, popB.MeanFitness, popB.MinFitness)
	}
}

func TestSampleDistinctReturnsSortedDistinctIDs(t *testing.T) {
	pop := newTestPopulation(t, 8)
	ids := pop.sampleDistinct(5, 10)
	if len(ids) != 5 {
		t.Fatalf("len(ids) = %d, want 5", len(ids))
	}
	seen := make(map[int]bool)
	for i, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d in sample", id)
		}
		seen[id] = true
		if i > 0 && ids[i-1] > id {
			t.Fatalf("ids not sorted ascending: %v", ids)
		}
	}
}
