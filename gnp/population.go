package gnp

import (
	"math/rand"
	"sort"
)

// Population is a fixed-size array of Networks sharing a single PRNG, plus
// the evolutionary operators that advance them one generation at a time.
type Population struct {
	Config *Config

	Networks     []*Network
	RNG          *rand.Rand
	IndicesElite []int

	Generation  int
	BestFit     float64
	MeanFitness float64
	MinFitness  float64

	// MinF/MaxF are the per-feature ranges supplied to SetAllNodeBoundaries;
	// retained so RunGeneration can pass them to CallAddDelNodes and
	// BoundaryMutationFractal can look up each node's feature range.
	MinF, MaxF []float64
}

// NewPopulation builds ni fresh Networks from cfg's structural parameters,
// all sharing one PRNG seeded from seed.
func NewPopulation(cfg *Config, seed int64) (*Population, error) {
	rng := rand.New(rand.NewSource(seed))
	pop := &Population{
		Config: cfg,
		RNG:    rng,
	}
	pop.Networks = make([]*Network, 0, cfg.GNP.NI)
	for i := 0; i < cfg.GNP.NI; i++ {
		net, err := NewNetwork(rng, cfg.GNP.JN, cfg.GNP.JNF, cfg.GNP.PN, cfg.GNP.PNF, cfg.GNP.FractalJudgment)
		if err != nil {
			return nil, err
		}
		pop.Networks = append(pop.Networks, net)
	}
	return pop, nil
}

// SetAllNodeBoundaries initializes boundaries on every Network from the
// per-feature ranges minF/maxF, and retains them in MinF/MaxF for later use
// by RunGeneration and BoundaryMutationFractal.
func (p *Population) SetAllNodeBoundaries(minF, maxF []float64) error {
	p.MinF, p.MaxF = minF, maxF
	for _, net := range p.Networks {
		if err := net.SetAllNodeBoundaries(minF, maxF); err != nil {
			return err
		}
	}
	return nil
}

// ApplyFitness sequentially applies fn to every individual.
func (p *Population) ApplyFitness(fn func(*Network)) {
	for _, net := range p.Networks {
		fn(net)
	}
}

// Accuracy scores every individual against the same classification dataset.
func (p *Population) Accuracy(X [][]float64, y []int, dMax int, penalty float64) {
	p.ApplyFitness(func(net *Network) {
		net.FitAccuracy(X, y, dMax, penalty)
	})
}

// Gymnasium scores every individual by running one episode against env,
// each individual seeded deterministically from seedBase and its index.
func (p *Population) Gymnasium(env Environment, dMax, maxSteps, maxConsecutiveP int, worstFitness float64, seedBase int64) {
	for i, net := range p.Networks {
		net.FitGymnasium(env, dMax, maxSteps, maxConsecutiveP, worstFitness, seedBase+int64(i))
	}
}

// Cartpole scores every individual against a fresh internal CartPole
// simulator drawn from the Population's shared PRNG.
func (p *Population) Cartpole(dMax int, penalty float64, maxSteps, maxConsecutiveP int) {
	p.ApplyFitness(func(net *Network) {
		net.FitCartpole(p.RNG, dMax, penalty, maxSteps, maxConsecutiveP)
	})
}

// eliteSet returns the set of array positions currently recorded as elite.
func (p *Population) eliteSet() map[int]bool {
	set := make(map[int]bool, len(p.IndicesElite))
	for _, i := range p.IndicesElite {
		set[i] = true
	}
	return set
}

// sampleDistinct draws k distinct ids from [0, n) using the shared PRNG,
// returned in ascending order so tournament ties resolve to the lowest id.
func (p *Population) sampleDistinct(k, n int) []int {
	perm := p.RNG.Perm(n)
	ids := append([]int(nil), perm[:k]...)
	sort.Ints(ids)
	return ids
}

// TournamentSelection replaces p.Networks with the next generation: ni-E
// slots filled by independent N-way tournaments (max fitness wins, ties
// broken by lowest id), followed by E rounds of elitism that copy the
// current global-best individuals verbatim and record their new positions
// in IndicesElite.
func (p *Population) TournamentSelection(n, e int) error {
	ni := len(p.Networks)
	if ni == 0 {
		return ErrEmptyPopulation
	}

	newNetworks := make([]*Network, 0, ni)
	winnerFits := make([]float64, 0, ni-e)

	for i := 0; i < ni-e; i++ {
		ids := p.sampleDistinct(n, ni)
		bestID := ids[0]
		for _, id := range ids[1:] {
			if p.Networks[id].Fitness > p.Networks[bestID].Fitness {
				bestID = id
			}
		}
		newNetworks = append(newNetworks, p.Networks[bestID].Clone())
		winnerFits = append(winnerFits, p.Networks[bestID].Fitness)
	}

	working := append([]*Network(nil), p.Networks...)
	p.IndicesElite = p.IndicesElite[:0]
	eliteFits := make([]float64, 0, e)
	for round := 0; round < e && len(working) > 0; round++ {
		bestIdx := 0
		for i, nw := range working[1:] {
			if nw.Fitness > working[bestIdx].Fitness {
				bestIdx = i + 1
			}
		}
		chosen := working[bestIdx]
		newNetworks = append(newNetworks, chosen.Clone())
		p.IndicesElite = append(p.IndicesElite, len(newNetworks)-1)
		eliteFits = append(eliteFits, chosen.Fitness)
		working = append(working[:bestIdx], working[bestIdx+1:]...)
	}

	p.Networks = newNetworks
	p.BestFit = MaxFloat(append(append([]float64(nil), winnerFits...), eliteFits...))
	p.MinFitness = MinFloat(winnerFits)
	// Divides by the final post-elite size (ni), not the ni-e tournament
	// slots actually summed. Kept as-is: population size is fixed at ni,
	// so the two only diverge if that ever changes. See DESIGN.md.
	p.MeanFitness = Sum(winnerFits) / float64(len(p.Networks))
	return nil
}

// FitnessStats summarizes the most recently computed fitness values across
// the current individuals. Intended for driver-level reporting alongside the
// selection statistics (BestFit, MeanFitness, MinFitness) that
// TournamentSelection records.
func (p *Population) FitnessStats() (mean, stdev, median float64) {
	fits := make([]float64, len(p.Networks))
	for i, net := range p.Networks {
		fits[i] = net.Fitness
	}
	return Mean(fits), Stdev(fits), Median(fits)
}

// CallEdgeMutation mutates the edges of every non-elite individual: pInner
// applies to every inner node, pStart to the start node alone.
func (p *Population) CallEdgeMutation(pInner, pStart float64) error {
	elite := p.eliteSet()
	for i, net := range p.Networks {
		if elite[i] {
			continue
		}
		nn := len(net.InnerNodes)
		for _, node := range net.InnerNodes {
			if err := node.EdgeMutation(p.RNG, pInner, nn); err != nil {
				return err
			}
		}
		if err := net.StartNode.EdgeMutation(p.RNG, pStart, nn); err != nil {
			return err
		}
	}
	return nil
}

// applyBoundaryMutation iterates every Judgment node of every non-elite
// individual, invoking fn with the owning network (for context such as
// network size) and the node itself.
func (p *Population) applyBoundaryMutation(fn func(net *Network, node *Node) error) error {
	elite := p.eliteSet()
	for i, net := range p.Networks {
		if elite[i] {
			continue
		}
		for _, node := range net.InnerNodes {
			if node.Type != TypeJudgment {
				continue
			}
			if err := fn(net, node); err != nil {
				return err
			}
		}
	}
	return nil
}

// BoundaryMutationUniform applies Node.BoundaryMutationUniform across every
// non-elite individual's Judgment nodes.
func (p *Population) BoundaryMutationUniform(prob float64) {
	_ = p.applyBoundaryMutation(func(net *Network, node *Node) error {
		node.BoundaryMutationUniform(p.RNG, prob)
		return nil
	})
}

// BoundaryMutationNormal applies Node.BoundaryMutationNormal across every
// non-elite individual's Judgment nodes.
func (p *Population) BoundaryMutationNormal(prob, sigma float64) {
	_ = p.applyBoundaryMutation(func(net *Network, node *Node) error {
		node.BoundaryMutationNormal(p.RNG, prob, sigma)
		return nil
	})
}

// BoundaryMutationNetworkSizeSigma applies Node.BoundaryMutationNetworkSizeSigma,
// scoping sigma to each owning network's current size.
func (p *Population) BoundaryMutationNetworkSizeSigma(prob, sigma float64) {
	_ = p.applyBoundaryMutation(func(net *Network, node *Node) error {
		node.BoundaryMutationNetworkSizeSigma(p.RNG, prob, sigma, len(net.InnerNodes))
		return nil
	})
}

// BoundaryMutationEdgeSizeSigma applies Node.BoundaryMutationEdgeSizeSigma
// across every non-elite individual's Judgment nodes.
func (p *Population) BoundaryMutationEdgeSizeSigma(prob, sigma float64) {
	_ = p.applyBoundaryMutation(func(net *Network, node *Node) error {
		node.BoundaryMutationEdgeSizeSigma(p.RNG, prob, sigma)
		return nil
	})
}

// BoundaryMutationFractal applies Node.BoundaryMutationFractal, supplying
// each node's own feature range from the Population's retained MinF/MaxF.
func (p *Population) BoundaryMutationFractal(prob float64) error {
	return p.applyBoundaryMutation(func(net *Network, node *Node) error {
		return node.BoundaryMutationFractal(p.RNG, prob, p.MinF[node.F], p.MaxF[node.F])
	})
}

// Crossover shuffles individuals into pairs, skipping any pair containing an
// elite, and for each non-skipped pair independently swaps whole inner
// nodes (position by position, at positions 0..m-2 where m is the smaller
// parent's size; position m-1 is never swapped) with probability prob. Size-mismatched pairs have their smaller parent's edges
// repaired afterward via ChangeFalseEdges.
func (p *Population) Crossover(prob float64) error {
	elite := p.eliteSet()
	idx := make([]int, len(p.Networks))
	for i := range idx {
		idx[i] = i
	}
	p.RNG.Shuffle(len(idx), func(i, j int) {
		idx[i], idx[j] = idx[j], idx[i]
	})

	for i := 0; i+1 < len(idx); i += 2 {
		a, b := idx[i], idx[i+1]
		if elite[a] || elite[b] {
			continue
		}
		netA, netB := p.Networks[a], p.Networks[b]
		m := minInt(len(netA.InnerNodes), len(netB.InnerNodes))
		for k := 0; k < m-1; k++ {
			if p.RNG.Float64() < prob {
				// Swap clones, not the shared *Node pointers themselves:
				// InnerNodes holds pointers, so an in-place pointer swap
				// would leave netA and netB aliasing the same Node and
				// corrupt both on the next independent mutation.
				aClone, bClone := netA.InnerNodes[k].Clone(), netB.InnerNodes[k].Clone()
				netA.InnerNodes[k], netB.InnerNodes[k] = bClone, aClone
				// Keep JN/PN equal to the per-type counts when the swap
				// exchanges a Judgment node for a Processing node.
				if aClone.Type != bClone.Type {
					d := 1
					if aClone.Type == TypeJudgment {
						d = -1
					}
					netA.JN, netA.PN = netA.JN+d, netA.PN-d
					netB.JN, netB.PN = netB.JN-d, netB.PN+d
				}
			}
		}
		if len(netA.InnerNodes) == len(netB.InnerNodes) {
			continue
		}
		smaller := netA
		if len(netB.InnerNodes) < len(netA.InnerNodes) {
			smaller = netB
		}
		if err := smaller.ChangeFalseEdges(p.RNG); err != nil {
			return err
		}
	}
	return nil
}

// CallAddDelNodes applies Network.AddDelNodes to every individual. Unlike
// the mutation and crossover operators it does NOT skip elites; see
// DESIGN.md for why that asymmetry is kept.
func (p *Population) CallAddDelNodes(minF, maxF []float64) error {
	for _, net := range p.Networks {
		if err := net.AddDelNodes(p.RNG, minF, maxF); err != nil {
			return err
		}
	}
	return nil
}

// RunGeneration drives one full generation: fitnessFn scores every
// individual, then selection, crossover, structural grow/shrink, edge
// mutation and boundary mutation run in that order (addDelNodes must
// precede edgeMutation because it depends on the used-flags a traversal
// just set, and edgeMutation invalidates them). Returns the fittest
// individual of the generation just evaluated, found before selection
// replaces the population.
func (p *Population) RunGeneration(fitnessFn func(*Population)) (*Network, error) {
	fitnessFn(p)

	best := p.Networks[0]
	for _, net := range p.Networks[1:] {
		if net.Fitness > best.Fitness {
			best = net
		}
	}
	best = best.Clone()

	cfg := p.Config
	if err := p.TournamentSelection(cfg.Selection.TournamentN, cfg.Selection.TournamentE); err != nil {
		return nil, err
	}
	if err := p.Crossover(cfg.Crossover.P); err != nil {
		return nil, err
	}
	if err := p.CallAddDelNodes(p.MinF, p.MaxF); err != nil {
		return nil, err
	}
	if err := p.CallEdgeMutation(cfg.EdgeMutation.PInner, cfg.EdgeMutation.PStart); err != nil {
		return nil, err
	}
	if err := p.applyConfiguredBoundaryMutation(); err != nil {
		return nil, err
	}

	p.Generation++
	return best, nil
}

func (p *Population) applyConfiguredBoundaryMutation() error {
	bm := p.Config.BoundaryMutation
	switch bm.Variant {
	case BoundaryMutationVariantUniform:
		p.BoundaryMutationUniform(bm.P)
	case BoundaryMutationVariantNormal:
		p.BoundaryMutationNormal(bm.P, bm.Sigma)
	case BoundaryMutationVariantNetworkSizeSigma:
		p.BoundaryMutationNetworkSizeSigma(bm.P, bm.Sigma)
	case BoundaryMutationVariantEdgeSizeSigma:
		p.BoundaryMutationEdgeSizeSigma(bm.P, bm.Sigma)
	case BoundaryMutationVariantFractal:
		return p.BoundaryMutationFractal(bm.P)
	default:
		return ErrInvalidConfig
	}
	return nil
}
