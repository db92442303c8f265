package gnp

import (
	"fmt"
	"math"
	"math/rand"
)

// InvalidDecision is the sentinel DecisionAndNextNode returns when a
// traversal exceeds its judgment-depth cap. Callers should prefer checking
// Network.Invalid over comparing against this value directly.
const InvalidDecision = math.MinInt

// Network is one individual: a start node plus an array of inner nodes, the
// transient state of its most recent traversal, and its most recently
// computed fitness.
type Network struct {
	StartNode  *Node
	InnerNodes []*Node

	JN, PN   int // current Judgment/Processing node counts; JN+PN == len(InnerNodes)
	JNF, PNF int // fixed function-index caps from construction

	FractalJudgment bool

	// Transient traversal state, refreshed by TraversePath/FitAccuracy/
	// FitGymnasium/FitCartpole.
	CurrentNodeID int
	NConsecutiveP int
	Invalid       bool
	Decisions     []int
	Fitness       float64

	nUsedNodes int
}

// NewNetwork builds a fresh individual with jn Judgment and pn Processing
// nodes, each with randomly drawn function indices and initial edges.
// Boundaries are left unset; the owning Population must call
// SetAllNodeBoundaries before first fitness evaluation.
func NewNetwork(rng *rand.Rand, jn, jnf, pn, pnf int, fractalJudgment bool) (*Network, error) {
	nn := jn + pn
	net := &Network{JN: jn, PN: pn, JNF: jnf, PNF: pnf, FractalJudgment: fractalJudgment}

	start := NewNode(-1, TypeStart, 0)
	if err := start.SetEdges(rng, nn, 0); err != nil {
		return nil, fmt.Errorf("start node: %w", err)
	}
	net.StartNode = start

	net.InnerNodes = make([]*Node, 0, nn)
	for i := 0; i < jn; i++ {
		f := rng.Intn(jnf)
		node := NewNode(i, TypeJudgment, f)
		if fractalJudgment {
			k, d, err := RandomKDCombination(jn+pn-1, rng)
			if err != nil {
				return nil, fmt.Errorf("judgment node %d: %w", i, err)
			}
			node.K, node.D = k, d
			if err := node.SetEdges(rng, nn, ipow(k, d)); err != nil {
				return nil, fmt.Errorf("judgment node %d: %w", i, err)
			}
			node.ProductionRuleParameter = sortedCopy(RandomParameterCuts(k-1, rng))
		} else {
			if err := node.SetEdges(rng, nn, 0); err != nil {
				return nil, fmt.Errorf("judgment node %d: %w", i, err)
			}
		}
		net.InnerNodes = append(net.InnerNodes, node)
	}
	for i := jn; i < nn; i++ {
		f := rng.Intn(pnf)
		node := NewNode(i, TypeProcessing, f)
		if err := node.SetEdges(rng, nn, 0); err != nil {
			return nil, fmt.Errorf("processing node %d: %w", i, err)
		}
		net.InnerNodes = append(net.InnerNodes, node)
	}
	return net, nil
}

// SetAllNodeBoundaries initializes the boundary vector of every Judgment
// node from the per-feature ranges minF/maxF (indexed by node.F). Fractal
// Judgment nodes derive boundaries from their stored production-rule
// parameters; non-fractal ones get equally spaced boundaries.
func (net *Network) SetAllNodeBoundaries(minF, maxF []float64) error {
	for _, node := range net.InnerNodes {
		if node.Type != TypeJudgment {
			continue
		}
		f := node.F
		if net.FractalJudgment && node.ProductionRuleParameter != nil {
			ratios := SortAndDistance(node.ProductionRuleParameter)
			lengths := FractalLengths(node.D, ratios)
			if err := node.SetEdgesBoundaries(minF[f], maxF[f], lengths); err != nil {
				return fmt.Errorf("node %d: %w", node.ID, err)
			}
		} else {
			if err := node.SetEdgesBoundaries(minF[f], maxF[f], nil); err != nil {
				return fmt.Errorf("node %d: %w", node.ID, err)
			}
		}
	}
	return nil
}

// resetTraversal clears used-flags and decisions, and positions
// currentNodeID at the start node's successor, marking it used.
func (net *Network) resetTraversal() {
	net.Decisions = net.Decisions[:0]
	net.Invalid = false
	net.NConsecutiveP = 0
	for _, node := range net.InnerNodes {
		node.Used = false
	}
	net.CurrentNodeID = net.StartNode.Edges[0]
	net.InnerNodes[net.CurrentNodeID].Used = true
}

// DecisionAndNextNode advances the traversal by exactly one decision: if the
// current node is Processing, it emits immediately; if Judgment, it walks
// the judgment chain until a Processing node is reached or dSum reaches
// dMax, in which case it sets Invalid and returns InvalidDecision. Every
// node arrived at along the way has its Used flag set, matching the mark
// resetTraversal places on the start node's successor.
func (net *Network) DecisionAndNextNode(features []float64, dMax int) int {
	cur := net.InnerNodes[net.CurrentNodeID]

	if cur.Type == TypeProcessing {
		decision := cur.F
		net.CurrentNodeID = cur.Edges[0]
		net.InnerNodes[net.CurrentNodeID].Used = true
		net.NConsecutiveP++
		return decision
	}

	net.NConsecutiveP = 0
	dSum := 0
	for cur.Type == TypeJudgment {
		v := features[cur.F]
		i := cur.Judge(v)
		net.CurrentNodeID = cur.Edges[i]
		net.InnerNodes[net.CurrentNodeID].Used = true
		dSum++
		if dSum >= dMax {
			net.Invalid = true
			return InvalidDecision
		}
		cur = net.InnerNodes[net.CurrentNodeID]
	}

	decision := cur.F
	net.CurrentNodeID = cur.Edges[0]
	net.InnerNodes[net.CurrentNodeID].Used = true
	net.NConsecutiveP++
	return decision
}

// TraversePath resets traversal state and runs DecisionAndNextNode once per
// row of X, returning the full decision sequence. It does not early-exit on
// Invalid; callers that care must inspect net.Invalid themselves.
func (net *Network) TraversePath(X [][]float64, dMax int) []int {
	net.resetTraversal()
	for _, row := range X {
		net.Decisions = append(net.Decisions, net.DecisionAndNextNode(row, dMax))
	}
	return net.Decisions
}

// FitAccuracy computes classification fitness as the fraction of rows whose
// emitted decision matches the corresponding label, short-circuiting to
// fitness 0 the moment a traversal goes Invalid. penalty is accepted for
// API symmetry with FitCartpole but unused: an Invalid traversal always
// zeroes fitness outright, so there is nothing left to divide.
func (net *Network) FitAccuracy(X [][]float64, y []int, dMax int, penalty float64) {
	_ = penalty
	net.resetTraversal()
	correct := 0
	for i := range y {
		dec := net.DecisionAndNextNode(X[i], dMax)
		net.Decisions = append(net.Decisions, dec)
		if net.Invalid {
			net.Fitness = 0
			return
		}
		if dec == y[i] {
			correct++
		}
	}
	net.Fitness = float64(correct) / float64(len(y))
}

// FitGymnasium runs one episode against env, accumulating reward as
// fitness. An Invalid traversal or runaway consecutive-Processing run ends
// the episode early with worstFitness.
func (net *Network) FitGymnasium(env Environment, dMax, maxSteps, maxConsecutiveP int, worstFitness float64, seed int64) {
	obs, _ := env.Reset(seed)
	net.resetTraversal()
	net.Fitness = 0
	steps := 0
	for {
		dec := net.DecisionAndNextNode(obs, dMax)
		if net.Invalid || net.NConsecutiveP > maxConsecutiveP {
			net.Fitness = worstFitness
			return
		}
		nextObs, reward, terminated := env.Step(dec)
		net.Fitness += reward
		steps++
		obs = nextObs
		if terminated || steps >= maxSteps {
			return
		}
	}
}

// FitCartpole runs one episode against a freshly reset internal CartPole
// simulator. Identical control flow to FitGymnasium, but on constraint
// violation the accumulated fitness is divided by penalty rather than
// replaced outright.
func (net *Network) FitCartpole(rng *rand.Rand, dMax int, penalty float64, maxSteps, maxConsecutiveP int) {
	cp := NewCartPole(rng)
	obs := cp.Observation()
	net.resetTraversal()
	net.Fitness = 0
	for steps := 0; ; steps++ {
		dec := net.DecisionAndNextNode(obs, dMax)
		if net.Invalid || net.NConsecutiveP > maxConsecutiveP {
			net.Fitness /= penalty
			return
		}
		reward, terminated := cp.Step(dec)
		net.Fitness += reward
		obs = cp.Observation()
		if terminated || steps+1 >= maxSteps {
			return
		}
	}
}

// ChangeFalseEdges repairs every edge (on the start node and every inner
// node) that references an id no longer valid for this network's current
// size, redirecting it via Node.ChangeEdge. Called after crossover on the
// smaller of two size-mismatched parents.
func (net *Network) ChangeFalseEdges(rng *rand.Rand) error {
	nn := len(net.InnerNodes)
	repair := func(node *Node) error {
		for i, e := range node.Edges {
			if e >= nn {
				newEdge, err := node.ChangeEdge(rng, nn, e)
				if err != nil {
					return err
				}
				node.Edges[i] = newEdge
			}
		}
		return nil
	}
	if err := repair(net.StartNode); err != nil {
		return err
	}
	for _, node := range net.InnerNodes {
		if err := repair(node); err != nil {
			return err
		}
	}
	return nil
}

// CountUsedNodes recomputes and caches the number of inner nodes whose Used
// flag is set from the most recent traversal.
func (net *Network) CountUsedNodes() int {
	n := 0
	for _, node := range net.InnerNodes {
		if node.Used {
			n++
		}
	}
	net.nUsedNodes = n
	return n
}

// NUsedNodes returns the count cached by the most recent CountUsedNodes.
func (net *Network) NUsedNodes() int {
	return net.nUsedNodes
}

// AddDelNodes is the variable-size structural operator: a fair coin decides
// whether to append exactly one new node (only if every current node was
// used by the last traversal) or delete the first unused node (only if more
// than one node is unused). minF/maxF supply the per-feature ranges a newly
// added fractal Judgment node needs to derive its boundaries immediately,
// since no further call to SetAllNodeBoundaries is guaranteed before the
// next traversal.
func (net *Network) AddDelNodes(rng *rand.Rand, minF, maxF []float64) error {
	net.CountUsedNodes()
	add := rng.Intn(2) == 0

	if add {
		if net.nUsedNodes < len(net.InnerNodes) {
			return nil
		}
		return net.addNode(rng, minF, maxF)
	}

	if len(net.InnerNodes)-net.nUsedNodes <= 1 {
		return nil
	}
	return net.deleteFirstUnusedNode(rng)
}

func (net *Network) addNode(rng *rand.Rand, minF, maxF []float64) error {
	newID := len(net.InnerNodes)
	nnAfter := newID + 1

	pProcessing := float64(net.PNF) / float64(net.PNF+net.JNF)
	if rng.Float64() < pProcessing {
		f := rng.Intn(net.PNF)
		node := NewNode(newID, TypeProcessing, f)
		if err := node.SetEdges(rng, nnAfter, 0); err != nil {
			return err
		}
		net.PN++
		net.InnerNodes = append(net.InnerNodes, node)
		return nil
	}

	f := rng.Intn(net.JNF)
	node := NewNode(newID, TypeJudgment, f)
	if net.FractalJudgment {
		// The combination bound here is the pre-increment jn+pn, one more
		// than the jn+pn-1 NewNetwork uses. Intentional asymmetry: see
		// DESIGN.md.
		k, d, err := RandomKDCombination(net.JN+net.PN, rng)
		if err != nil {
			return err
		}
		node.K, node.D = k, d
		if err := node.SetEdges(rng, nnAfter, ipow(k, d)); err != nil {
			return err
		}
		node.ProductionRuleParameter = sortedCopy(RandomParameterCuts(k-1, rng))
		ratios := SortAndDistance(node.ProductionRuleParameter)
		lengths := FractalLengths(d, ratios)
		if err := node.SetEdgesBoundaries(minF[f], maxF[f], lengths); err != nil {
			return err
		}
	} else {
		if err := node.SetEdges(rng, nnAfter, 0); err != nil {
			return err
		}
		if err := node.SetEdgesBoundaries(minF[f], maxF[f], nil); err != nil {
			return err
		}
	}
	net.JN++
	net.InnerNodes = append(net.InnerNodes, node)
	return nil
}

func (net *Network) deleteFirstUnusedNode(rng *rand.Rand) error {
	n := -1
	for i, node := range net.InnerNodes {
		if !node.Used {
			n = i
			break
		}
	}
	if n == -1 {
		return nil
	}

	for _, node := range net.InnerNodes {
		if node.ID > n {
			node.ID--
		}
	}

	nnAfter := len(net.InnerNodes) - 1
	repair := func(node *Node) error {
		for i, e := range node.Edges {
			switch {
			case e > n:
				node.Edges[i] = e - 1
			case e == n:
				newEdge, err := node.ChangeEdge(rng, nnAfter, e)
				if err != nil {
					return err
				}
				node.Edges[i] = newEdge
			}
		}
		return nil
	}
	for _, node := range net.InnerNodes {
		if err := repair(node); err != nil {
			return err
		}
	}

	if net.StartNode.Edges[0] > n {
		net.StartNode.Edges[0]--
	}

	if net.InnerNodes[n].Type == TypeProcessing {
		net.PN--
	} else {
		net.JN--
	}
	net.InnerNodes = append(net.InnerNodes[:n], net.InnerNodes[n+1:]...)
	return nil
}

// Clone returns a deep copy of net, safe to mutate independently.
func (net *Network) Clone() *Network {
	c := &Network{
		JN: net.JN, PN: net.PN, JNF: net.JNF, PNF: net.PNF,
		FractalJudgment: net.FractalJudgment,
		CurrentNodeID:   net.CurrentNodeID,
		NConsecutiveP:   net.NConsecutiveP,
		Invalid:         net.Invalid,
		Fitness:         net.Fitness,
		nUsedNodes:      net.nUsedNodes,
	}
	c.StartNode = net.StartNode.Clone()
	c.InnerNodes = make([]*Node, len(net.InnerNodes))
	for i, node := range net.InnerNodes {
		c.InnerNodes[i] = node.Clone()
	}
	if net.Decisions != nil {
		c.Decisions = append([]int(nil), net.Decisions...)
	}
	return c
}
