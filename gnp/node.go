package gnp

import (
	"fmt"
	"math"
	"math/rand"
)

// NodeType identifies the role a Node plays within a Network's graph.
type NodeType int

const (
	// TypeStart marks the single entry-point node of a Network.
	TypeStart NodeType = iota
	// TypeJudgment marks a node that routes along one of several edges
	// based on which boundary interval a feature value falls into.
	TypeJudgment
	// TypeProcessing marks a node that emits an action and advances
	// through its single outgoing edge.
	TypeProcessing
)

func (t NodeType) String() string {
	switch t {
	case TypeStart:
		return "Start"
	case TypeJudgment:
		return "Judgment"
	case TypeProcessing:
		return "Processing"
	default:
		return "Unknown"
	}
}

// Node is one vertex of a Network's graph: a type tag, a function index
// (feature selector for Judgment, action/label for Processing), an ordered
// list of successor ids, and — for Judgment nodes — the boundary vector and
// optional fractal production-rule parameters that drive judge().
type Node struct {
	ID                      int
	Type                    NodeType
	F                       int
	Edges                   []int
	Boundaries              []float64
	ProductionRuleParameter []float64 // fractal Judgment nodes only; nil otherwise
	K, D                    int       // fractal (k,d); zero when not fractal
	Used                    bool
}

// NewNode creates a Node with the given id, type and function index. Edges
// and boundaries are left empty; callers populate them via SetEdges and
// SetEdgesBoundaries.
func NewNode(id int, typ NodeType, f int) *Node {
	return &Node{ID: id, Type: typ, F: f}
}

func (n *Node) String() string {
	return fmt.Sprintf("Node(ID: %d, Type: %s, F: %d, Edges: %v)", n.ID, n.Type, n.F, n.Edges)
}

// GoString renders the full node state for %#v dumps, including the
// boundaries and fractal parameters String omits for brevity.
func (n *Node) GoString() string {
	return fmt.Sprintf("gnp.Node{ID: %d, Type: %s, F: %d, Edges: %v, Boundaries: %v, ProductionRuleParameter: %v, K: %d, D: %d, Used: %t}",
		n.ID, n.Type, n.F, n.Edges, n.Boundaries, n.ProductionRuleParameter, n.K, n.D, n.Used)
}

// Clone returns a deep copy of n, safe to mutate independently of the
// original. Used when Population copies elites or crossover swaps whole
// nodes between parents.
func (n *Node) Clone() *Node {
	c := &Node{
		ID:   n.ID,
		Type: n.Type,
		F:    n.F,
		K:    n.K,
		D:    n.D,
		Used: n.Used,
	}
	if n.Edges != nil {
		c.Edges = append([]int(nil), n.Edges...)
	}
	if n.Boundaries != nil {
		c.Boundaries = append([]float64(nil), n.Boundaries...)
	}
	if n.ProductionRuleParameter != nil {
		c.ProductionRuleParameter = append([]float64(nil), n.ProductionRuleParameter...)
	}
	return c
}

// SetEdges populates n.Edges given the owning network's current node count
// nn. Judgment nodes draw k edges (if k > 0) or a random count in [2, nn-1]
// from the candidate set {0,...,nn-1} \ {n.ID}; this requires nn >= 3.
// Start and Processing nodes draw exactly one successor id in [0, nn) \
// {n.ID} by rejection sampling.
func (n *Node) SetEdges(rng *rand.Rand, nn int, k int) error {
	switch n.Type {
	case TypeJudgment:
		if nn < 3 {
			return fmt.Errorf("%w: have %d", ErrTooFewNodes, nn)
		}
		candidates := make([]int, 0, nn-1)
		for i := 0; i < nn; i++ {
			if i != n.ID {
				candidates = append(candidates, i)
			}
		}
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		r := k
		if r <= 0 {
			r = 2 + rng.Intn(nn-2) // uniform in [2, nn-1]
		}
		if r > len(candidates) {
			r = len(candidates)
		}
		n.Edges = append([]int(nil), candidates[:r]...)
	case TypeStart, TypeProcessing:
		if nn < 2 {
			return fmt.Errorf("%w: have %d", ErrTooFewNodes, nn)
		}
		for {
			id := rng.Intn(nn)
			if id != n.ID {
				n.Edges = []int{id}
				break
			}
		}
	}
	return nil
}

// Judge returns the index of the outgoing edge v selects, given n's
// boundary vector b (length len(Edges)+1). Values at or below b[0] select
// edge 0; values at or above b[last] select the last edge; otherwise a
// binary search finds the unique interval [b[i], b[i+1]) containing v.
func (n *Node) Judge(v float64) int {
	b := n.Boundaries
	m := len(n.Edges)
	if v <= b[0] {
		return 0
	}
	if v >= b[m] {
		return m - 1
	}
	lo, hi := 0, m-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		if v >= b[mid] && v < b[mid+1] {
			return mid
		} else if v < b[mid] {
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}
	return m - 1
}

// SetEdgesBoundaries sets n.Boundaries for a Judgment node. With no
// lengths given, boundaries are len(Edges)+1 equally spaced values between
// minF and maxF. With lengths given (length len(Edges), summing to 1 within
// tolerance), boundaries are the cumulative sums
// minF + (maxF-minF) * sum(lengths[0..j]).
func (n *Node) SetEdgesBoundaries(minF, maxF float64, lengths []float64) error {
	m := len(n.Edges)
	if lengths == nil {
		span := (maxF - minF) / float64(m)
		n.Boundaries = make([]float64, m+1)
		sum := minF
		for i := 0; i <= m; i++ {
			n.Boundaries[i] = sum
			sum += span
		}
		return nil
	}
	if len(lengths) != m {
		return ErrMismatchedArity
	}
	total := Sum(lengths)
	const tol = 1e-6
	if math.Abs(total-1.0) > tol*float64(maxInt(1, m)) {
		return ErrLengthsDoNotSumToOne
	}
	n.Boundaries = make([]float64, m+1)
	n.Boundaries[0] = minF
	cum := 0.0
	for i, l := range lengths {
		cum += l
		n.Boundaries[i+1] = minF + (maxF-minF)*cum
	}
	n.Boundaries[m] = maxF
	return nil
}

// ChangeEdge replaces a single outgoing edge whose current value is
// oldValue with a freshly drawn id in [0, nn) that is neither n.ID nor
// oldValue. Requires nn >= 3 for termination.
func (n *Node) ChangeEdge(rng *rand.Rand, nn int, oldValue int) (int, error) {
	if nn < 3 {
		return 0, fmt.Errorf("%w: have %d", ErrTooFewNodes, nn)
	}
	for {
		id := rng.Intn(nn)
		if id != n.ID && id != oldValue {
			return id, nil
		}
	}
}

// EdgeMutation independently replaces each edge, with probability p, by a
// fresh id drawn via ChangeEdge. Requires nn >= 3.
func (n *Node) EdgeMutation(rng *rand.Rand, p float64, nn int) error {
	for i, e := range n.Edges {
		if rng.Float64() < p {
			newEdge, err := n.ChangeEdge(rng, nn, e)
			if err != nil {
				return err
			}
			n.Edges[i] = newEdge
		}
	}
	return nil
}

// BoundaryMutationUniform mutates each inner boundary (indices 1..m-1),
// with probability p, by an unconditional draw from Uniform(b[i-1], b[i+1]).
func (n *Node) BoundaryMutationUniform(rng *rand.Rand, p float64) {
	if n.Type != TypeJudgment {
		return
	}
	b := n.Boundaries
	for i := 1; i < len(b)-1; i++ {
		if rng.Float64() < p {
			b[i] = b[i-1] + rng.Float64()*(b[i+1]-b[i-1])
		}
	}
}

// boundarySigmaMutate is the shared implementation behind the three
// Normal-distributed boundary mutation variants: draw x ~ Normal(mu=b[i],
// sigma=sigmaFn(i)*|b[i]|) and accept the replacement only if
// b[i-1] < x < b[i+1].
func (n *Node) boundarySigmaMutate(rng *rand.Rand, p float64, sigmaFn func(i int) float64) {
	if n.Type != TypeJudgment {
		return
	}
	b := n.Boundaries
	for i := 1; i < len(b)-1; i++ {
		if rng.Float64() < p {
			mu := b[i]
			sd := sigmaFn(i) * math.Abs(mu)
			x := rng.NormFloat64()*sd + mu
			if x > b[i-1] && x < b[i+1] {
				b[i] = x
			}
		}
	}
}

// BoundaryMutationNormal mutates inner boundaries via Normal(mu=b[i],
// sigma=sigma*|b[i]|), skipping replacements that would violate ordering.
func (n *Node) BoundaryMutationNormal(rng *rand.Rand, p, sigma float64) {
	n.boundarySigmaMutate(rng, p, func(int) float64 { return sigma })
}

// BoundaryMutationNetworkSizeSigma is BoundaryMutationNormal with sigma
// scaled by 1/ln(networkSize).
func (n *Node) BoundaryMutationNetworkSizeSigma(rng *rand.Rand, p, sigma float64, networkSize int) {
	scaled := sigma / math.Log(float64(networkSize))
	n.boundarySigmaMutate(rng, p, func(int) float64 { return scaled })
}

// BoundaryMutationEdgeSizeSigma is BoundaryMutationNormal with sigma scaled
// by 1/ln(len(edges)).
func (n *Node) BoundaryMutationEdgeSizeSigma(rng *rand.Rand, p, sigma float64) {
	scaled := sigma / math.Log(float64(len(n.Edges)))
	n.boundarySigmaMutate(rng, p, func(int) float64 { return scaled })
}

// BoundaryMutationFractal mutates the inner entries of
// ProductionRuleParameter (excluding the fixed leading 0 and trailing 1),
// each by an unconditional uniform draw on (p[i-1], p[i+1]). After any
// successful mutation, boundaries are recomputed from scratch via
// FractalLengths(D, SortAndDistance(ProductionRuleParameter)) mapped onto
// [minF, maxF].
func (n *Node) BoundaryMutationFractal(rng *rand.Rand, p, minF, maxF float64) error {
	if n.Type != TypeJudgment || n.ProductionRuleParameter == nil {
		return nil
	}
	params := n.ProductionRuleParameter
	mutated := false
	for i := 1; i < len(params)-1; i++ {
		if rng.Float64() < p {
			params[i] = params[i-1] + rng.Float64()*(params[i+1]-params[i-1])
			mutated = true
		}
	}
	if !mutated {
		return nil
	}
	ratios := SortAndDistance(params)
	lengths := FractalLengths(n.D, ratios)
	return n.SetEdgesBoundaries(minF, maxF, lengths)
}
