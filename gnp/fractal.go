package gnp

import (
	"math"
	"math/rand"
	"sort"
)

// kdCombination is one candidate (k, d) pair considered by RandomKDCombination.
type kdCombination struct {
	K, D int
}

// RandomKDCombination enumerates all (k, d) pairs with k >= 2, k^d <= n,
// subject to d >= 2 when n > 3 (and d >= 1, i.e. no depth restriction, when
// n <= 3), and uniformly selects one. n is the number of candidate
// successor nodes available; the fractal Judgment node carries k^d <= n of
// them as edges.
// Small networks (n <= 3) would otherwise have no valid pair at all, so
// the minimum depth relaxes to 1 there.
func RandomKDCombination(n int, rng *rand.Rand) (k, d int, err error) {
	if n < 2 {
		return 0, 0, ErrNoFractalCombo
	}
	start := 2
	if n <= 3 {
		start = 1
	}
	var combos []kdCombination
	for kk := 2; math.Pow(float64(kk), 1) <= float64(n); kk++ {
		for dd := start; math.Pow(float64(kk), float64(dd)) <= float64(n); dd++ {
			combos = append(combos, kdCombination{K: kk, D: dd})
		}
	}
	if len(combos) == 0 {
		return 0, 0, ErrNoFractalCombo
	}
	chosen := combos[rng.Intn(len(combos))]
	return chosen.K, chosen.D, nil
}

// RandomParameterCuts returns m random cut points in (0, 1), bracketed by a
// fixed 0 and 1: [0, u_1, ..., u_m, 1]. The returned slice is NOT sorted;
// callers that need relative interval lengths should pass the result
// through SortAndDistance.
func RandomParameterCuts(m int, rng *rand.Rand) []float64 {
	cuts := make([]float64, 0, m+2)
	cuts = append(cuts, 0)
	for i := 0; i < m; i++ {
		// A cut exactly at 0 would duplicate the fixed leading entry.
		v := rng.Float64()
		for v == 0 {
			v = rng.Float64()
		}
		cuts = append(cuts, v)
	}
	cuts = append(cuts, 1)
	return cuts
}

// SortAndDistance sorts v ascending and returns the consecutive differences,
// i.e. len(v)-1 values summing to v[last]-v[first]. Used on the output of
// RandomParameterCuts (which starts at 0 and ends at 1) to obtain interval
// lengths that sum to 1.
func SortAndDistance(v []float64) []float64 {
	sorted := make([]float64, len(v))
	copy(sorted, v)
	sort.Float64s(sorted)
	if len(sorted) == 0 {
		return nil
	}
	out := make([]float64, len(sorted)-1)
	for i := 0; i < len(sorted)-1; i++ {
		out[i] = sorted[i+1] - sorted[i]
	}
	return out
}

// sortedCopy returns a sorted copy of v, leaving v untouched. Used to derive
// a Node's stored (sorted) productionRuleParameter from the unsorted output
// of RandomParameterCuts.
func sortedCopy(v []float64) []float64 {
	out := append([]float64(nil), v...)
	sort.Float64s(out)
	return out
}

// FractalLengths recursively expands ratios (which must sum to 1 for the
// result to sum to 1) to depth levels, producing len(ratios)^depth
// self-similar interval lengths. Starting from [1], each level replaces the
// current list L with the cross product [L_i * ratios_j].
func FractalLengths(depth int, ratios []float64) []float64 {
	lengths := []float64{1}
	for i := 0; i < depth; i++ {
		next := make([]float64, 0, len(lengths)*len(ratios))
		for _, l := range lengths {
			for _, r := range ratios {
				next = append(next, l*r)
			}
		}
		lengths = next
	}
	return lengths
}
