package wsm

import (
	"slices"

	"github.com/bits-and-blooms/bitset"

	"github.com/matzehuels/wsm/pkg/wsm/analytics"
	"github.com/matzehuels/wsm/pkg/wsm/checked"
)

// checkSafe proves that no scalar product the search can form overflows.
//
// The crude estimate is total pattern weight times the heaviest target edge.
// If that overflows, each pattern vertex's incident weight is paired with
// the heaviest edge at any target vertex in its domain, which counts every
// pattern edge twice and is still an upper bound.
func checkSafe(pattern, target *analytics.Neighbours, domains []*bitset.BitSet) error {
	weights := make([]uint64, 0, pattern.NumEdges())
	for _, e := range pattern.Edges() {
		weights = append(weights, e.Weight)
	}
	if total, ok := checked.Sum(weights); ok {
		if _, ok := checked.Mul(total, target.MaxWeight()); ok {
			return nil
		}
	}

	var refined uint64
	for pv, dom := range domains {
		incident, ok := checked.Sum(pattern.IncidentWeights(pv))
		if !ok {
			return ErrWeightOverflow
		}
		var heaviest uint64
		for tv, more := dom.NextSet(0); more; tv, more = dom.NextSet(tv + 1) {
			heaviest = max(heaviest, target.MaxIncidentWeight(int(tv)))
		}
		if refined, ok = checked.MulAdd(refined, incident, heaviest); !ok {
			return ErrWeightOverflow
		}
	}
	return nil
}

// trivialBounds pairs sorted pattern weights against the lightest and the
// heaviest target weights by the rearrangement inequality. Any complete
// solution lies between the two. Overflow saturates at checked.Max.
func trivialBounds(pattern, target *analytics.Neighbours) (lower, upper uint64) {
	p := sortedWeights(pattern)
	t := sortedWeights(target)
	m, n := len(p), len(t)
	if m == 0 || m > n {
		return 0, 0
	}
	for i, w := range p {
		lower = saturatingMulAdd(lower, w, t[m-1-i])
		upper = saturatingMulAdd(upper, w, t[i+n-m])
	}
	return lower, upper
}

func sortedWeights(g *analytics.Neighbours) []uint64 {
	ws := make([]uint64, 0, g.NumEdges())
	for _, e := range g.Edges() {
		ws = append(ws, e.Weight)
	}
	slices.Sort(ws)
	return ws
}

func saturatingMulAdd(acc, x, y uint64) uint64 {
	if v, ok := checked.MulAdd(acc, x, y); ok {
		return v
	}
	return checked.Max
}
