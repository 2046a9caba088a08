package reduce

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/matzehuels/wsm/pkg/wsm/analytics"
	"github.com/matzehuels/wsm/pkg/wsm/checked"
	"github.com/matzehuels/wsm/pkg/wsm/search"
)

// WeightNogood estimates the smallest scalar product still to be added by
// the unmatched pattern edges, and reports a nogood when it exceeds the room
// left under the weight cap.
//
// Every target edge that could carry a pattern edge touching pv has weight at
// least lb(pv), the minimum over Dom(pv) of the lightest edge leaving each
// target vertex. Only target vertices with at least one still valid neighbour
// count; a target vertex with none can never be used and is reported as
// invalid.
type WeightNogood struct {
	pattern, target *analytics.Neighbours

	valid    *bitset.BitSet
	minKnown *bitset.BitSet
	minT     []uint64
	lower    []uint64
	invalid  []int
	strong   bool
}

// NewWeightNogood creates a detector. used holds every target vertex that
// appears in some initial domain.
func NewWeightNogood(pattern, target *analytics.Neighbours, used *bitset.BitSet) *WeightNogood {
	n := target.NumVertices()
	return &WeightNogood{
		pattern:  pattern,
		target:   target,
		valid:    used.Clone(),
		minKnown: bitset.New(uint(n)),
		minT:     make([]uint64, n),
		lower:    make([]uint64, pattern.NumVertices()),
	}
}

// ValidTargetVertices returns how many target vertices are still usable.
func (w *WeightNogood) ValidTargetVertices() int { return int(w.valid.Count()) }

// Invalid drains the target vertices found unusable since the last call.
// They can never be part of any solution and may be erased everywhere.
func (w *WeightNogood) Invalid() []int {
	out := w.invalid
	w.invalid = nil
	return out
}

// Strong reports whether the last nogood came from an assigned target vertex
// that was invalid from the start.
func (w *WeightNogood) Strong() bool { return w.strong }

// Check returns false if the remaining pattern edges cannot fit within
// maxExtra additional scalar product.
func (w *WeightNogood) Check(nodes *search.Nodes, maxExtra uint64) bool {
	w.strong = false
	if !w.fillLower(nodes) {
		return false
	}
	var total uint64
	for _, pv1 := range nodes.Unassigned() {
		lb1 := w.lower[pv1]
		for _, nb := range w.pattern.Adjacent(pv1) {
			estimate := lb1
			if tv2 := nodes.Assigned(nb.V); tv2 != search.Unassigned {
				m, ok := w.minWeight(tv2)
				if !ok {
					w.markInvalid(tv2)
					w.strong = true
					return false
				}
				estimate = max(estimate, m)
			} else {
				// Count each unassigned pair once.
				if pv1 > nb.V {
					continue
				}
				estimate = max(estimate, w.lower[nb.V])
			}
			var ok bool
			total, ok = checked.MulAdd(total, nb.Weight, estimate)
			if !ok || total > maxExtra {
				return false
			}
		}
	}
	return true
}

func (w *WeightNogood) fillLower(nodes *search.Nodes) bool {
	for pv := range w.lower {
		lb, found := checked.Max, false
		dom := nodes.Domain(pv)
		for tv, ok := dom.NextSet(0); ok; tv, ok = dom.NextSet(tv + 1) {
			m, valid := w.minWeight(int(tv))
			if !valid {
				w.markInvalid(int(tv))
				continue
			}
			lb, found = min(lb, m), true
		}
		if !found {
			return false
		}
		w.lower[pv] = lb
	}
	return true
}

// minWeight returns the lightest edge from tv to a valid neighbour. A
// memoised value may be stale after neighbours are invalidated, but it can
// only be lower than the fresh one, so it remains a lower bound.
func (w *WeightNogood) minWeight(tv int) (uint64, bool) {
	if !w.valid.Test(uint(tv)) {
		return 0, false
	}
	if w.minKnown.Test(uint(tv)) {
		return w.minT[tv], true
	}
	m, found := checked.Max, false
	for _, nb := range w.target.Adjacent(tv) {
		if w.valid.Test(uint(nb.V)) {
			m, found = min(m, nb.Weight), true
		}
	}
	if !found {
		return 0, false
	}
	w.minKnown.Set(uint(tv))
	w.minT[tv] = m
	return m, true
}

func (w *WeightNogood) markInvalid(tv int) {
	if w.valid.Test(uint(tv)) {
		w.invalid = append(w.invalid, tv)
		w.valid.Clear(uint(tv))
	}
}
