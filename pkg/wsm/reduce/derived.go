package reduce

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/matzehuels/wsm/pkg/wsm/analytics"
	"github.com/matzehuels/wsm/pkg/wsm/search"
)

// Derived filters domains with the derived graphs D2 and D3.
//
// For a new assignment pv->tv, every D(k)-neighbour pv2 of pv with count w
// may only map to D(k)-neighbours of tv with count at least w. Pattern
// vertices at D(k)-distance exactly two from pv must map within D(k)-distance
// two of tv.
type Derived struct {
	pattern, target *analytics.Derived
	patternHops     [2]*analytics.DerivedHops
	targetHops      [2]*analytics.DerivedHops
	mask            *bitset.BitSet
}

// NewDerived creates the reducer over shared derived-graph caches.
func NewDerived(pattern, target *analytics.Derived) *Derived {
	return &Derived{
		pattern:     pattern,
		target:      target,
		patternHops: [2]*analytics.DerivedHops{analytics.NewDerivedHops(pattern, 2), analytics.NewDerivedHops(pattern, 3)},
		targetHops:  [2]*analytics.DerivedHops{analytics.NewDerivedHops(target, 2), analytics.NewDerivedHops(target, 3)},
		mask:        bitset.New(uint(target.Graph().NumVertices())),
	}
}

// Check compares triangle counts and the sorted D2 and D3 count sequences.
func (r *Derived) Check(a search.Assignment) bool {
	p := r.pattern.Get(a.PV)
	t := r.target.Get(a.TV)
	return t.Triangles >= p.Triangles &&
		analytics.Dominates(t.D2Counts, p.D2Counts) &&
		analytics.Dominates(t.D3Counts, p.D3Counts)
}

// Reduce applies the D2 and D3 constraints of a.
func (r *Derived) Reduce(a search.Assignment, nodes *search.Nodes) bool {
	for i, k := range [2]int{2, 3} {
		if !r.reduceNeighbours(k, a, nodes) {
			return false
		}
		far := r.patternHops[i].AtDistanceTwo(a.PV)
		if far.None() {
			continue
		}
		within := r.targetHops[i].WithinTwo(a.TV)
		for pv, ok := far.NextSet(0); ok; pv, ok = far.NextSet(pv + 1) {
			if !nodes.Intersect(int(pv), within) {
				return false
			}
		}
	}
	return true
}

func (r *Derived) reduceNeighbours(k int, a search.Assignment, nodes *search.Nodes) bool {
	p := r.pattern.Get(a.PV)
	t := r.target.Get(a.TV)
	targets := t.Neighbours(k)
	for _, e := range p.Neighbours(k) {
		if tv := nodes.Assigned(e.V); tv != search.Unassigned {
			if t.Count(k, tv) < e.Count {
				return false
			}
			continue
		}
		r.mask.ClearAll()
		for _, te := range targets {
			if te.Count >= e.Count {
				r.mask.Set(uint(te.V))
			}
		}
		if !nodes.Intersect(e.V, r.mask) {
			return false
		}
	}
	return true
}
