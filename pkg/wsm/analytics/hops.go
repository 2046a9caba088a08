package analytics

import "github.com/bits-and-blooms/bitset"

// DerivedHops memoises second-hop neighbourhoods in a derived graph D(k).
//
// For a vertex v, AtDistanceTwo holds the vertices reachable by two D(k)
// edges but not by one (and not v itself); WithinTwo holds the vertices
// reachable by one or two D(k) edges. A monomorphism cannot increase D(k)
// distance, so a pattern vertex at D(k)-distance 2 must map inside the
// target's WithinTwo set.
type DerivedHops struct {
	d      *Derived
	k      int
	exact  []*bitset.BitSet
	within []*bitset.BitSet
}

// NewDerivedHops creates an empty memo over d for k = 2 or 3.
func NewDerivedHops(d *Derived, k int) *DerivedHops {
	n := d.Graph().NumVertices()
	return &DerivedHops{
		d:      d,
		k:      k,
		exact:  make([]*bitset.BitSet, n),
		within: make([]*bitset.BitSet, n),
	}
}

// AtDistanceTwo returns the D(k)-distance-2 set of v. Do not modify it.
func (h *DerivedHops) AtDistanceTwo(v int) *bitset.BitSet {
	h.fill(v)
	return h.exact[v]
}

// WithinTwo returns the D(k)-distance 1 or 2 set of v. Do not modify it.
func (h *DerivedHops) WithinTwo(v int) *bitset.BitSet {
	h.fill(v)
	return h.within[v]
}

func (h *DerivedHops) fill(v int) {
	if h.exact[v] != nil {
		return
	}
	n := uint(len(h.exact))
	first := bitset.New(n)
	for _, e := range h.d.Get(v).Neighbours(h.k) {
		first.Set(uint(e.V))
	}
	second := bitset.New(n)
	for u, ok := first.NextSet(0); ok; u, ok = first.NextSet(u + 1) {
		for _, e := range h.d.Get(int(u)).Neighbours(h.k) {
			second.Set(uint(e.V))
		}
	}
	second.InPlaceDifference(first)
	second.Clear(uint(v))
	h.exact[v] = second
	h.within[v] = first.Union(second)
}
