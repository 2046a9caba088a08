package analytics

import (
	"cmp"
	"slices"
)

// DerivedEntry is one neighbour in a derived graph: the number of distinct
// simple paths of the given length between the two endpoints.
type DerivedEntry struct {
	V     int
	Count uint64
}

// DerivedData holds the derived-graph neighbourhoods of one vertex.
//
// D2 and D3 are sorted by vertex index. D2Counts and D3Counts hold the same
// counts sorted in descending order, for degree-sequence style comparison
// with [Dominates]. Triangles is the number of ordered closed walks
// v-a-b-v with a != b, which a monomorphism can only preserve or increase.
type DerivedData struct {
	D2, D3             []DerivedEntry
	D2Counts, D3Counts []uint64
	Triangles          uint64
}

// Neighbours returns the D(k) neighbourhood for k = 2 or 3.
func (d *DerivedData) Neighbours(k int) []DerivedEntry {
	if k == 2 {
		return d.D2
	}
	return d.D3
}

// Counts returns the descending D(k) counts for k = 2 or 3.
func (d *DerivedData) Counts(k int) []uint64 {
	if k == 2 {
		return d.D2Counts
	}
	return d.D3Counts
}

// Count returns the D(k) weight between the owning vertex and v.
func (d *DerivedData) Count(k, v int) uint64 {
	list := d.Neighbours(k)
	i, found := slices.BinarySearchFunc(list, v, func(e DerivedEntry, target int) int {
		return cmp.Compare(e.V, target)
	})
	if !found {
		return 0
	}
	return list[i].Count
}

// Derived lazily computes and caches [DerivedData] per vertex.
//
// Data lives in an arena addressed by stable integer indices. The arena is
// allocated with capacity for every vertex up front, so a *DerivedData
// returned by [Derived.Get] stays valid while other vertices are computed.
// Nothing is ever invalidated or recomputed.
type Derived struct {
	g     *Neighbours
	index []int32 // vertex -> arena slot, -1 until computed
	arena []DerivedData

	counts  []uint64
	touched []int
}

// NewDerived prepares a derived-graph cache over g.
func NewDerived(g *Neighbours) *Derived {
	n := g.NumVertices()
	index := make([]int32, n)
	for i := range index {
		index[i] = -1
	}
	return &Derived{
		g:      g,
		index:  index,
		arena:  make([]DerivedData, 0, n),
		counts: make([]uint64, n),
	}
}

// Graph returns the underlying adjacency data.
func (d *Derived) Graph() *Neighbours { return d.g }

// Computed returns the number of vertices whose data has been computed.
func (d *Derived) Computed() int { return len(d.arena) }

// Get returns the derived data of v, computing it on first use.
func (d *Derived) Get(v int) *DerivedData {
	if slot := d.index[v]; slot >= 0 {
		return &d.arena[slot]
	}
	d.arena = append(d.arena, d.compute(v))
	d.index[v] = int32(len(d.arena) - 1)
	return &d.arena[len(d.arena)-1]
}

func (d *Derived) compute(v int) DerivedData {
	var data DerivedData

	// Length-2 paths v-a-w, and triangles v-a-b-v.
	for _, a := range d.g.Adjacent(v) {
		for _, b := range d.g.Adjacent(a.V) {
			if b.V == v {
				continue
			}
			d.bump(b.V)
			if _, ok := d.g.Weight(b.V, v); ok {
				data.Triangles++
			}
		}
	}
	data.D2, data.D2Counts = d.collect()

	// Length-3 simple paths v-a-b-x.
	for _, a := range d.g.Adjacent(v) {
		for _, b := range d.g.Adjacent(a.V) {
			if b.V == v {
				continue
			}
			for _, x := range d.g.Adjacent(b.V) {
				if x.V == v || x.V == a.V {
					continue
				}
				d.bump(x.V)
			}
		}
	}
	data.D3, data.D3Counts = d.collect()
	return data
}

func (d *Derived) bump(v int) {
	if d.counts[v] == 0 {
		d.touched = append(d.touched, v)
	}
	d.counts[v]++
}

// collect drains the scratch counters into a sorted entry list.
func (d *Derived) collect() ([]DerivedEntry, []uint64) {
	entries := make([]DerivedEntry, 0, len(d.touched))
	counts := make([]uint64, 0, len(d.touched))
	for _, v := range d.touched {
		entries = append(entries, DerivedEntry{V: v, Count: d.counts[v]})
		counts = append(counts, d.counts[v])
		d.counts[v] = 0
	}
	d.touched = d.touched[:0]
	slices.SortFunc(entries, func(x, y DerivedEntry) int { return cmp.Compare(x.V, y.V) })
	slices.SortFunc(counts, func(x, y uint64) int { return cmp.Compare(y, x) })
	return entries, counts
}
