package reduce

import (
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/matzehuels/wsm/pkg/wsm/search"
)

// maxFailedAttempts is how many consecutive unchanged refills a partition
// survives before it is dropped.
const maxFailedAttempts = 5

// A Hall set is a set of k pattern vertices whose domains have a union of
// exactly k target vertices. Those target vertices are then used up, and may
// be erased from every other domain. A union smaller than k is a nogood.
//
// Finding Hall sets exactly is expensive, so HallSet only tries the greedy
// chain obtained by adding domains in increasing size order. Pattern vertices
// are kept in partitions: once a Hall set is found, the rest of its partition
// is disjoint from it, so the two halves never interact again at this node.
type HallSet struct {
	partitions []*partition
	needFill   bool
	union      *bitset.BitSet
	outside    func(tv int) bool
}

type hallEntry struct {
	pv   int
	size int
}

type partition struct {
	// entries are sorted by size descending, so the smallest domains are at
	// the back.
	entries  []hallEntry
	attempts int
}

type fillResult int

const (
	fillChanged fillResult = iota
	fillUnchanged
	fillErase
	fillNogood
)

type searchResult int

const (
	noHallSet searchResult = iota
	foundHallSet
	foundNogood
)

// NewHallSet creates a Hall set reducer over numTV target vertices.
func NewHallSet(numTV int) *HallSet {
	h := &HallSet{needFill: true, union: bitset.New(uint(numTV))}
	h.outside = func(tv int) bool { return !h.union.Test(uint(tv)) }
	return h
}

// Clear forgets all partitions. Call at the start of every node.
func (h *HallSet) Clear() { h.needFill = true }

// Partitions returns the number of live partitions.
func (h *HallSet) Partitions() int { return len(h.partitions) }

// Reduce searches every partition for a Hall set and applies those found.
func (h *HallSet) Reduce(nodes *search.Nodes) Result {
	fresh := h.needFill
	if h.needFill {
		h.needFill = false
		p := &partition{}
		h.partitions = h.partitions[:0]
		switch p.fill(nodes) {
		case fillNogood:
			return Nogood
		case fillChanged:
			h.partitions = append(h.partitions, p)
		}
	}
	if len(h.partitions) == 0 {
		return Success
	}

	result := Success
	var created []*partition
	keep := h.partitions[:0]
	for _, p := range h.partitions {
		if !fresh {
			switch p.refill(nodes) {
			case fillNogood:
				return Nogood
			case fillErase:
				continue
			case fillUnchanged:
				p.attempts++
				if p.attempts < maxFailedAttempts {
					keep = append(keep, p)
				}
				continue
			case fillChanged:
				p.attempts = 0
			}
		}

		switch p.search(nodes, h.union) {
		case foundNogood:
			return Nogood
		case noHallSet:
			keep = append(keep, p)
			continue
		}

		k := int(h.union.Count())
		rest := len(p.entries) - k
		assigned := 0
		for i := 0; i < rest; i++ {
			pv := p.entries[i].pv
			before := nodes.DomainSize(pv)
			wasAssigned := nodes.IsAssigned(pv)
			if !nodes.Filter(pv, h.outside) {
				return Nogood
			}
			p.entries[i].size = nodes.DomainSize(pv)
			if !wasAssigned && before > 1 && nodes.IsAssigned(pv) {
				assigned++
			}
		}
		if assigned > 0 {
			result = NewAssignments
		}
		if k > 2 {
			hall := make([]hallEntry, k)
			copy(hall, p.entries[rest:])
			created = append(created, &partition{entries: hall})
		}
		if rest-assigned >= 3 {
			p.entries = p.entries[:rest]
			keep = append(keep, p)
		}
	}
	h.partitions = append(keep, created...)
	return result
}

func (p *partition) fill(nodes *search.Nodes) fillResult {
	p.entries = p.entries[:0]
	p.attempts = 0
	for _, pv := range nodes.Unassigned() {
		switch size := nodes.DomainSize(pv); size {
		case 0:
			return fillNogood
		case 1:
		default:
			p.entries = append(p.entries, hallEntry{pv: pv, size: size})
		}
	}
	return p.settle()
}

func (p *partition) refill(nodes *search.Nodes) fillResult {
	changed := false
	for i := range p.entries {
		size := nodes.DomainSize(p.entries[i].pv)
		if size == 0 {
			return fillNogood
		}
		if size != p.entries[i].size {
			changed = true
			p.entries[i].size = size
		}
	}
	if !changed {
		return fillUnchanged
	}
	return p.settle()
}

// settle sorts entries and drops singletons. Fewer than three entries can
// never yield a useful Hall set.
func (p *partition) settle() fillResult {
	if len(p.entries) < 3 {
		return fillErase
	}
	sort.Slice(p.entries, func(i, j int) bool {
		a, b := p.entries[i], p.entries[j]
		if a.size != b.size {
			return a.size > b.size
		}
		return a.pv > b.pv
	})
	n := len(p.entries)
	for n > 0 && p.entries[n-1].size < 2 {
		n--
	}
	p.entries = p.entries[:n]
	if n < 3 {
		return fillErase
	}
	return fillChanged
}

// search grows a union from the smallest domain upwards. On foundHallSet the
// union holds the Hall set's target vertices, and its pattern vertices are
// the last union.Count() entries.
func (p *partition) search(nodes *search.Nodes, union *bitset.BitSet) searchResult {
	n := len(p.entries)
	if p.entries[n-1].size >= n {
		return noHallSet
	}
	nodes.Domain(p.entries[n-1].pv).Copy(union)

	for next := 2; next < n; next++ {
		// The union can never shrink, and is at least as large as each
		// domain in it. Give up once no later prefix can be small enough.
		bound := int(union.Count())
		possible := false
		for k := next; k < n; k++ {
			bound = max(bound, p.entries[n-k].size)
			if bound <= k {
				possible = true
				break
			}
		}
		if !possible {
			return noHallSet
		}
		union.InPlaceUnion(nodes.Domain(p.entries[n-next].pv))
		switch size := int(union.Count()); {
		case size < next:
			return foundNogood
		case size == next:
			return foundHallSet
		}
	}
	return noHallSet
}
