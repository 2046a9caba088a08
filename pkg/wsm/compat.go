package wsm

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/matzehuels/wsm/pkg/wsm/search"
)

// compatCache remembers isolated compatibility results for the lifetime of
// a solver. A rejected assignment or target vertex stays rejected at every
// node, so it is erased again whenever a node is reduced.
type compatCache struct {
	accepted []*bitset.BitSet
	rejected []*bitset.BitSet

	rejectedList []search.Assignment
	deadTV       *bitset.BitSet
	deadList     []int
}

func newCompatCache(np, nt int) *compatCache {
	c := &compatCache{
		accepted: make([]*bitset.BitSet, np),
		rejected: make([]*bitset.BitSet, np),
		deadTV:   bitset.New(uint(nt)),
	}
	for pv := range c.accepted {
		c.accepted[pv] = bitset.New(uint(nt))
		c.rejected[pv] = bitset.New(uint(nt))
	}
	return c
}

func (c *compatCache) isAccepted(a search.Assignment) bool {
	return c.accepted[a.PV].Test(uint(a.TV))
}

func (c *compatCache) isRejected(a search.Assignment) bool {
	return c.deadTV.Test(uint(a.TV)) || c.rejected[a.PV].Test(uint(a.TV))
}

func (c *compatCache) accept(a search.Assignment) { c.accepted[a.PV].Set(uint(a.TV)) }

func (c *compatCache) reject(a search.Assignment) {
	if !c.rejected[a.PV].Test(uint(a.TV)) {
		c.rejected[a.PV].Set(uint(a.TV))
		c.rejectedList = append(c.rejectedList, a)
	}
}

// killTarget records tv as unusable by any pattern vertex. It reports
// whether tv was new.
func (c *compatCache) killTarget(tv int) bool {
	if c.deadTV.Test(uint(tv)) {
		return false
	}
	c.deadTV.Set(uint(tv))
	c.deadList = append(c.deadList, tv)
	return true
}

// apply erases every known impossibility from the current node.
func (c *compatCache) apply(nodes *search.Nodes) bool {
	for _, a := range c.rejectedList {
		if !nodes.Erase(a.PV, a.TV) {
			return false
		}
	}
	for _, tv := range c.deadList {
		for pv := 0; pv < nodes.NumPatternVertices(); pv++ {
			if !nodes.Erase(pv, tv) {
				return false
			}
		}
	}
	return true
}
