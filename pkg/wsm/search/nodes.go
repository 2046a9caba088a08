package search

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/matzehuels/wsm/pkg/wsm/analytics"
)

// Unassigned marks a pattern vertex with no target vertex yet.
const Unassigned = -1

// Assignment maps a pattern vertex to a target vertex.
type Assignment struct {
	PV, TV int
}

type domainEntry struct {
	dom  *bitset.BitSet
	node int // index of the node that created this entry
}

type node struct {
	// newAssignments is the queue of assignments made at this node that the
	// reducers have not finished with. It is cleared once the node is fully
	// reduced.
	newAssignments []Assignment
	// created lists the pattern vertices assigned at this node, in order.
	created []int
	// deferred assignments arise in a parent when MoveDown leaves a single
	// value in the branched domain; they take effect when the child is popped.
	deferred []Assignment

	scalarProduct uint64
	totalPWeight  uint64
	nogood        bool

	candidates      []int
	candidatesValid bool
}

// Nodes is the explicit backtracking stack.
//
// Rather than copying every domain at every depth, each pattern vertex owns a
// stack of (domain, node index) entries. The domain of pv at the current node
// is the top entry of its stack. Writing to a domain that was created by an
// ancestor pushes a private copy first; moving up discards every entry created
// at a deeper node.
//
// A pattern vertex is unassigned exactly when its current domain has at least
// two members. Reducing a domain to one member immediately records an
// assignment; reducing it to zero marks the current node as a nogood.
type Nodes struct {
	numTV    int
	nodes    []node
	domains  [][]domainEntry
	assigned []int
	counted  []bool
	free     []*bitset.BitSet
}

// NewNodes creates the root node from initial domains over numTV target
// vertices. Singleton domains become root assignments. It panics on an empty
// domain, which initialisation must already have rejected.
func NewNodes(initial []*bitset.BitSet, numTV int) *Nodes {
	s := &Nodes{
		numTV:    numTV,
		nodes:    []node{{}},
		domains:  make([][]domainEntry, len(initial)),
		assigned: make([]int, len(initial)),
		counted:  make([]bool, len(initial)),
	}
	for pv, dom := range initial {
		s.assigned[pv] = Unassigned
		s.domains[pv] = []domainEntry{{dom: dom.Clone(), node: 0}}
		switch dom.Count() {
		case 0:
			panic("search: empty initial domain")
		case 1:
			tv, _ := dom.NextSet(0)
			s.assign(pv, int(tv))
		}
	}
	return s
}

// NumPatternVertices returns the number of pattern vertices.
func (s *Nodes) NumPatternVertices() int { return len(s.domains) }

// NumTargetVertices returns the size of the target vertex universe.
func (s *Nodes) NumTargetVertices() int { return s.numTV }

// Depth returns the index of the current node; the root has depth 0.
func (s *Nodes) Depth() int { return len(s.nodes) - 1 }

func (s *Nodes) current() *node { return &s.nodes[len(s.nodes)-1] }

// Domain returns the current domain of pv. The set must not be modified.
func (s *Nodes) Domain(pv int) *bitset.BitSet {
	entries := s.domains[pv]
	return entries[len(entries)-1].dom
}

// DomainSize returns the size of pv's current domain.
func (s *Nodes) DomainSize(pv int) int { return int(s.Domain(pv).Count()) }

// Assigned returns the target vertex of pv, or Unassigned.
func (s *Nodes) Assigned(pv int) int { return s.assigned[pv] }

// IsAssigned reports whether pv has been assigned.
func (s *Nodes) IsAssigned(pv int) bool { return s.assigned[pv] != Unassigned }

// NewAssignments returns the current node's unprocessed assignment queue.
// The slice grows while reducers run; callers index into it by position.
func (s *Nodes) NewAssignments() []Assignment { return s.current().newAssignments }

// ClearNewAssignments empties the queue once the node is fully reduced.
func (s *Nodes) ClearNewAssignments() { s.current().newAssignments = s.current().newAssignments[:0] }

// Nogood reports whether the current node has been proven infeasible.
func (s *Nodes) Nogood() bool { return s.current().nogood }

// MarkNogood flags the current node as infeasible.
func (s *Nodes) MarkNogood() { s.current().nogood = true }

// ScalarProduct returns the scalar product accumulated at the current node.
func (s *Nodes) ScalarProduct() uint64 { return s.current().scalarProduct }

// TotalPWeight returns the pattern edge weight matched at the current node.
func (s *Nodes) TotalPWeight() uint64 { return s.current().totalPWeight }

// SetWeights records the accumulated scalar product and matched weight.
func (s *Nodes) SetWeights(scalarProduct, totalPWeight uint64) {
	n := s.current()
	n.scalarProduct = scalarProduct
	n.totalPWeight = totalPWeight
}

// Counted reports whether pv's incident edges have entered the scalar product.
func (s *Nodes) Counted(pv int) bool { return s.counted[pv] }

// SetCounted marks pv as included in the scalar product.
func (s *Nodes) SetCounted(pv int) { s.counted[pv] = true }

// Unassigned returns the unassigned pattern vertices in increasing order.
func (s *Nodes) Unassigned() []int {
	var out []int
	for pv, tv := range s.assigned {
		if tv == Unassigned {
			out = append(out, pv)
		}
	}
	return out
}

// Assignments returns every current assignment in creation order.
func (s *Nodes) Assignments() []Assignment {
	var out []Assignment
	for i := range s.nodes {
		for _, pv := range s.nodes[i].created {
			out = append(out, Assignment{PV: pv, TV: s.assigned[pv]})
		}
	}
	return out
}

// CountedAssignments returns the assignments whose edges are already part of
// the scalar product, in creation order.
func (s *Nodes) CountedAssignments() []Assignment {
	var out []Assignment
	for i := range s.nodes {
		for _, pv := range s.nodes[i].created {
			if s.counted[pv] {
				out = append(out, Assignment{PV: pv, TV: s.assigned[pv]})
			}
		}
	}
	return out
}

// Candidates returns the unassigned pattern vertices adjacent to an assigned
// one, or every unassigned vertex if there are none (for example when the
// pattern has several components).
func (s *Nodes) Candidates(pattern *analytics.Neighbours) []int {
	n := s.current()
	if n.candidatesValid {
		return n.candidates
	}
	n.candidates = n.candidates[:0]
	for pv, tv := range s.assigned {
		if tv != Unassigned {
			continue
		}
		for _, nb := range pattern.Adjacent(pv) {
			if s.assigned[nb.V] != Unassigned {
				n.candidates = append(n.candidates, pv)
				break
			}
		}
	}
	if len(n.candidates) == 0 {
		n.candidates = append(n.candidates, s.Unassigned()...)
	}
	n.candidatesValid = true
	return n.candidates
}

// writable returns pv's domain for modification at the current node.
func (s *Nodes) writable(pv int) *bitset.BitSet {
	cur := len(s.nodes) - 1
	entries := s.domains[pv]
	top := entries[len(entries)-1]
	if top.node == cur {
		return top.dom
	}
	dom := s.alloc()
	top.dom.Copy(dom)
	s.domains[pv] = append(entries, domainEntry{dom: dom, node: cur})
	return dom
}

func (s *Nodes) alloc() *bitset.BitSet {
	if k := len(s.free); k > 0 {
		b := s.free[k-1]
		s.free = s.free[:k-1]
		return b
	}
	return bitset.New(uint(s.numTV))
}

func (s *Nodes) assign(pv, tv int) {
	n := s.current()
	s.assigned[pv] = tv
	n.created = append(n.created, pv)
	n.newAssignments = append(n.newAssignments, Assignment{PV: pv, TV: tv})
	n.candidatesValid = false
}

// settle promotes or fails pv after its domain shrank.
func (s *Nodes) settle(pv int, dom *bitset.BitSet) bool {
	switch dom.Count() {
	case 0:
		s.MarkNogood()
		return false
	case 1:
		tv, _ := dom.NextSet(0)
		s.assign(pv, int(tv))
	}
	return true
}

// Erase removes tv from pv's domain. It returns false if the node becomes a
// nogood, which includes pv already being assigned to tv.
func (s *Nodes) Erase(pv, tv int) bool {
	if cur := s.assigned[pv]; cur != Unassigned {
		if cur == tv {
			s.MarkNogood()
			return false
		}
		return true
	}
	if !s.Domain(pv).Test(uint(tv)) {
		return true
	}
	dom := s.writable(pv)
	dom.Clear(uint(tv))
	return s.settle(pv, dom)
}

// Intersect restricts pv's domain to mask. It returns false if the node
// becomes a nogood, which includes pv being assigned outside mask.
func (s *Nodes) Intersect(pv int, mask *bitset.BitSet) bool {
	if cur := s.assigned[pv]; cur != Unassigned {
		if !mask.Test(uint(cur)) {
			s.MarkNogood()
			return false
		}
		return true
	}
	current := s.Domain(pv)
	if current.IntersectionCardinality(mask) == current.Count() {
		return true
	}
	dom := s.writable(pv)
	dom.InPlaceIntersection(mask)
	return s.settle(pv, dom)
}

// Filter keeps only the members of pv's domain for which keep returns true.
func (s *Nodes) Filter(pv int, keep func(tv int) bool) bool {
	if cur := s.assigned[pv]; cur != Unassigned {
		if !keep(cur) {
			s.MarkNogood()
			return false
		}
		return true
	}
	current := s.Domain(pv)
	var dom *bitset.BitSet
	for tv, ok := current.NextSet(0); ok; tv, ok = current.NextSet(tv + 1) {
		if keep(int(tv)) {
			continue
		}
		if dom == nil {
			dom = s.writable(pv)
		}
		dom.Clear(tv)
	}
	if dom == nil {
		return true
	}
	return s.settle(pv, dom)
}

// AllDiff propagates the injectivity constraint for every queued assignment
// from index start onwards, cascading through newly created assignments. It
// returns the number of queued assignments processed and false on a nogood.
func (s *Nodes) AllDiff(start int) (int, bool) {
	i := start
	for ; i < len(s.current().newAssignments); i++ {
		a := s.current().newAssignments[i]
		for pv := range s.domains {
			if pv == a.PV {
				continue
			}
			if !s.Erase(pv, a.TV) {
				return i, false
			}
		}
	}
	return i, true
}

// MoveDown branches on pv -> tv. In the current node tv is removed from pv's
// domain, so that once the child is exhausted the parent continues without
// it; the child node starts with the single new assignment.
func (s *Nodes) MoveDown(pv, tv int) {
	parent := s.current()
	if parent.nogood || len(parent.newAssignments) != 0 {
		panic("search: move down from an unreduced node")
	}
	if s.assigned[pv] != Unassigned || !s.Domain(pv).Test(uint(tv)) {
		panic("search: invalid branching assignment")
	}
	dom := s.writable(pv)
	dom.Clear(uint(tv))
	if dom.Count() == 1 {
		other, _ := dom.NextSet(0)
		parent.deferred = append(parent.deferred, Assignment{PV: pv, TV: int(other)})
	}

	s.nodes = append(s.nodes, node{
		scalarProduct: parent.scalarProduct,
		totalPWeight:  parent.totalPWeight,
	})
	single := s.alloc()
	single.ClearAll()
	single.Set(uint(tv))
	s.domains[pv] = append(s.domains[pv], domainEntry{dom: single, node: len(s.nodes) - 1})
	s.assign(pv, tv)
}

// MoveUp discards the current node and returns to its parent. Deferred
// assignments of the parent take effect. It returns false if the current node
// is the root, in which case the search space is exhausted.
func (s *Nodes) MoveUp() bool {
	if len(s.nodes) <= 1 {
		return false
	}
	top := len(s.nodes) - 1
	for _, pv := range s.nodes[top].created {
		s.assigned[pv] = Unassigned
		s.counted[pv] = false
	}
	s.nodes[top] = node{}
	s.nodes = s.nodes[:top]

	for pv, entries := range s.domains {
		k := len(entries)
		for k > 0 && entries[k-1].node >= top {
			s.free = append(s.free, entries[k-1].dom)
			k--
		}
		s.domains[pv] = entries[:k]
	}

	parent := s.current()
	parent.nogood = false
	parent.candidatesValid = false
	for _, a := range parent.deferred {
		s.assign(a.PV, a.TV)
	}
	parent.deferred = parent.deferred[:0]
	return true
}
