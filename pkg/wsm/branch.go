package wsm

import (
	"github.com/matzehuels/wsm/pkg/wsm/checked"
	"github.com/matzehuels/wsm/pkg/wsm/reduce"
)

// reduceNode runs every propagator on the current node until nothing
// changes. It returns false if the node is a nogood.
//
// The cheap steps (all-different, isolated checks, scalar product, weight
// bound) run first on each batch of new assignments. The graph-theoretic
// reducers follow, and any new assignment they produce sends the loop back
// to the cheap steps. Hall sets run last.
func (s *Solver) reduceNode() bool {
	n := s.nodes
	for _, w := range s.reducers {
		w.Clear()
	}
	s.hall.Clear()
	// The cap may have dropped since this node was last reduced.
	if n.ScalarProduct() > s.maxWeight {
		n.MarkNogood()
		return false
	}
	if !s.compat.apply(n) {
		return false
	}

	done := 0
	for {
		end, ok := n.AllDiff(done)
		if !ok || !s.checkAssignments(done, end) || !s.accumulate(done, end) {
			return false
		}
		done = end
		if !s.checkWeights() {
			return false
		}
		if done < len(n.NewAssignments()) {
			continue
		}
		switch s.runReducers() {
		case reduce.Nogood:
			return false
		case reduce.NewAssignments:
			continue
		}
		if s.hall.Reduce(n) == reduce.Nogood {
			return false
		}
		if done == len(n.NewAssignments()) {
			break
		}
	}
	n.ClearNewAssignments()
	return true
}

func (s *Solver) runReducers() reduce.Result {
	for _, w := range s.reducers {
		if r := w.Reduce(s.nodes); r != reduce.Success {
			return r
		}
	}
	return reduce.Success
}

// checkAssignments tests each new assignment in isolation, consulting the
// session cache first.
func (s *Solver) checkAssignments(from, to int) bool {
	for _, a := range s.nodes.NewAssignments()[from:to] {
		if s.compat.isRejected(a) {
			s.nodes.MarkNogood()
			return false
		}
		if s.compat.isAccepted(a) {
			continue
		}
		for _, w := range s.reducers {
			if !w.Check(a) {
				s.compat.reject(a)
				s.stats.ImpossibleAssignments++
				s.nodes.MarkNogood()
				return false
			}
		}
		s.compat.accept(a)
	}
	return true
}

// accumulate adds the pattern edges closed by each new assignment to the
// scalar product.
func (s *Solver) accumulate(from, to int) bool {
	n := s.nodes
	pattern, target := s.pattern.graph, s.target.graph
	sp, pw := n.ScalarProduct(), n.TotalPWeight()
	for _, a := range n.NewAssignments()[from:to] {
		for _, nb := range pattern.Adjacent(a.PV) {
			if !n.Counted(nb.V) {
				continue
			}
			wt, ok := target.Weight(a.TV, n.Assigned(nb.V))
			if !ok || wt < nb.Weight {
				n.MarkNogood()
				return false
			}
			if sp, ok = checked.MulAdd(sp, nb.Weight, wt); !ok {
				n.MarkNogood()
				return false
			}
			pw = checked.SaturatingAdd(pw, nb.Weight)
		}
		n.SetCounted(a.PV)
		n.SetWeights(sp, pw)
		if sp > s.maxWeight {
			n.MarkNogood()
			return false
		}
	}
	return true
}

// checkWeights bounds the scalar product still to come. Target vertices the
// detector finds unusable are erased everywhere, now and at every later
// node.
func (s *Solver) checkWeights() bool {
	if s.weights == nil || s.maxWeight == checked.Max {
		return true
	}
	n := s.nodes
	ok := s.weights.Check(n, s.maxWeight-n.ScalarProduct())
	if s.weights.Strong() {
		s.stats.StrongNogoods++
	}
	for _, tv := range s.weights.Invalid() {
		if s.compat.killTarget(tv) {
			s.stats.ImpossibleTargetVertices++
		}
		if !ok {
			continue
		}
		for pv := 0; pv < n.NumPatternVertices(); pv++ {
			if !n.Erase(pv, tv) {
				ok = false
				break
			}
		}
	}
	if !ok {
		n.MarkNogood()
	}
	return ok
}
