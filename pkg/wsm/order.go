package wsm

import (
	"github.com/matzehuels/wsm/pkg/wsm/checked"
	"github.com/matzehuels/wsm/pkg/wsm/search"
)

// chooseVariable picks the next pattern vertex to branch on, or
// search.Unassigned if every vertex is assigned.
//
// Candidates adjacent to the partial mapping come first. Among them the
// smallest domain wins; with a complete target the largest incident pattern
// weight wins instead, since every domain is the same.
func (s *Solver) chooseVariable() int {
	cands := s.nodes.Candidates(s.pattern.graph)
	if len(cands) == 0 {
		return search.Unassigned
	}
	var ties []int
	var bestKey, bestSize uint64
	for _, pv := range cands {
		size := uint64(s.nodes.DomainSize(pv))
		key := checked.Max - size
		if s.complete {
			key = s.incidentSum[pv]
		}
		switch {
		case len(ties) == 0 || key > bestKey || (key == bestKey && size < bestSize):
			ties = append(ties[:0], pv)
			bestKey, bestSize = key, size
		case key == bestKey && size == bestSize:
			ties = append(ties, pv)
		}
	}
	return ties[s.rng.Intn(len(ties))]
}

// chooseValue picks the target vertex for pv.
//
// Normally the highest degree target vertex is preferred. With a complete
// target the vertex adding the least scalar product to already placed
// neighbours is preferred. Ties go to the value pv had in the best solution
// so far, else to a random choice.
func (s *Solver) chooseValue(pv int) int {
	dom := s.nodes.Domain(pv)
	var ties []int
	var bestKey uint64
	for tv, ok := dom.NextSet(0); ok; tv, ok = dom.NextSet(tv + 1) {
		key := s.valueKey(pv, int(tv))
		switch {
		case len(ties) == 0 || key > bestKey:
			ties = append(ties[:0], int(tv))
			bestKey = key
		case key == bestKey:
			ties = append(ties, int(tv))
		}
	}
	if prev := s.bestTV[pv]; prev != search.Unassigned {
		for _, tv := range ties {
			if tv == prev {
				return tv
			}
		}
	}
	return ties[s.rng.Intn(len(ties))]
}

// valueKey scores pv -> tv; larger is better.
func (s *Solver) valueKey(pv, tv int) uint64 {
	if !s.complete {
		return uint64(s.target.graph.Degree(tv))
	}
	var cost uint64
	for _, nb := range s.pattern.graph.Adjacent(pv) {
		other := s.nodes.Assigned(nb.V)
		if other == search.Unassigned {
			continue
		}
		wt, _ := s.target.graph.Weight(tv, other)
		if wt < nb.Weight {
			return 0
		}
		var ok bool
		if cost, ok = checked.MulAdd(cost, nb.Weight, wt); !ok {
			return 0
		}
	}
	return checked.Max - cost
}
