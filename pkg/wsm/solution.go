package wsm

import (
	"errors"
	"fmt"

	"github.com/matzehuels/wsm/pkg/wsm/checked"
)

// ErrInvalidSolution wraps every failure reported by [Solution.Verify].
var ErrInvalidSolution = errors.New("invalid solution")

// Assignment maps one pattern vertex to one target vertex.
type Assignment struct {
	Pattern Vertex `json:"pattern" toml:"pattern" bson:"pattern"`
	Target  Vertex `json:"target" toml:"target" bson:"target"`
}

// Solution is the best assignment found so far.
//
// A complete solution maps every pattern vertex. A partial solution holds
// the assignments whose pattern edges were all accounted for when the search
// last backtracked; its ScalarProduct and TotalPWeight cover exactly the
// pattern edges between those vertices.
type Solution struct {
	// Assignments are in the order the search made them.
	Assignments   []Assignment `json:"assignments" bson:"assignments"`
	ScalarProduct uint64       `json:"scalar_product" bson:"scalar_product"`
	TotalPWeight  uint64       `json:"total_p_weight" bson:"total_p_weight"`
	Complete      bool         `json:"complete" bson:"complete"`
}

// Empty reports whether no assignment has been recorded.
func (s Solution) Empty() bool { return len(s.Assignments) == 0 }

// Map returns the assignments as a pattern to target map.
func (s Solution) Map() map[Vertex]Vertex {
	m := make(map[Vertex]Vertex, len(s.Assignments))
	for _, a := range s.Assignments {
		m[a.Pattern] = a.Target
	}
	return m
}

// Verify checks s against the graphs it was computed for.
//
// The mapping must be injective and every pattern edge between mapped
// vertices must land on a target edge of at least the same weight. The
// reported scalar product and matched pattern weight must equal the sums over
// those edges. A complete solution must map every pattern vertex.
func (s Solution) Verify(pattern, target EdgeWeights) error {
	m := make(map[Vertex]Vertex, len(s.Assignments))
	used := make(map[Vertex]Vertex, len(s.Assignments))
	for _, a := range s.Assignments {
		if _, dup := m[a.Pattern]; dup {
			return fmt.Errorf("%w: pattern vertex %d assigned twice", ErrInvalidSolution, a.Pattern)
		}
		if other, dup := used[a.Target]; dup {
			return fmt.Errorf("%w: target vertex %d used by %d and %d",
				ErrInvalidSolution, a.Target, other, a.Pattern)
		}
		m[a.Pattern] = a.Target
		used[a.Target] = a.Pattern
	}
	if s.Complete {
		for _, v := range pattern.Vertices() {
			if _, ok := m[v]; !ok {
				return fmt.Errorf("%w: pattern vertex %d unassigned", ErrInvalidSolution, v)
			}
		}
	}

	var sp, pw uint64
	for e, wp := range pattern {
		ta, okA := m[e.A]
		tb, okB := m[e.B]
		if !okA || !okB {
			continue
		}
		wt, ok := target.Weight(ta, tb)
		if !ok {
			return fmt.Errorf("%w: pattern edge %d-%d maps to non-edge %d-%d",
				ErrInvalidSolution, e.A, e.B, ta, tb)
		}
		if wt < wp {
			return fmt.Errorf("%w: pattern edge %d-%d (weight %d) maps to lighter edge %d-%d (weight %d)",
				ErrInvalidSolution, e.A, e.B, wp, ta, tb, wt)
		}
		if sp, ok = checked.MulAdd(sp, wp, wt); !ok {
			return fmt.Errorf("%w: scalar product overflows", ErrInvalidSolution)
		}
		if pw, ok = checked.Add(pw, wp); !ok {
			return fmt.Errorf("%w: pattern weight overflows", ErrInvalidSolution)
		}
	}
	if sp != s.ScalarProduct {
		return fmt.Errorf("%w: scalar product is %d, reported %d", ErrInvalidSolution, sp, s.ScalarProduct)
	}
	if pw != s.TotalPWeight {
		return fmt.Errorf("%w: matched pattern weight is %d, reported %d", ErrInvalidSolution, pw, s.TotalPWeight)
	}
	return nil
}
