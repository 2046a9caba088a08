package reduce

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/matzehuels/wsm/pkg/wsm/analytics"
	"github.com/matzehuels/wsm/pkg/wsm/search"
)

// Distance restricts vertices close to a new assignment.
//
// With distance d, every pattern vertex at exactly distance d from pv must
// map within distance d of tv. At d = 1 the edge weights are also checked:
// a pattern neighbour joined by weight w may only map to a target neighbour
// joined by weight at least w.
type Distance struct {
	pattern, target *analytics.NearNeighbours
	d               int
	mask            *bitset.BitSet
}

// NewDistance creates a reducer for one distance d >= 1.
func NewDistance(pattern, target *analytics.NearNeighbours, d int) *Distance {
	return &Distance{
		pattern: pattern,
		target:  target,
		d:       d,
		mask:    bitset.New(uint(target.Graph().NumVertices())),
	}
}

// Check compares ball sizes, and incident weights at distance one.
func (r *Distance) Check(a search.Assignment) bool {
	if r.d == 1 {
		return analytics.Dominates(
			r.target.Graph().IncidentWeights(a.TV),
			r.pattern.Graph().IncidentWeights(a.PV))
	}
	return r.pattern.CountWithin(a.PV, r.d) <= r.target.CountWithin(a.TV, r.d)
}

// Reduce applies the distance constraint of a.
func (r *Distance) Reduce(a search.Assignment, nodes *search.Nodes) bool {
	if r.d == 1 {
		return r.reduceNeighbours(a, nodes)
	}
	near := r.pattern.AtDistance(a.PV, r.d)
	if near.None() {
		return true
	}
	within := r.target.WithinDistance(a.TV, r.d)
	for pv, ok := near.NextSet(0); ok; pv, ok = near.NextSet(pv + 1) {
		if !nodes.Intersect(int(pv), within) {
			return false
		}
	}
	return true
}

func (r *Distance) reduceNeighbours(a search.Assignment, nodes *search.Nodes) bool {
	tg := r.target.Graph()
	targets := tg.Adjacent(a.TV)
	for _, nb := range r.pattern.Graph().Adjacent(a.PV) {
		if tv := nodes.Assigned(nb.V); tv != search.Unassigned {
			w, ok := tg.Weight(a.TV, tv)
			if !ok || w < nb.Weight {
				return false
			}
			continue
		}
		r.mask.ClearAll()
		for _, t := range targets {
			if t.Weight >= nb.Weight {
				r.mask.Set(uint(t.V))
			}
		}
		if !nodes.Intersect(nb.V, r.mask) {
			return false
		}
	}
	return true
}
