// Package initial computes the root search domains before any branching.
//
// Three filters run in order, each able to fail on an empty domain:
//
//  1. Degree sequences: tv is admissible for pv only if tv's sorted incident
//     weights and sorted neighbour degrees entrywise dominate pv's.
//  2. Distance counts: for every radius up to MaxPathLength, tv must have at
//     least as many vertices within that radius as pv.
//  3. All-different to a fixed point.
//
// When the target graph is complete the first two filters cannot remove
// anything, so they are skipped and the instance is flagged for the
// complete-target strategy.
package initial

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/bits-and-blooms/bitset"

	"github.com/matzehuels/wsm/pkg/wsm/analytics"
)

// DefaultMaxPathLength is the distance-count radius used when none is set.
const DefaultMaxPathLength = 10

// ErrNoSolution is returned when the filters prove that no monomorphism
// exists.
var ErrNoSolution = errors.New("no solution possible")

// Options tunes the filters.
type Options struct {
	// MaxPathLength bounds the distance-count filter. Zero means
	// DefaultMaxPathLength; a negative value disables the filter.
	MaxPathLength int
}

// Result is the filtered root state.
type Result struct {
	// Domains holds one domain per pattern vertex over the target vertices.
	Domains []*bitset.BitSet
	// CompleteTarget is set when the target graph is edge-complete.
	CompleteTarget bool
	// PossibleAssignments is the sum of the domain sizes.
	PossibleAssignments int
	// Used is the union of all domains.
	Used *bitset.BitSet
}

// Initialise filters the root domains of pattern into target.
func Initialise(pattern, target *analytics.Neighbours, opts Options) (*Result, error) {
	np, nt := pattern.NumVertices(), target.NumVertices()
	if np > nt {
		return nil, fmt.Errorf("%w: pattern has %d vertices, target has %d", ErrNoSolution, np, nt)
	}
	if pattern.NumEdges() > target.NumEdges() {
		return nil, fmt.Errorf("%w: pattern has %d edges, target has %d",
			ErrNoSolution, pattern.NumEdges(), target.NumEdges())
	}

	res := &Result{
		Domains:        make([]*bitset.BitSet, np),
		CompleteTarget: target.IsComplete(),
	}
	if res.CompleteTarget {
		for pv := range res.Domains {
			dom := bitset.New(uint(nt))
			dom.FlipRange(0, uint(nt))
			res.Domains[pv] = dom
		}
	} else {
		if err := degreeFilter(pattern, target, res.Domains); err != nil {
			return nil, err
		}
		length := opts.MaxPathLength
		if length == 0 {
			length = DefaultMaxPathLength
		}
		if length > 0 {
			if err := distanceFilter(pattern, target, res.Domains, length); err != nil {
				return nil, err
			}
		}
	}
	if err := allDiff(res.Domains); err != nil {
		return nil, err
	}

	res.Used = bitset.New(uint(nt))
	for _, dom := range res.Domains {
		res.PossibleAssignments += int(dom.Count())
		res.Used.InPlaceUnion(dom)
	}
	return res, nil
}

func degreeSequence(g *analytics.Neighbours, v int) []uint64 {
	adj := g.Adjacent(v)
	seq := make([]uint64, len(adj))
	for i, nb := range adj {
		seq[i] = uint64(g.Degree(nb.V))
	}
	slices.SortFunc(seq, func(a, b uint64) int { return cmp.Compare(b, a) })
	return seq
}

func degreeFilter(pattern, target *analytics.Neighbours, domains []*bitset.BitSet) error {
	nt := target.NumVertices()
	tseq := make([][]uint64, nt)
	for tv := range tseq {
		tseq[tv] = degreeSequence(target, tv)
	}
	for pv := range domains {
		pseq := degreeSequence(pattern, pv)
		pw := pattern.IncidentWeights(pv)
		dom := bitset.New(uint(nt))
		for tv := 0; tv < nt; tv++ {
			if analytics.Dominates(target.IncidentWeights(tv), pw) && analytics.Dominates(tseq[tv], pseq) {
				dom.Set(uint(tv))
			}
		}
		if dom.None() {
			return fmt.Errorf("%w: no target vertex has the degree of pattern vertex %d", ErrNoSolution, pv)
		}
		domains[pv] = dom
	}
	return nil
}

// ballSizes returns, for d = 1..limit, the number of vertices within
// distance d of v. It stops early once the component is exhausted.
func ballSizes(g *analytics.Neighbours, v, limit int, seen []bool, frontier, next []int) []int {
	for i := range seen {
		seen[i] = false
	}
	seen[v] = true
	frontier = append(frontier[:0], v)
	var sizes []int
	total := 0
	for d := 1; d <= limit && len(frontier) > 0; d++ {
		next = next[:0]
		for _, u := range frontier {
			for _, nb := range g.Adjacent(u) {
				if !seen[nb.V] {
					seen[nb.V] = true
					next = append(next, nb.V)
				}
			}
		}
		if len(next) == 0 {
			break
		}
		total += len(next)
		sizes = append(sizes, total)
		frontier, next = next, frontier
	}
	return sizes
}

func distanceFilter(pattern, target *analytics.Neighbours, domains []*bitset.BitSet, limit int) error {
	nt := target.NumVertices()
	tsizes := make([][]int, nt)
	tknown := make([]bool, nt)
	tseen := make([]bool, nt)
	pseen := make([]bool, pattern.NumVertices())
	var frontier, next []int

	for pv, dom := range domains {
		psizes := ballSizes(pattern, pv, limit, pseen, frontier, next)
		for tv, ok := dom.NextSet(0); ok; tv, ok = dom.NextSet(tv + 1) {
			if !tknown[tv] {
				tsizes[tv] = ballSizes(target, int(tv), limit, tseen, frontier, next)
				tknown[tv] = true
			}
			if !ballsFit(psizes, tsizes[tv]) {
				dom.Clear(tv)
			}
		}
		if dom.None() {
			return fmt.Errorf("%w: distance counts exclude every target for pattern vertex %d", ErrNoSolution, pv)
		}
	}
	return nil
}

func ballsFit(p, t []int) bool {
	for i, want := range p {
		have := 0
		switch {
		case i < len(t):
			have = t[i]
		case len(t) > 0:
			have = t[len(t)-1]
		}
		if have < want {
			return false
		}
	}
	return true
}

func allDiff(domains []*bitset.BitSet) error {
	var queue []int
	for pv, dom := range domains {
		switch dom.Count() {
		case 0:
			return fmt.Errorf("%w: empty domain for pattern vertex %d", ErrNoSolution, pv)
		case 1:
			queue = append(queue, pv)
		}
	}
	for i := 0; i < len(queue); i++ {
		pv := queue[i]
		tv, _ := domains[pv].NextSet(0)
		for other, dom := range domains {
			if other == pv || !dom.Test(tv) {
				continue
			}
			dom.Clear(tv)
			switch dom.Count() {
			case 0:
				return fmt.Errorf("%w: all-different emptied pattern vertex %d", ErrNoSolution, other)
			case 1:
				queue = append(queue, other)
			}
		}
	}
	return nil
}
