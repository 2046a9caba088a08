package wsm

import (
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/wsm/pkg/wsm/analytics"
)

var (
	// ErrSelfLoop is returned by [New] when an edge joins a vertex to itself.
	// Both graphs must be simple.
	ErrSelfLoop = errors.New("self loop")

	// ErrDuplicateEdge is returned by [New] when the same unordered pair
	// appears twice, once as (a, b) and once as (b, a).
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrWeightOverflow is returned by [New] when no checked estimate of the
	// objective fits in 64 bits. Search would risk silent wraparound, so the
	// instance is rejected before any iteration.
	ErrWeightOverflow = errors.New("weights too large: scalar product may overflow")
)

// Vertex is an opaque vertex id. Pattern and target ids live in separate
// namespaces.
type Vertex uint64

// Edge is an unordered vertex pair. Use [NewEdge] for the canonical form
// with A < B.
type Edge struct {
	A, B Vertex
}

// NewEdge returns the canonical edge between a and b.
func NewEdge(a, b Vertex) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

// EdgeWeights maps each edge of a graph to its weight. The vertex set is the
// set of edge endpoints, so isolated vertices cannot be expressed.
type EdgeWeights map[Edge]uint64

// Vertices returns the sorted vertex set of g.
func (g EdgeWeights) Vertices() []Vertex {
	seen := make(map[Vertex]struct{}, 2*len(g))
	for e := range g {
		seen[e.A] = struct{}{}
		seen[e.B] = struct{}{}
	}
	vs := make([]Vertex, 0, len(seen))
	for v := range seen {
		vs = append(vs, v)
	}
	slices.Sort(vs)
	return vs
}

// Weight returns the weight of the edge between a and b, in either order.
func (g EdgeWeights) Weight(a, b Vertex) (uint64, bool) {
	if w, ok := g[Edge{A: a, B: b}]; ok {
		return w, true
	}
	w, ok := g[Edge{A: b, B: a}]
	return w, ok
}

// Validate checks that g is a simple graph.
func (g EdgeWeights) Validate() error {
	for e := range g {
		if e.A == e.B {
			return fmt.Errorf("%w at vertex %d", ErrSelfLoop, e.A)
		}
		if e.A > e.B {
			if _, ok := g[Edge{A: e.B, B: e.A}]; ok {
				return fmt.Errorf("%w between %d and %d", ErrDuplicateEdge, e.B, e.A)
			}
		}
	}
	return nil
}

// labelled is a graph relabelled onto contiguous indices. ids[i] is the
// original id of index i.
type labelled struct {
	ids   []Vertex
	index map[Vertex]int
	graph *analytics.Neighbours
}

func relabel(g EdgeWeights) (*labelled, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	l := &labelled{ids: g.Vertices()}
	l.index = make(map[Vertex]int, len(l.ids))
	for i, v := range l.ids {
		l.index[v] = i
	}
	edges := make([]analytics.Edge, 0, len(g))
	for e, w := range g {
		edges = append(edges, analytics.Edge{A: l.index[e.A], B: l.index[e.B], Weight: w})
	}
	l.graph = analytics.NewNeighbours(len(l.ids), edges)
	return l, nil
}
