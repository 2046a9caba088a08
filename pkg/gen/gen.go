// Package gen generates weighted problem instances.
//
// All generators are deterministic for a fixed [Options.Seed]. Vertex ids
// are 0..n-1 and edges are returned in canonical orientation (A < B) in a
// stable order.
package gen

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/matzehuels/wsm/pkg/graph"
)

var (
	// ErrTooFewVertices is returned when a size parameter is too small.
	ErrTooFewVertices = errors.New("too few vertices")

	// ErrTooManyEdges is returned when more edges are requested than a
	// simple graph on the given vertices can hold.
	ErrTooManyEdges = errors.New("too many edges")
)

// WeightFunc draws an edge weight.
type WeightFunc func(r *rand.Rand) uint64

// Constant always returns w.
func Constant(w uint64) WeightFunc {
	return func(*rand.Rand) uint64 { return w }
}

// Uniform draws weights uniformly from [lo, hi].
func Uniform(lo, hi uint64) WeightFunc {
	if hi < lo {
		lo, hi = hi, lo
	}
	return func(r *rand.Rand) uint64 { return lo + r.Uint64N(hi-lo+1) }
}

// Options controls randomness and weights. The zero value uses seed 0 and
// weight 1.
type Options struct {
	Seed    uint64
	Weights WeightFunc
}

type builder struct {
	rng     *rand.Rand
	weights WeightFunc
	edges   []graph.Edge
}

func newBuilder(opts Options) *builder {
	w := opts.Weights
	if w == nil {
		w = Constant(1)
	}
	return &builder{
		rng:     rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		weights: w,
	}
}

func (b *builder) add(u, v uint64) {
	if u > v {
		u, v = v, u
	}
	b.edges = append(b.edges, graph.Edge{A: u, B: v, Weight: b.weights(b.rng)})
}

// Grid returns a rows x cols square grid. Cell (r, c) has id r*cols + c.
func Grid(rows, cols int, opts Options) ([]graph.Edge, error) {
	if rows < 1 || cols < 1 || rows*cols < 2 {
		return nil, fmt.Errorf("grid %dx%d: %w", rows, cols, ErrTooFewVertices)
	}
	b := newBuilder(opts)
	for r := range rows {
		for c := range cols {
			id := uint64(r*cols + c)
			if c+1 < cols {
				b.add(id, id+1)
			}
			if r+1 < rows {
				b.add(id, id+uint64(cols))
			}
		}
	}
	return b.edges, nil
}

// Complete returns the complete graph on n vertices.
func Complete(n int, opts Options) ([]graph.Edge, error) {
	if n < 2 {
		return nil, fmt.Errorf("complete graph on %d vertices: %w", n, ErrTooFewVertices)
	}
	b := newBuilder(opts)
	for u := range n {
		for v := u + 1; v < n; v++ {
			b.add(uint64(u), uint64(v))
		}
	}
	return b.edges, nil
}

// Path returns the path 0-1-...-(n-1).
func Path(n int, opts Options) ([]graph.Edge, error) {
	if n < 2 {
		return nil, fmt.Errorf("path on %d vertices: %w", n, ErrTooFewVertices)
	}
	b := newBuilder(opts)
	for v := 1; v < n; v++ {
		b.add(uint64(v-1), uint64(v))
	}
	return b.edges, nil
}

// Random returns a graph with n vertices and exactly m distinct edges chosen
// uniformly. Isolated vertices are possible, so the returned graph may
// mention fewer than n ids.
func Random(n, m int, opts Options) ([]graph.Edge, error) {
	if n < 2 {
		return nil, fmt.Errorf("random graph on %d vertices: %w", n, ErrTooFewVertices)
	}
	if limit := n * (n - 1) / 2; m > limit {
		return nil, fmt.Errorf("%d edges on %d vertices (max %d): %w", m, n, limit, ErrTooManyEdges)
	}
	b := newBuilder(opts)
	b.addRandom(n, m, nil)
	sortEdges(b.edges)
	return b.edges, nil
}

// addRandom adds m edges on [0, n) that are not in taken.
func (b *builder) addRandom(n, m int, taken map[[2]uint64]bool) {
	if taken == nil {
		taken = make(map[[2]uint64]bool, m)
	}
	for added := 0; added < m; {
		u, v := b.rng.Uint64N(uint64(n)), b.rng.Uint64N(uint64(n))
		if u == v {
			continue
		}
		if u > v {
			u, v = v, u
		}
		if taken[[2]uint64{u, v}] {
			continue
		}
		taken[[2]uint64{u, v}] = true
		b.add(u, v)
		added++
	}
}

// Embedding is a target graph with a known planted copy of a pattern.
type Embedding struct {
	Target []graph.Edge
	// Mapping sends each pattern vertex to the target vertex it was planted
	// on.
	Mapping map[uint64]uint64
}

// EmbedOptions configures [Embed].
type EmbedOptions struct {
	Options
	// TargetVertices is the size of the target vertex range. It must be at
	// least the number of pattern vertices.
	TargetVertices int
	// Noise is the number of extra random edges added around the planted
	// copy.
	Noise int
	// Slack is added to each planted edge's weight, drawn from [0, Slack].
	Slack uint64
}

// Embed plants pattern into a fresh target on TargetVertices vertices. Each
// planted edge weighs at least its pattern edge, so the planted mapping is
// always a valid solution.
func Embed(pattern []graph.Edge, opts EmbedOptions) (*Embedding, error) {
	var pvs []uint64
	seen := map[uint64]bool{}
	for _, e := range pattern {
		for _, v := range [2]uint64{e.A, e.B} {
			if !seen[v] {
				seen[v] = true
				pvs = append(pvs, v)
			}
		}
	}
	slices.Sort(pvs)
	n := opts.TargetVertices
	if n < len(pvs) || n < 2 {
		return nil, fmt.Errorf("embed %d pattern vertices into %d: %w", len(pvs), n, ErrTooFewVertices)
	}
	if limit := n*(n-1)/2 - len(pattern); opts.Noise > limit {
		return nil, fmt.Errorf("%d noise edges (max %d): %w", opts.Noise, limit, ErrTooManyEdges)
	}

	b := newBuilder(opts.Options)
	perm := b.rng.Perm(n)
	mapping := make(map[uint64]uint64, len(pvs))
	for i, pv := range pvs {
		mapping[pv] = uint64(perm[i])
	}

	taken := make(map[[2]uint64]bool, len(pattern)+opts.Noise)
	for _, e := range pattern {
		u, v := mapping[e.A], mapping[e.B]
		if u > v {
			u, v = v, u
		}
		taken[[2]uint64{u, v}] = true
		w := e.Weight
		if opts.Slack > 0 {
			w += b.rng.Uint64N(opts.Slack + 1)
		}
		b.edges = append(b.edges, graph.Edge{A: u, B: v, Weight: w})
	}
	b.addRandom(n, opts.Noise, taken)
	sortEdges(b.edges)
	return &Embedding{Target: b.edges, Mapping: mapping}, nil
}

func sortEdges(edges []graph.Edge) {
	slices.SortFunc(edges, func(x, y graph.Edge) int {
		if x.A != y.A {
			if x.A < y.A {
				return -1
			}
			return 1
		}
		if x.B < y.B {
			return -1
		}
		if x.B > y.B {
			return 1
		}
		return 0
	})
}
