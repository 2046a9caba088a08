package graph

import (
	"cmp"
	"slices"
	"time"

	errs "github.com/matzehuels/wsm/pkg/errors"
	"github.com/matzehuels/wsm/pkg/wsm"
)

// =============================================================================
// Constants
// =============================================================================

// Problem file formats.
const (
	FormatJSON = "json"
	FormatTOML = "toml"
	FormatText = "text"
)

// DefaultWeight is used by the text format when an edge omits its weight.
const DefaultWeight = 1

// =============================================================================
// Edge - Weighted Undirected Edge
// =============================================================================

// Edge is one weighted undirected edge. A and B may be given in either
// order.
type Edge struct {
	A      uint64 `json:"a" toml:"a" bson:"a"`
	B      uint64 `json:"b" toml:"b" bson:"b"`
	Weight uint64 `json:"weight" toml:"weight" bson:"weight"`
}

// Endpoints returns the two vertex ids.
func (e Edge) Endpoints() (a, b uint64) { return e.A, e.B }

// canonical returns e with A < B.
func (e Edge) canonical() Edge {
	if e.A > e.B {
		e.A, e.B = e.B, e.A
	}
	return e
}

// =============================================================================
// Problem - Pattern and Target Graphs
// =============================================================================

// Problem is the serialised form of one solver instance.
type Problem struct {
	Name    string `json:"name,omitempty" toml:"name,omitempty" bson:"name,omitempty"`
	Pattern []Edge `json:"pattern" toml:"pattern" bson:"pattern"`
	Target  []Edge `json:"target" toml:"target" bson:"target"`
}

// Validate checks that both graphs are simple.
func (p *Problem) Validate() error {
	if err := errs.ValidateEdges("pattern", p.Pattern); err != nil {
		return err
	}
	return errs.ValidateEdges("target", p.Target)
}

// Graphs validates p and converts it to solver input.
func (p *Problem) Graphs() (pattern, target wsm.EdgeWeights, err error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	return ToEdgeWeights(p.Pattern), ToEdgeWeights(p.Target), nil
}

// Normalize puts every edge in canonical orientation and sorts both lists,
// so that equal graphs serialise identically.
func (p *Problem) Normalize() {
	p.Pattern = normalize(p.Pattern)
	p.Target = normalize(p.Target)
}

func normalize(edges []Edge) []Edge {
	out := make([]Edge, len(edges))
	for i, e := range edges {
		out[i] = e.canonical()
	}
	slices.SortFunc(out, compareEdges)
	return out
}

func compareEdges(x, y Edge) int {
	if c := cmp.Compare(x.A, y.A); c != 0 {
		return c
	}
	return cmp.Compare(x.B, y.B)
}

// ToEdgeWeights converts an edge list to solver input. The list must have
// been validated.
func ToEdgeWeights(edges []Edge) wsm.EdgeWeights {
	g := make(wsm.EdgeWeights, len(edges))
	for _, e := range edges {
		g[wsm.NewEdge(wsm.Vertex(e.A), wsm.Vertex(e.B))] = e.Weight
	}
	return g
}

// FromEdgeWeights converts solver input to a sorted edge list.
func FromEdgeWeights(g wsm.EdgeWeights) []Edge {
	out := make([]Edge, 0, len(g))
	for e, w := range g {
		out = append(out, Edge{A: uint64(e.A), B: uint64(e.B), Weight: w}.canonical())
	}
	slices.SortFunc(out, compareEdges)
	return out
}

// =============================================================================
// Result - Solve Output
// =============================================================================

// Result is the serialised outcome of a solve.
type Result struct {
	ProblemHash string       `json:"problem_hash" bson:"problem_hash"`
	Solution    wsm.Solution `json:"solution" bson:"solution"`
	Stats       wsm.Stats    `json:"stats" bson:"stats"`
	Cached      bool         `json:"cached,omitempty" bson:"-"`
	RunID       string       `json:"run_id,omitempty" bson:"run_id,omitempty"`
	SolvedAt    time.Time    `json:"solved_at" bson:"solved_at"`
}

// Optimal reports whether the solution is a proven optimum: the search
// finished and found a complete solution.
func (r *Result) Optimal() bool {
	return r.Stats.Finished && r.Solution.Complete
}
