// Package wsm finds weighted subgraph monomorphisms.
//
// Given a pattern graph P and a target graph T, both with non-negative edge
// weights, the solver looks for an injective map f from the vertices of P to
// the vertices of T such that every pattern edge (u, v) with weight w maps
// to a target edge (f(u), f(v)) with weight at least w. Among such maps it
// minimises the scalar product: the sum over pattern edges of the pattern
// weight times the target weight.
//
// # Usage
//
//	s, err := wsm.New(pattern, target, wsm.Config{Seed: 1})
//	if err != nil {
//	    return err
//	}
//	stats, sol := s.Solve(ctx, wsm.Params{Timeout: time.Second})
//	for !stats.Finished {
//	    // sol is the best solution so far; keep going if there is time.
//	    stats, sol = s.Solve(ctx, wsm.Params{Timeout: time.Second})
//	}
//
// # Search
//
// The search is a depth-first branch and bound over an explicit stack, so
// it can stop at any iteration and resume later. Before branching, each node
// is reduced by the propagators in [reduce]: all-different, isolated
// compatibility checks, scalar-product accounting, a weight lower bound,
// derived-graph and distance filters, and Hall sets. Every complete solution
// lowers the accepted maximum to one less than its scalar product, so each
// later solution is strictly better, and a finished search proves the last
// one optimal.
//
// When the target graph is complete, graph-theoretic filters prune nothing.
// The solver then branches greedily on the heaviest pattern vertex and the
// cheapest target vertex instead.
//
// # Statistics
//
// [Stats] reports cumulative iterations and time, the trivial lower and
// upper bounds from the rearrangement inequality, and counts of assignments
// and target vertices proven impossible during search.
package wsm
