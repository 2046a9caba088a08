// Package analytics provides the graph-theoretic queries used by the
// weighted subgraph monomorphism solver.
//
// # Neighbour data
//
// [Neighbours] is built once per graph from relabelled edges. It answers
// adjacency, degree and pairwise weight queries and keeps every vertex's
// incident weights sorted in descending order, which is the form needed by
// degree-sequence dominance tests ([Dominates]).
//
// # Distances
//
// [NearNeighbours] computes breadth-first distance layers lazily. The
// solver uses them twice: the initial distance-count filter compares the
// number of vertices within radius r of a pattern vertex and a target
// vertex, and the close-vertices reducer restricts domains of vertices near
// a fresh assignment.
//
// # Derived graphs
//
// D(k) is the graph on the same vertices whose edge weights count distinct
// simple paths of length k. If f is a monomorphism then
//
//	D(k)_target(f(u), f(v)) >= D(k)_pattern(u, v)
//
// for k = 2, 3, and the same holds for triangle counts. [Derived] computes
// these lazily per vertex into an arena with stable indices; [DerivedHops]
// memoises the second D(k) hop.
//
// All types here are owned by one solver session and are not safe for
// concurrent use.
package analytics
