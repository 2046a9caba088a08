// Package pkg provides the libraries behind the wsm solver.
//
// # Overview
//
// wsm solves the weighted subgraph monomorphism problem: map every vertex
// of a small weighted pattern graph onto a distinct vertex of a weighted
// target graph so that each pattern edge lands on a target edge at least as
// heavy, minimising the sum over pattern edges of pattern weight times target
// weight.
//
// # Architecture
//
// The typical data flow:
//
//	problem file (.json, .toml, .wsm)
//	         ↓
//	    [graph] package (parse, validate, hash)
//	         ↓
//	    [pipeline] package (cache lookup, solve, persist)
//	         ↓
//	    [wsm] package (domains, filtering, search)
//	         ↓
//	    [render] package (DOT, SVG, PNG, PDF)
//
// # Quick Start
//
//	p, _ := graph.ReadProblemFile("problem.json")
//	pattern, target, _ := p.Graphs()
//	solver, _ := wsm.New(pattern, target, wsm.Config{})
//	stats, sol := solver.Solve(ctx, wsm.Params{Timeout: 10 * time.Second})
//
// # Main Packages
//
//   - [wsm]: the solver
//   - [graph]: problem and result types and their file formats
//   - [gen]: generators for benchmark instances
//   - [pipeline]: end-to-end runs shared by the CLI and the API
//   - [cache]: result cache backends (file, Redis)
//   - [session]: run records (file, Badger, MongoDB)
//   - [config]: the wsm.toml configuration file
//   - [observability]: solver, cache and HTTP hooks with a Prometheus adapter
//   - [render]: drawings of embeddings
//   - [errors]: error codes shared by the CLI and the API
//
// [wsm]: https://pkg.go.dev/github.com/matzehuels/wsm/pkg/wsm
// [graph]: https://pkg.go.dev/github.com/matzehuels/wsm/pkg/graph
// [gen]: https://pkg.go.dev/github.com/matzehuels/wsm/pkg/gen
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/wsm/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/wsm/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/wsm/pkg/session
// [config]: https://pkg.go.dev/github.com/matzehuels/wsm/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/wsm/pkg/observability
// [render]: https://pkg.go.dev/github.com/matzehuels/wsm/pkg/render
// [errors]: https://pkg.go.dev/github.com/matzehuels/wsm/pkg/errors
package pkg
