// Package nodelink draws solver results as node-link diagrams.
//
// [ToDOT] lays out the target graph and marks the embedding found by the
// solver: target vertices that host a pattern vertex are filled and carry
// both ids, and target edges that carry a pattern edge are drawn bold with
// "target (pattern)" weight labels. Remaining target edges are dashed.
//
//	dot := nodelink.ToDOT(problem, result.Solution, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// The DOT source uses the neato layout engine, which suits undirected
// graphs without a natural rank order.
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
