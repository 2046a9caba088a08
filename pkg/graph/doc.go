// Package graph provides the file formats for solver problems and results.
//
// A [Problem] holds two weighted undirected graphs as edge lists: the
// pattern to embed and the target to embed it into. Problems are read from
// three formats, chosen by file extension:
//
//	.json       {"pattern": [{"a": 0, "b": 1, "weight": 3}], "target": [...]}
//	.toml       [[pattern]] a = 0  b = 1  weight = 3
//	.txt .wsm   pattern: 0-1:3; 1-2:5   target: 10-11:4 ...
//
// Every reader validates that both graphs are simple. Use
// [Problem.Graphs] to obtain solver input and [Hash] for a content hash
// that ignores edge order, edge orientation and the problem name.
//
// [Result] is the serialised outcome of a solve and [Summarize] reports
// structural statistics used by `wsm inspect`.
package graph
