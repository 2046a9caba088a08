package graph

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Summary describes the structure of one weighted graph.
type Summary struct {
	Vertices    int    `json:"vertices"`
	Edges       int    `json:"edges"`
	MinWeight   uint64 `json:"min_weight"`
	MaxWeight   uint64 `json:"max_weight"`
	TotalWeight uint64 `json:"total_weight"`
	MaxDegree   int    `json:"max_degree"`
	Components  int    `json:"components"`
	Complete    bool   `json:"complete"`
}

// ProblemSummary summarises both graphs of a problem.
type ProblemSummary struct {
	Name    string  `json:"name,omitempty"`
	Hash    string  `json:"hash"`
	Pattern Summary `json:"pattern"`
	Target  Summary `json:"target"`
}

// SummarizeProblem summarises both graphs of p.
func SummarizeProblem(p *Problem) ProblemSummary {
	return ProblemSummary{
		Name:    p.Name,
		Hash:    Hash(p),
		Pattern: Summarize(p.Pattern),
		Target:  Summarize(p.Target),
	}
}

// Summarize computes a [Summary] of a validated edge list. TotalWeight
// saturates at the largest uint64.
func Summarize(edges []Edge) Summary {
	s := Summary{Edges: len(edges)}
	if len(edges) == 0 {
		return s
	}

	g := simple.NewWeightedUndirectedGraph(0, 0)
	ids := make(map[uint64]int64)
	node := func(v uint64) simple.Node {
		id, ok := ids[v]
		if !ok {
			id = int64(len(ids))
			ids[v] = id
			g.AddNode(simple.Node(id))
		}
		return simple.Node(id)
	}

	s.MinWeight = edges[0].Weight
	for _, e := range edges {
		g.SetWeightedEdge(g.NewWeightedEdge(node(e.A), node(e.B), float64(e.Weight)))
		s.MinWeight = min(s.MinWeight, e.Weight)
		s.MaxWeight = max(s.MaxWeight, e.Weight)
		if s.TotalWeight+e.Weight < s.TotalWeight {
			s.TotalWeight = ^uint64(0)
		} else {
			s.TotalWeight += e.Weight
		}
	}

	s.Vertices = len(ids)
	nodes := g.Nodes()
	for nodes.Next() {
		s.MaxDegree = max(s.MaxDegree, g.From(nodes.Node().ID()).Len())
	}
	s.Components = len(topo.ConnectedComponents(g))
	s.Complete = s.Edges == s.Vertices*(s.Vertices-1)/2
	return s
}
