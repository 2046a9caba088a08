package analytics

import (
	"cmp"
	"slices"
)

// Edge is an undirected weighted edge between contiguous vertex indices.
// Canonical edges have A < B.
type Edge struct {
	A, B   int
	Weight uint64
}

// Neighbour is one entry of a vertex's adjacency list.
type Neighbour struct {
	V      int
	Weight uint64
}

// Neighbours is the immutable adjacency view of an edge-weight graph.
//
// Vertices are the contiguous indices 0..n-1. Adjacency lists are sorted by
// vertex index so that [Neighbours.Weight] is a binary search over the
// shorter of the two lists.
type Neighbours struct {
	adj       [][]Neighbour
	incident  [][]uint64 // incident weights per vertex, sorted descending
	edges     []Edge
	maxWeight uint64
}

// NewNeighbours builds adjacency data for n vertices from canonical edges.
// Edges with A == B or out-of-range endpoints panic: the caller is expected
// to have validated and relabelled the input.
func NewNeighbours(n int, edges []Edge) *Neighbours {
	g := &Neighbours{
		adj:      make([][]Neighbour, n),
		incident: make([][]uint64, n),
		edges:    make([]Edge, 0, len(edges)),
	}
	for _, e := range edges {
		a, b := e.A, e.B
		if a == b || a < 0 || b < 0 || a >= n || b >= n {
			panic("analytics: invalid edge")
		}
		if a > b {
			a, b = b, a
		}
		g.adj[a] = append(g.adj[a], Neighbour{V: b, Weight: e.Weight})
		g.adj[b] = append(g.adj[b], Neighbour{V: a, Weight: e.Weight})
		g.edges = append(g.edges, Edge{A: a, B: b, Weight: e.Weight})
		g.maxWeight = max(g.maxWeight, e.Weight)
	}
	for v := range g.adj {
		slices.SortFunc(g.adj[v], func(x, y Neighbour) int { return cmp.Compare(x.V, y.V) })
		ws := make([]uint64, len(g.adj[v]))
		for i, nb := range g.adj[v] {
			ws[i] = nb.Weight
		}
		slices.SortFunc(ws, func(x, y uint64) int { return cmp.Compare(y, x) })
		g.incident[v] = ws
	}
	slices.SortFunc(g.edges, func(x, y Edge) int {
		if c := cmp.Compare(x.A, y.A); c != 0 {
			return c
		}
		return cmp.Compare(x.B, y.B)
	})
	return g
}

// NumVertices returns the number of vertices.
func (g *Neighbours) NumVertices() int { return len(g.adj) }

// NumEdges returns the number of edges.
func (g *Neighbours) NumEdges() int { return len(g.edges) }

// Degree returns the number of neighbours of v.
func (g *Neighbours) Degree(v int) int { return len(g.adj[v]) }

// Adjacent returns v's neighbours sorted by vertex index.
// The slice is shared and must not be modified.
func (g *Neighbours) Adjacent(v int) []Neighbour { return g.adj[v] }

// IncidentWeights returns v's edge weights sorted in descending order.
func (g *Neighbours) IncidentWeights(v int) []uint64 { return g.incident[v] }

// Edges returns all edges in canonical order.
func (g *Neighbours) Edges() []Edge { return g.edges }

// MaxWeight returns the largest edge weight (0 for an empty graph).
func (g *Neighbours) MaxWeight() uint64 { return g.maxWeight }

// MaxIncidentWeight returns the largest weight on an edge touching v.
func (g *Neighbours) MaxIncidentWeight(v int) uint64 {
	if len(g.incident[v]) == 0 {
		return 0
	}
	return g.incident[v][0]
}

// Weight returns the weight of edge {u,v} and whether it exists.
func (g *Neighbours) Weight(u, v int) (uint64, bool) {
	if len(g.adj[u]) > len(g.adj[v]) {
		u, v = v, u
	}
	list := g.adj[u]
	i, found := slices.BinarySearchFunc(list, v, func(nb Neighbour, target int) int {
		return cmp.Compare(nb.V, target)
	})
	if !found {
		return 0, false
	}
	return list[i].Weight, true
}

// IsComplete reports whether every pair of distinct vertices is joined.
func (g *Neighbours) IsComplete() bool {
	n := len(g.adj)
	return n > 0 && len(g.edges) == n*(n-1)/2
}

// Dominates reports whether the descending sequence big entrywise dominates
// small: len(big) >= len(small) and big[i] >= small[i] for every i.
func Dominates(big, small []uint64) bool {
	if len(big) < len(small) {
		return false
	}
	for i, w := range small {
		if big[i] < w {
			return false
		}
	}
	return true
}
