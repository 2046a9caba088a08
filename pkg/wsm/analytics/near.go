package analytics

import "github.com/bits-and-blooms/bitset"

// NearNeighbours answers "which vertices are at distance d from v" queries.
//
// Results are computed lazily, one distance layer at a time, and cached
// for the lifetime of the value. A layer is the frontier of a breadth-first
// expansion: layer d holds the vertices whose shortest path to v has exactly
// d edges.
type NearNeighbours struct {
	g      *Neighbours
	layers [][]*bitset.BitSet // layers[v][d-1]
	within [][]*bitset.BitSet // within[v][d-1] = union of layers 1..d
}

// NewNearNeighbours wraps g. No distances are computed until queried.
func NewNearNeighbours(g *Neighbours) *NearNeighbours {
	n := g.NumVertices()
	return &NearNeighbours{
		g:      g,
		layers: make([][]*bitset.BitSet, n),
		within: make([][]*bitset.BitSet, n),
	}
}

// Graph returns the underlying adjacency data.
func (nn *NearNeighbours) Graph() *Neighbours { return nn.g }

// AtDistance returns the vertices at exactly distance d >= 1 from v.
// The returned set is cached and must not be modified.
func (nn *NearNeighbours) AtDistance(v, d int) *bitset.BitSet {
	nn.expand(v, d)
	return nn.layers[v][d-1]
}

// WithinDistance returns the vertices at distance 1..d from v (v excluded).
// The returned set is cached and must not be modified.
func (nn *NearNeighbours) WithinDistance(v, d int) *bitset.BitSet {
	nn.expand(v, d)
	return nn.within[v][d-1]
}

// CountWithin returns the number of vertices at distance 1..d from v.
func (nn *NearNeighbours) CountWithin(v, d int) int {
	return int(nn.WithinDistance(v, d).Count())
}

func (nn *NearNeighbours) expand(v, d int) {
	if d < 1 {
		panic("analytics: distance must be positive")
	}
	n := uint(nn.g.NumVertices())
	for len(nn.layers[v]) < d {
		next := bitset.New(n)
		if len(nn.layers[v]) == 0 {
			for _, nb := range nn.g.Adjacent(v) {
				next.Set(uint(nb.V))
			}
			nn.layers[v] = append(nn.layers[v], next)
			nn.within[v] = append(nn.within[v], next.Clone())
			continue
		}
		last := nn.layers[v][len(nn.layers[v])-1]
		seen := nn.within[v][len(nn.within[v])-1]
		for u, ok := last.NextSet(0); ok; u, ok = last.NextSet(u + 1) {
			for _, nb := range nn.g.Adjacent(int(u)) {
				next.Set(uint(nb.V))
			}
		}
		next.InPlaceDifference(seen)
		next.Clear(uint(v))
		nn.layers[v] = append(nn.layers[v], next)
		nn.within[v] = append(nn.within[v], seen.Union(next))
	}
}
