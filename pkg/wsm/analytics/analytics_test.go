package analytics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func pathGraph(n int) *Neighbours {
	edges := make([]Edge, 0, n-1)
	for i := 0; i+1 < n; i++ {
		edges = append(edges, Edge{A: i, B: i + 1, Weight: uint64(i + 1)})
	}
	return NewNeighbours(n, edges)
}

func completeGraph(n int) *Neighbours {
	var edges []Edge
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			edges = append(edges, Edge{A: i, B: j, Weight: 1})
		}
	}
	return NewNeighbours(n, edges)
}

func TestNeighbours(t *testing.T) {
	g := NewNeighbours(4, []Edge{
		{A: 2, B: 0, Weight: 5},
		{A: 0, B: 1, Weight: 3},
		{A: 1, B: 2, Weight: 7},
		{A: 2, B: 3, Weight: 1},
	})

	require.Equal(t, 4, g.NumVertices())
	require.Equal(t, 4, g.NumEdges())
	require.Equal(t, 3, g.Degree(2))
	require.Equal(t, []uint64{7, 5, 1}, g.IncidentWeights(2))
	require.Equal(t, uint64(7), g.MaxWeight())
	require.Equal(t, uint64(7), g.MaxIncidentWeight(1))

	w, ok := g.Weight(0, 2)
	require.True(t, ok)
	require.Equal(t, uint64(5), w)
	w, ok = g.Weight(2, 0)
	require.True(t, ok)
	require.Equal(t, uint64(5), w)
	_, ok = g.Weight(0, 3)
	require.False(t, ok)

	require.Equal(t, Edge{A: 0, B: 1, Weight: 3}, g.Edges()[0])
	require.False(t, g.IsComplete())
	require.True(t, completeGraph(5).IsComplete())
}

func TestNeighboursRejectsSelfLoop(t *testing.T) {
	require.Panics(t, func() { NewNeighbours(2, []Edge{{A: 1, B: 1, Weight: 1}}) })
}

func TestDominates(t *testing.T) {
	tests := []struct {
		name       string
		big, small []uint64
		want       bool
	}{
		{"equal", []uint64{3, 2}, []uint64{3, 2}, true},
		{"longer", []uint64{3, 2, 1}, []uint64{3, 2}, true},
		{"shorter", []uint64{3}, []uint64{3, 2}, false},
		{"entry smaller", []uint64{3, 1}, []uint64{2, 2}, false},
		{"empty small", []uint64{1}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Dominates(tt.big, tt.small))
		})
	}
}

func TestNearNeighbours(t *testing.T) {
	nn := NewNearNeighbours(pathGraph(5))

	require.True(t, nn.AtDistance(0, 1).Test(1))
	require.Equal(t, uint(1), nn.AtDistance(0, 1).Count())
	require.True(t, nn.AtDistance(0, 3).Test(3))
	require.Equal(t, uint(1), nn.AtDistance(0, 3).Count())
	require.Equal(t, uint(0), nn.AtDistance(0, 6).Count())

	require.Equal(t, 2, nn.CountWithin(2, 1))
	require.Equal(t, 4, nn.CountWithin(2, 2))
	require.Equal(t, 4, nn.CountWithin(2, 5))
	require.False(t, nn.WithinDistance(2, 5).Test(2))

	require.Panics(t, func() { nn.AtDistance(0, 0) })
}

func TestDerivedOnCompleteGraph(t *testing.T) {
	d := NewDerived(completeGraph(4))
	data := d.Get(0)

	require.Equal(t, []DerivedEntry{{V: 1, Count: 2}, {V: 2, Count: 2}, {V: 3, Count: 2}}, data.D2)
	require.Equal(t, []uint64{2, 2, 2}, data.D2Counts)
	require.Equal(t, []DerivedEntry{{V: 1, Count: 2}, {V: 2, Count: 2}, {V: 3, Count: 2}}, data.D3)
	require.Equal(t, uint64(6), data.Triangles)
	require.Equal(t, uint64(2), data.Count(2, 3))
	require.Equal(t, uint64(0), data.Count(2, 0))
}

func TestDerivedOnPath(t *testing.T) {
	d := NewDerived(pathGraph(4))

	first := d.Get(0)
	require.Equal(t, []DerivedEntry{{V: 2, Count: 1}}, first.D2)
	require.Equal(t, []DerivedEntry{{V: 3, Count: 1}}, first.D3)
	require.Zero(t, first.Triangles)

	// Later computations must not move earlier data.
	for v := 1; v < 4; v++ {
		d.Get(v)
	}
	require.Same(t, first, d.Get(0))
	require.Equal(t, 4, d.Computed())
	require.Equal(t, []DerivedEntry{{V: 3, Count: 1}}, d.Get(1).D2)
}

func TestDerivedHops(t *testing.T) {
	d := NewDerived(pathGraph(5))
	hops := NewDerivedHops(d, 2)

	// D2 edges of a 5-path: 0-2, 1-3, 2-4.
	exact := hops.AtDistanceTwo(0)
	require.Equal(t, uint(1), exact.Count())
	require.True(t, exact.Test(4))

	within := hops.WithinTwo(0)
	require.Equal(t, uint(2), within.Count())
	require.True(t, within.Test(2))
	require.True(t, within.Test(4))
	require.Same(t, exact, hops.AtDistanceTwo(0))
}
