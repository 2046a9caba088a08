package initial

import (
	"errors"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/wsm/pkg/wsm/analytics"
)

func members(b *bitset.BitSet) []int {
	var out []int
	for i, ok := b.NextSet(0); ok; i, ok = b.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}

func path(n int, w uint64) *analytics.Neighbours {
	var edges []analytics.Edge
	for i := 0; i+1 < n; i++ {
		edges = append(edges, analytics.Edge{A: i, B: i + 1, Weight: w})
	}
	return analytics.NewNeighbours(n, edges)
}

func complete(n int) *analytics.Neighbours {
	var edges []analytics.Edge
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			edges = append(edges, analytics.Edge{A: i, B: j, Weight: 1})
		}
	}
	return analytics.NewNeighbours(n, edges)
}

func TestPatternLargerThanTarget(t *testing.T) {
	_, err := Initialise(path(4, 1), path(3, 1), Options{})
	require.True(t, errors.Is(err, ErrNoSolution))

	_, err = Initialise(complete(3), path(4, 1), Options{})
	require.True(t, errors.Is(err, ErrNoSolution))
}

func TestDegreeFilter(t *testing.T) {
	// A star centre can only go to the star centre.
	star := analytics.NewNeighbours(4, []analytics.Edge{
		{A: 0, B: 1, Weight: 1},
		{A: 0, B: 2, Weight: 1},
		{A: 0, B: 3, Weight: 1},
	})
	target := analytics.NewNeighbours(5, []analytics.Edge{
		{A: 0, B: 1, Weight: 1},
		{A: 1, B: 2, Weight: 1},
		{A: 1, B: 3, Weight: 1},
		{A: 3, B: 4, Weight: 1},
	})
	res, err := Initialise(star, target, Options{})
	require.NoError(t, err)
	require.False(t, res.CompleteTarget)
	require.Equal(t, []int{1}, members(res.Domains[0]))
	// All-different removed the centre from the leaves.
	for pv := 1; pv < 4; pv++ {
		require.NotContains(t, members(res.Domains[pv]), 1)
	}
}

func TestDegreeFilterWeights(t *testing.T) {
	pattern := analytics.NewNeighbours(2, []analytics.Edge{{A: 0, B: 1, Weight: 5}})
	_, err := Initialise(pattern, path(3, 4), Options{})
	require.True(t, errors.Is(err, ErrNoSolution))

	res, err := Initialise(pattern, path(3, 5), Options{})
	require.NoError(t, err)
	require.Equal(t, 6, res.PossibleAssignments)
	require.Equal(t, []int{0, 1, 2}, members(res.Used))
}

func TestDistanceFilter(t *testing.T) {
	full := func() []*bitset.BitSet {
		doms := make([]*bitset.BitSet, 5)
		for i := range doms {
			doms[i] = bitset.New(5)
			doms[i].FlipRange(0, 5)
		}
		return doms
	}

	// In a path of five only the middle vertex has four vertices within
	// distance two.
	doms := full()
	require.NoError(t, distanceFilter(path(5, 1), path(5, 1), doms, 10))
	require.Equal(t, []int{2}, members(doms[2]))
	require.Equal(t, []int{0, 1, 2, 3, 4}, members(doms[0]))

	doms = full()
	require.NoError(t, distanceFilter(path(5, 1), path(5, 1), doms, 1))
	require.Equal(t, []int{1, 2, 3}, members(doms[2]))

	_, err := Initialise(path(5, 1), path(5, 1), Options{MaxPathLength: -1})
	require.NoError(t, err)
}

func TestCompleteTarget(t *testing.T) {
	res, err := Initialise(complete(3), complete(4), Options{})
	require.NoError(t, err)
	require.True(t, res.CompleteTarget)
	for _, dom := range res.Domains {
		require.Equal(t, []int{0, 1, 2, 3}, members(dom))
	}
	require.Equal(t, 12, res.PossibleAssignments)
}

func TestIdempotent(t *testing.T) {
	p, tg := path(4, 2), path(6, 3)
	a, err := Initialise(p, tg, Options{})
	require.NoError(t, err)
	b, err := Initialise(p, tg, Options{})
	require.NoError(t, err)
	require.Equal(t, len(a.Domains), len(b.Domains))
	for i := range a.Domains {
		require.True(t, a.Domains[i].Equal(b.Domains[i]))
	}
}

func TestBallsFit(t *testing.T) {
	cases := []struct {
		name string
		p, t []int
		want bool
	}{
		{"equal", []int{2, 4}, []int{2, 4}, true},
		{"bigger target", []int{1, 2}, []int{3, 5, 6}, true},
		{"target short", []int{1, 2, 3}, []int{3}, true},
		{"target too small", []int{2, 4}, []int{2, 3}, false},
		{"empty target", []int{1}, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ballsFit(tc.p, tc.t))
		})
	}
}
