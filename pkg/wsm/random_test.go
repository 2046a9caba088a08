package wsm

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// randomGraph returns a graph on n vertices where each pair is an edge with
// probability p, with weights in 1..maxWeight.
func randomGraph(rng *rand.Rand, n int, p float64, maxWeight uint64) EdgeWeights {
	g := make(EdgeWeights)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < p {
				g[NewEdge(Vertex(i), Vertex(j))] = 1 + rng.Uint64N(maxWeight)
			}
		}
	}
	return g
}

// bruteForce tries every injective map of the pattern vertices and returns
// the smallest scalar product of a complete embedding.
func bruteForce(pattern, target EdgeWeights) (best uint64, found bool) {
	pvs, tvs := pattern.Vertices(), target.Vertices()
	m := make(map[Vertex]Vertex, len(pvs))
	used := make(map[Vertex]bool, len(tvs))

	var rec func(i int)
	rec = func(i int) {
		if i == len(pvs) {
			var sp uint64
			for e, wp := range pattern {
				wt, ok := target.Weight(m[e.A], m[e.B])
				if !ok || wt < wp {
					return
				}
				sp += wp * wt
			}
			if !found || sp < best {
				best, found = sp, true
			}
			return
		}
		for _, tv := range tvs {
			if used[tv] {
				continue
			}
			used[tv], m[pvs[i]] = true, tv
			rec(i + 1)
			used[tv] = false
		}
		delete(m, pvs[i])
	}
	rec(0)
	return best, found
}

func TestRandomGraphsMatchBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(2024, 7))
	var embeddable int

	for i := 0; i < 200; i++ {
		np := 2 + rng.IntN(5)
		nt := np + rng.IntN(4)
		pattern := randomGraph(rng, np, 0.6, 3)
		if len(pattern) == 0 {
			continue
		}
		target := randomGraph(rng, nt, 0.55, 4)
		if len(target) == 0 {
			continue
		}

		want, found := bruteForce(pattern, target)
		_, _, sol := solveAll(t, pattern, target, Config{Seed: int64(i)})
		require.Equal(t, found, sol.Complete, "instance %d: pattern %v target %v", i, pattern, target)
		if !found {
			continue
		}
		embeddable++
		require.Equal(t, want, sol.ScalarProduct, "instance %d: pattern %v target %v", i, pattern, target)

		limit := want
		_, _, sol = solveAll(t, pattern, target, Config{WeightCap: &limit})
		require.True(t, sol.Complete, "instance %d: cap at the optimum", i)
		require.Equal(t, want, sol.ScalarProduct)

		limit = want - 1
		_, _, sol = solveAll(t, pattern, target, Config{WeightCap: &limit})
		require.False(t, sol.Complete, "instance %d: cap below the optimum", i)
	}
	require.Greater(t, embeddable, 10, "too few embeddable instances to be meaningful")
}
