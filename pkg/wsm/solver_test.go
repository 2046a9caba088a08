package wsm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matzehuels/wsm/pkg/wsm/search"
)

func graphOf(edges ...[3]uint64) EdgeWeights {
	g := make(EdgeWeights, len(edges))
	for _, e := range edges {
		g[NewEdge(Vertex(e[0]), Vertex(e[1]))] = e[2]
	}
	return g
}

func completeGraph(n int, w uint64) EdgeWeights {
	g := make(EdgeWeights)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			g[NewEdge(Vertex(i), Vertex(j))] = w
		}
	}
	return g
}

// gridGraph returns a rows x cols grid with varied weights in 1..5.
func gridGraph(rows, cols int) EdgeWeights {
	g := make(EdgeWeights)
	id := func(r, c int) Vertex { return Vertex(r*cols + c) }
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c+1 < cols {
				g[NewEdge(id(r, c), id(r, c+1))] = uint64((r*7+c*3)%5 + 1)
			}
			if r+1 < rows {
				g[NewEdge(id(r, c), id(r+1, c))] = uint64((r*3+c*5)%5 + 1)
			}
		}
	}
	return g
}

func pathGraph(n int, w uint64) EdgeWeights {
	g := make(EdgeWeights)
	for i := 0; i+1 < n; i++ {
		g[NewEdge(Vertex(i), Vertex(i+1))] = w
	}
	return g
}

func solveAll(t *testing.T, pattern, target EdgeWeights, cfg Config) (*Solver, Stats, Solution) {
	t.Helper()
	s, err := New(pattern, target, cfg)
	require.NoError(t, err)
	stats, sol := s.Solve(context.Background(), Params{})
	require.True(t, stats.Finished)
	require.NoError(t, sol.Verify(pattern, target))
	return s, stats, sol
}

func TestSingleEdge(t *testing.T) {
	pattern := graphOf([3]uint64{1, 2, 1})
	target := graphOf([3]uint64{10, 20, 1})

	_, stats, sol := solveAll(t, pattern, target, Config{})
	require.True(t, sol.Complete)
	require.Equal(t, uint64(1), sol.ScalarProduct)
	require.Equal(t, uint64(1), sol.TotalPWeight)
	require.Len(t, sol.Assignments, 2)
	require.True(t, stats.CompleteTarget)
	require.Equal(t, uint64(1), stats.TrivialLowerBound)
	require.Equal(t, uint64(1), stats.TrivialUpperBound)
}

func TestTriangleIntoCompleteGraph(t *testing.T) {
	_, stats, sol := solveAll(t, completeGraph(3, 1), completeGraph(4, 1), Config{Seed: 7})
	require.True(t, sol.Complete)
	require.Equal(t, uint64(3), sol.ScalarProduct)
	require.Equal(t, uint64(3), stats.TrivialLowerBound)
}

func TestPatternLargerThanTarget(t *testing.T) {
	s, err := New(pathGraph(5, 1), pathGraph(4, 1), Config{})
	require.NoError(t, err)

	stats, sol := s.Solve(context.Background(), Params{})
	require.True(t, stats.Finished)
	require.True(t, stats.Infeasible)
	require.Zero(t, stats.Iterations)
	require.True(t, sol.Empty())
	require.Nil(t, s.InitialDomains())
}

func TestMissingTargetEdge(t *testing.T) {
	// A 4-cycle passes the degree and distance filters for a triangle, but
	// has no triangle.
	cycle := graphOf(
		[3]uint64{0, 1, 1}, [3]uint64{1, 2, 1},
		[3]uint64{2, 3, 1}, [3]uint64{3, 0, 1})

	_, stats, sol := solveAll(t, completeGraph(3, 1), cycle, Config{})
	require.False(t, stats.Infeasible)
	require.False(t, sol.Complete)
	require.Positive(t, stats.ImpossibleAssignments)
}

func TestZeroWeightCap(t *testing.T) {
	zero := uint64(0)
	s, err := New(pathGraph(3, 1), gridGraph(3, 3), Config{WeightCap: &zero})
	require.NoError(t, err)

	stats, sol := s.Solve(context.Background(), Params{})
	require.True(t, stats.Finished)
	require.False(t, sol.Complete)
}

func TestOptimumAndPruningSoundness(t *testing.T) {
	pattern := pathGraph(3, 1)
	target := graphOf([3]uint64{10, 11, 1}, [3]uint64{11, 12, 5}, [3]uint64{12, 13, 1})

	_, stats, sol := solveAll(t, pattern, target, Config{})
	require.True(t, sol.Complete)
	require.Equal(t, uint64(6), sol.ScalarProduct)
	require.Equal(t, uint64(2), stats.TrivialLowerBound)
	require.Equal(t, uint64(6), stats.TrivialUpperBound)

	limit := uint64(5)
	_, _, sol = solveAll(t, pattern, target, Config{WeightCap: &limit})
	require.False(t, sol.Complete)
}

func TestHeavierPatternEdgeNeedsHeavierTargetEdge(t *testing.T) {
	pattern := graphOf([3]uint64{1, 2, 2})
	target := graphOf([3]uint64{10, 11, 5}, [3]uint64{11, 12, 3}, [3]uint64{12, 13, 1})

	_, _, sol := solveAll(t, pattern, target, Config{})
	require.True(t, sol.Complete)
	require.Equal(t, uint64(6), sol.ScalarProduct)
	m := sol.Map()
	require.ElementsMatch(t, []Vertex{11, 12}, []Vertex{m[1], m[2]})
}

func TestEmptyPattern(t *testing.T) {
	s, err := New(EdgeWeights{}, pathGraph(3, 1), Config{})
	require.NoError(t, err)
	stats := s.Stats()
	require.True(t, stats.Finished)
	require.Zero(t, stats.TrivialLowerBound)
	require.Zero(t, stats.TrivialUpperBound)
}

func TestInvalidGraphs(t *testing.T) {
	_, err := New(EdgeWeights{{A: 1, B: 1}: 1}, pathGraph(3, 1), Config{})
	require.True(t, errors.Is(err, ErrSelfLoop))

	dup := EdgeWeights{{A: 1, B: 2}: 1, {A: 2, B: 1}: 1}
	_, err = New(pathGraph(2, 1), dup, Config{})
	require.True(t, errors.Is(err, ErrDuplicateEdge))
}

func TestWeightOverflow(t *testing.T) {
	const big = uint64(1) << 40
	_, err := New(pathGraph(3, big), pathGraph(3, big), Config{})
	require.True(t, errors.Is(err, ErrWeightOverflow))
}

func TestMonotoneAcrossCalls(t *testing.T) {
	pattern, target := pathGraph(5, 1), gridGraph(4, 4)
	s, err := New(pattern, target, Config{Seed: 3})
	require.NoError(t, err)

	var prev Solution
	for i := 0; i < 100000; i++ {
		stats, sol := s.Solve(context.Background(), Params{MaxIterations: 3})
		require.NoError(t, sol.Verify(pattern, target))
		if prev.Complete {
			require.True(t, sol.Complete)
			require.LessOrEqual(t, sol.ScalarProduct, prev.ScalarProduct)
		}
		prev = sol
		if stats.Finished {
			break
		}
	}
	stats := s.Stats()
	require.True(t, stats.Finished)
	require.True(t, prev.Complete)

	again, sol := s.Solve(context.Background(), Params{MaxIterations: 10})
	require.Equal(t, stats.Iterations, again.Iterations)
	require.Equal(t, prev, sol)

	// A fresh solver run in one call reaches the same optimum.
	_, _, full := solveAll(t, pattern, target, Config{Seed: 99})
	require.Equal(t, prev.ScalarProduct, full.ScalarProduct)
}

func TestFirstSolution(t *testing.T) {
	s, err := New(pathGraph(4, 1), gridGraph(4, 4), Config{Seed: 5})
	require.NoError(t, err)

	stats, sol := s.Solve(context.Background(), Params{FirstSolution: true})
	require.True(t, sol.Complete)
	require.Equal(t, uint64(1), stats.CompleteSolutions)
}

func TestCancelledContext(t *testing.T) {
	s, err := New(pathGraph(4, 1), gridGraph(4, 4), Config{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats, sol := s.Solve(ctx, Params{})
	require.Zero(t, stats.Iterations)
	require.False(t, stats.Finished)
	require.True(t, sol.Empty())
}

func TestDeterministicForSeed(t *testing.T) {
	run := func() Solution {
		s, err := New(pathGraph(5, 1), gridGraph(4, 4), Config{Seed: 11})
		require.NoError(t, err)
		_, sol := s.Solve(context.Background(), Params{MaxIterations: 40})
		return sol
	}
	require.Equal(t, run(), run())
}

func TestReinitialisationIsIdempotent(t *testing.T) {
	pattern, target := pathGraph(4, 2), gridGraph(3, 4)
	a, err := New(pattern, target, Config{})
	require.NoError(t, err)
	b, err := New(pattern, target, Config{})
	require.NoError(t, err)

	require.Equal(t, a.InitialDomains(), b.InitialDomains())
	sa, sb := a.Stats(), b.Stats()
	require.Equal(t, sa.TrivialLowerBound, sb.TrivialLowerBound)
	require.Equal(t, sa.TrivialUpperBound, sb.TrivialUpperBound)
	require.Equal(t, sa.InitialPossibleAssignments, sb.InitialPossibleAssignments)
}

func TestFiltersKeepPlantedEmbedding(t *testing.T) {
	// The pattern is planted into the target at v -> 3v+1, and noise edges
	// join the planted vertices to extra ones.
	pattern := graphOf(
		[3]uint64{0, 1, 2}, [3]uint64{1, 2, 1}, [3]uint64{2, 0, 3},
		[3]uint64{2, 3, 1}, [3]uint64{3, 4, 2}, [3]uint64{4, 5, 1})
	plant := func(v Vertex) Vertex { return 3*v + 1 }

	target := make(EdgeWeights)
	for e, w := range pattern {
		target[NewEdge(plant(e.A), plant(e.B))] = w
	}
	for i, v := range []Vertex{0, 2, 3, 5, 6, 8, 9, 11, 12} {
		target[NewEdge(v, plant(Vertex(i%6)))] = uint64(i%3 + 1)
		target[NewEdge(v, Vertex(20+i))] = 1
	}

	s, err := New(pattern, target, Config{})
	require.NoError(t, err)
	domains := s.InitialDomains()
	for pv := range domains {
		require.Contains(t, domains[pv], plant(pv))
	}

	for _, pv := range pattern.Vertices() {
		a := search.Assignment{PV: s.pattern.index[pv], TV: s.target.index[plant(pv)]}
		for _, w := range s.reducers {
			require.True(t, w.Check(a), "pattern vertex %d", pv)
		}
	}

	stats, sol := s.Solve(context.Background(), Params{})
	require.True(t, stats.Finished)
	require.True(t, sol.Complete)
	require.NoError(t, sol.Verify(pattern, target))
}
