package pipeline

import (
	"context"
	"sync"
	"time"

	errs "github.com/matzehuels/wsm/pkg/errors"
	"github.com/matzehuels/wsm/pkg/graph"
	"github.com/matzehuels/wsm/pkg/observability"
	"github.com/matzehuels/wsm/pkg/session"
	"github.com/matzehuels/wsm/pkg/wsm"
)

// Live is a resumable solve. Each call to [Live.Solve] continues the search
// where the previous call stopped and updates the run record.
//
// Solve calls are serialised: a call made while another is running fails
// with a BUSY error instead of waiting. [Live.Snapshot] never blocks on a
// running search.
type Live struct {
	runner  *Runner
	problem *graph.Problem
	persist bool

	mu     sync.Mutex // guards solver, run and stats
	solver *wsm.Solver
	run    *session.Run
	stats  Stats

	snapMu   sync.RWMutex
	snapshot *graph.Result
	finished bool

	domains map[wsm.Vertex][]wsm.Vertex // taken once at Start, read-only
}

// ID returns the run id.
func (l *Live) ID() string { return l.run.ID }

// Problem returns the problem being solved.
func (l *Live) Problem() *graph.Problem { return l.problem }

// Finished reports whether the search space has been exhausted.
func (l *Live) Finished() bool {
	l.snapMu.RLock()
	defer l.snapMu.RUnlock()
	return l.finished
}

// Snapshot returns the state after the last completed call.
func (l *Live) Snapshot() *graph.Result {
	l.snapMu.RLock()
	defer l.snapMu.RUnlock()
	out := *l.snapshot
	out.Solution.Assignments = append([]wsm.Assignment(nil), l.snapshot.Solution.Assignments...)
	return &out
}

// InitialDomains returns the admissible target vertices per pattern vertex
// after initialisation. It does not wait for a running solve. The result is
// nil only when initialisation proved the problem infeasible.
func (l *Live) InitialDomains() map[wsm.Vertex][]wsm.Vertex {
	if l.domains == nil {
		return nil
	}
	out := make(map[wsm.Vertex][]wsm.Vertex, len(l.domains))
	for pv, tvs := range l.domains {
		out[pv] = append([]wsm.Vertex(nil), tvs...)
	}
	return out
}

// Solve continues the search within params.
func (l *Live) Solve(ctx context.Context, params wsm.Params) (*Result, error) {
	if !l.mu.TryLock() {
		return nil, errs.New(errs.ErrCodeBusy, "run %s is already solving", l.run.ID)
	}
	defer l.mu.Unlock()

	before := l.solver.Stats()
	prev := l.solver.Solution()

	start := time.Now()
	stats, sol := l.solver.Solve(ctx, params)
	elapsed := time.Since(start)
	l.stats.SolveTime += elapsed

	hooks := observability.Solver()
	hooks.OnSolve(ctx, stats.Iterations-before.Iterations, elapsed, stats.Finished)
	if improved(prev, sol) {
		hooks.OnSolution(ctx, sol.ScalarProduct, sol.Complete)
	}

	log := l.runner.Logger
	log.Info("solve call finished",
		"run", l.run.ID,
		"iterations", stats.Iterations-before.Iterations,
		"finished", stats.Finished,
		"complete", sol.Complete,
		"scalar_product", sol.ScalarProduct,
		"duration", elapsed)

	l.run.Update(stats, sol)
	if l.persist {
		persistStart := time.Now()
		// The run is recorded even if the caller gave up; use a fresh
		// context so cancellation does not lose the best solution.
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		if err := l.runner.Store.Put(pctx, l.run); err != nil {
			log.Warn("failed to store run", "run", l.run.ID, "error", err)
		}
		cancel()
		l.stats.PersistTime += time.Since(persistStart)
	}

	res := l.result()
	l.snapMu.Lock()
	l.snapshot = res
	l.finished = stats.Finished
	l.snapMu.Unlock()

	return &Result{Result: res, Stats: l.stats}, nil
}

// result builds a serialisable result from the current solver state.
// Callers hold l.mu or have exclusive access.
func (l *Live) result() *graph.Result {
	return &graph.Result{
		ProblemHash: l.run.ProblemHash,
		Solution:    l.solver.Solution(),
		Stats:       l.solver.Stats(),
		RunID:       l.run.ID,
		SolvedAt:    time.Now().UTC(),
	}
}

func improved(prev, cur wsm.Solution) bool {
	if cur.Empty() {
		return false
	}
	return cur.Complete != prev.Complete ||
		cur.ScalarProduct != prev.ScalarProduct ||
		cur.TotalPWeight != prev.TotalPWeight ||
		len(cur.Assignments) != len(prev.Assignments)
}
