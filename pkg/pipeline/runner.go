package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wsm/pkg/cache"
	errs "github.com/matzehuels/wsm/pkg/errors"
	"github.com/matzehuels/wsm/pkg/graph"
	"github.com/matzehuels/wsm/pkg/observability"
	"github.com/matzehuels/wsm/pkg/session"
	"github.com/matzehuels/wsm/pkg/wsm"
)

// Runner encapsulates pipeline execution with caching and run storage.
// Both CLI and API use it so that caching and persistence behave the same
// everywhere.
//
// A Runner holds no per-problem state. Multiple goroutines can use the
// same Runner concurrently.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  session.Store // optional
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner. A nil keyer selects [cache.DefaultKeyer], a
// nil cache disables caching, a nil store disables run records and a nil
// logger discards output.
func NewRunner(c cache.Cache, keyer cache.Keyer, store session.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Store:  store,
		Logger: logger,
		TTL:    DefaultTTL,
	}
}

// Solve runs the whole pipeline for p with a single solve call.
func (r *Runner) Solve(ctx context.Context, p *graph.Problem, opts Options) (*Result, error) {
	prepStart := time.Now()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	hash := graph.Hash(p)
	key := r.Keyer.SolveKey(hash, opts.Solve.KeyOpts())

	if !opts.Refresh {
		if cached, ok := r.lookup(ctx, key); ok {
			r.Logger.Info("solve result from cache", "problem", hash[:12],
				"scalar_product", cached.Solution.ScalarProduct)
			cached.Cached = true
			return &Result{
				Result:    cached,
				Stats:     Stats{PrepareTime: time.Since(prepStart)},
				CacheInfo: CacheInfo{Key: key, Hit: true},
			}, nil
		}
	}
	prepare := time.Since(prepStart)

	live, err := r.start(ctx, p, hash, opts)
	if err != nil {
		return nil, err
	}
	res, err := live.Solve(ctx, opts.Solve.Params())
	if err != nil {
		return nil, err
	}
	res.Stats.PrepareTime = prepare
	res.CacheInfo.Key = key

	if ctx.Err() == nil && cacheable(res.Result, opts.Solve) {
		if data, err := json.Marshal(res.Result); err == nil {
			if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
				r.Logger.Warn("cache write failed", "error", err)
			}
		}
	}
	return res, nil
}

// lookup reads a cached result, retrying transient backend failures.
func (r *Runner) lookup(ctx context.Context, key string) (*graph.Result, bool) {
	var (
		data []byte
		hit  bool
	)
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		data, hit, err = r.Cache.Get(ctx, key)
		return err
	})
	if err != nil {
		r.Logger.Warn("cache read failed", "error", err)
		return nil, false
	}
	if !hit {
		return nil, false
	}
	res, err := graph.UnmarshalResult(data)
	if err != nil {
		_ = r.Cache.Delete(ctx, key)
		return nil, false
	}
	return res, true
}

// Start validates p and initialises a solver without searching.
func (r *Runner) Start(ctx context.Context, p *graph.Problem, opts Options) (*Live, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return r.start(ctx, p, graph.Hash(p), opts)
}

func (r *Runner) start(ctx context.Context, p *graph.Problem, hash string, opts Options) (*Live, error) {
	pattern, target := graph.ToEdgeWeights(p.Pattern), graph.ToEdgeWeights(p.Target)
	np, nt := len(pattern.Vertices()), len(target.Vertices())

	initStart := time.Now()
	solver, err := wsm.New(pattern, target, opts.Solve.Config(r.Logger))
	initTime := time.Since(initStart)
	observability.Solver().OnInitialise(ctx, np, nt, initTime, err)
	if err != nil {
		return nil, classify(err)
	}

	stats := solver.Stats()
	r.Logger.Info("initialised solver",
		"pattern_vertices", np,
		"target_vertices", nt,
		"possible_assignments", stats.InitialPossibleAssignments,
		"infeasible", stats.Infeasible,
		"duration", initTime)

	live := &Live{
		runner:  r,
		problem: p,
		solver:  solver,
		run:     session.New(hash, p.Name, opts.Solve),
		persist: r.Store != nil && !opts.NoStore,
		stats:   Stats{PatternVertices: np, TargetVertices: nt, InitTime: initTime},
		domains: solver.InitialDomains(),
	}
	live.snapshot = live.result()
	live.finished = stats.Finished
	return live, nil
}

// Summarize reports the structure of p, cached by problem hash.
func (r *Runner) Summarize(ctx context.Context, p *graph.Problem) (graph.ProblemSummary, error) {
	if err := p.Validate(); err != nil {
		return graph.ProblemSummary{}, err
	}
	key := r.Keyer.SummaryKey(graph.Hash(p))
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		var s graph.ProblemSummary
		if json.Unmarshal(data, &s) == nil {
			s.Name = p.Name
			return s, nil
		}
	}
	s := graph.SummarizeProblem(p)
	if data, err := json.Marshal(s); err == nil {
		_ = r.Cache.Set(ctx, key, data, r.TTL)
	}
	return s, nil
}

// Close releases the cache and the store.
func (r *Runner) Close() error {
	var errList []error
	if r.Cache != nil {
		errList = append(errList, r.Cache.Close())
	}
	if r.Store != nil {
		errList = append(errList, r.Store.Close())
	}
	return errors.Join(errList...)
}

// classify attaches error codes to solver construction failures.
func classify(err error) error {
	switch {
	case errors.Is(err, wsm.ErrWeightOverflow):
		return errs.Wrap(errs.ErrCodeWeightOverflow, err, "cannot solve safely")
	case errors.Is(err, wsm.ErrSelfLoop), errors.Is(err, wsm.ErrDuplicateEdge):
		return errs.Wrap(errs.ErrCodeInvalidGraph, err, "invalid graph")
	}
	return errs.Wrap(errs.ErrCodeInternal, err, "initialise solver")
}
