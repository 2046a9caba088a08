package wsm

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/bits-and-blooms/bitset"

	"github.com/matzehuels/wsm/pkg/wsm/analytics"
	"github.com/matzehuels/wsm/pkg/wsm/checked"
	"github.com/matzehuels/wsm/pkg/wsm/initial"
	"github.com/matzehuels/wsm/pkg/wsm/reduce"
	"github.com/matzehuels/wsm/pkg/wsm/search"
)

// Solver is one resumable search session.
//
// A Solver owns all of its scratch state and must not be used from more
// than one goroutine at a time. Each call to [Solver.Solve] continues the
// search exactly where the previous call stopped.
type Solver struct {
	cfg     Config
	pattern *labelled
	target  *labelled

	nodes    *search.Nodes
	reducers []*reduce.Wrapper
	hall     *reduce.HallSet
	weights  *reduce.WeightNogood
	compat   *compatCache
	used     *bitset.BitSet
	rng      *rand.Rand

	complete    bool
	incidentSum []uint64
	initial     [][]Vertex

	maxWeight uint64
	stats     Stats
	best      Solution
	bestTV    []int
}

// New builds a solver for embedding pattern into target.
//
// Structural infeasibility is not an error: the returned solver is already
// finished, with Stats.Infeasible set and an empty solution. New fails only
// on malformed graphs and on weights whose products could overflow.
func New(pattern, target EdgeWeights, cfg Config) (*Solver, error) {
	start := time.Now()
	p, err := relabel(pattern)
	if err != nil {
		return nil, err
	}
	t, err := relabel(target)
	if err != nil {
		return nil, err
	}
	s := &Solver{
		cfg:       cfg,
		pattern:   p,
		target:    t,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		maxWeight: checked.Max,
	}
	defer func() { s.stats.InitTime = time.Since(start) }()

	if len(pattern) == 0 {
		s.stats.Finished = true
		return s, nil
	}

	res, err := initial.Initialise(p.graph, t.graph, initial.Options{MaxPathLength: cfg.MaxPathLength})
	if errors.Is(err, initial.ErrNoSolution) {
		s.stats.Finished = true
		s.stats.Infeasible = true
		s.debug("initialisation failed", "reason", err)
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := checkSafe(p.graph, t.graph, res.Domains); err != nil {
		return nil, err
	}

	s.complete = res.CompleteTarget
	s.used = res.Used
	s.stats.CompleteTarget = res.CompleteTarget
	s.stats.InitialPossibleAssignments = res.PossibleAssignments
	s.stats.TrivialLowerBound, s.stats.TrivialUpperBound = trivialBounds(p.graph, t.graph)
	s.initial = make([][]Vertex, len(res.Domains))
	for pv, dom := range res.Domains {
		for tv, ok := dom.NextSet(0); ok; tv, ok = dom.NextSet(tv + 1) {
			s.initial[pv] = append(s.initial[pv], t.ids[tv])
		}
	}

	np, nt := p.graph.NumVertices(), t.graph.NumVertices()
	s.nodes = search.NewNodes(res.Domains, nt)
	s.hall = reduce.NewHallSet(nt)
	s.compat = newCompatCache(np, nt)
	s.bestTV = make([]int, np)
	for pv := range s.bestTV {
		s.bestTV[pv] = search.Unassigned
	}
	if s.complete {
		s.incidentSum = make([]uint64, np)
		for pv := range s.incidentSum {
			s.incidentSum[pv], _ = checked.Sum(p.graph.IncidentWeights(pv))
		}
	} else {
		s.reducers = append(s.reducers, reduce.Wrap(reduce.NewDerived(
			analytics.NewDerived(p.graph), analytics.NewDerived(t.graph))))
		pn, tn := analytics.NewNearNeighbours(p.graph), analytics.NewNearNeighbours(t.graph)
		for d := 1; d <= cfg.closeRadius(); d++ {
			s.reducers = append(s.reducers, reduce.Wrap(reduce.NewDistance(pn, tn, d)))
		}
	}

	s.debug("initialised",
		"pattern_vertices", np, "target_vertices", nt,
		"complete_target", s.complete,
		"possible_assignments", res.PossibleAssignments,
		"lower_bound", s.stats.TrivialLowerBound,
		"upper_bound", s.stats.TrivialUpperBound)

	if cfg.WeightCap != nil {
		s.tighten(*cfg.WeightCap)
	}
	return s, nil
}

// Stats returns the cumulative statistics.
func (s *Solver) Stats() Stats { return s.stats }

// Solution returns a copy of the best solution found so far.
func (s *Solver) Solution() Solution {
	out := s.best
	out.Assignments = append([]Assignment(nil), s.best.Assignments...)
	return out
}

// InitialDomains returns the target vertices admissible for each pattern
// vertex after initialisation. It is nil when initialisation failed.
func (s *Solver) InitialDomains() map[Vertex][]Vertex {
	if s.initial == nil {
		return nil
	}
	out := make(map[Vertex][]Vertex, len(s.initial))
	for pv, tvs := range s.initial {
		out[s.pattern.ids[pv]] = append([]Vertex(nil), tvs...)
	}
	return out
}

// Solve runs the search until it finishes, the call's budget runs out or
// ctx is cancelled. Running out of budget is not an error: Stats.Finished
// stays false and the best solution so far is returned. Calling Solve on a
// finished solver returns immediately.
func (s *Solver) Solve(ctx context.Context, params Params) (Stats, Solution) {
	start := time.Now()
	var deadline time.Time
	if params.Timeout > 0 {
		deadline = start.Add(params.Timeout)
	}
	var iterations uint64
	for !s.stats.Finished {
		if params.MaxIterations > 0 && iterations >= params.MaxIterations {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			break
		}
		iterations++
		s.stats.Iterations++
		if s.step() && params.FirstSolution {
			break
		}
	}
	s.stats.SearchTime += time.Since(start)
	return s.Stats(), s.Solution()
}

// step reduces the current node and moves once. It reports whether a
// complete solution was recorded.
func (s *Solver) step() bool {
	if !s.reduceNode() {
		s.recordPartial()
		s.backtrack()
		return false
	}
	pv := s.chooseVariable()
	if pv == search.Unassigned {
		s.recordComplete()
		s.backtrack()
		return true
	}
	s.nodes.MoveDown(pv, s.chooseValue(pv))
	return false
}

func (s *Solver) backtrack() {
	if !s.nodes.MoveUp() {
		s.stats.Finished = true
		s.debug("search finished", "iterations", s.stats.Iterations)
	}
}

// tighten lowers the accepted maximum scalar product.
func (s *Solver) tighten(limit uint64) {
	if limit >= s.maxWeight {
		return
	}
	s.maxWeight = limit
	s.debug("weight cap", "max", limit)
	if limit < s.stats.TrivialLowerBound {
		s.stats.Finished = true
		return
	}
	if s.weights == nil && s.stats.TrivialLowerBound != s.stats.TrivialUpperBound {
		s.weights = reduce.NewWeightNogood(s.pattern.graph, s.target.graph, s.used)
	}
}

func (s *Solver) snapshot(as []search.Assignment) []Assignment {
	out := make([]Assignment, len(as))
	for i, a := range as {
		out[i] = Assignment{Pattern: s.pattern.ids[a.PV], Target: s.target.ids[a.TV]}
		s.bestTV[a.PV] = a.TV
	}
	return out
}

func (s *Solver) recordComplete() {
	sp := s.nodes.ScalarProduct()
	s.best = Solution{
		Assignments:   s.snapshot(s.nodes.Assignments()),
		ScalarProduct: sp,
		TotalPWeight:  s.nodes.TotalPWeight(),
		Complete:      true,
	}
	s.stats.CompleteSolutions++
	s.debug("complete solution", "scalar_product", sp, "iterations", s.stats.Iterations)
	if sp == 0 {
		// Nothing can beat zero.
		s.stats.Finished = true
		return
	}
	s.tighten(sp - 1)
}

func (s *Solver) recordPartial() {
	if s.best.Complete {
		return
	}
	pw, sp := s.nodes.TotalPWeight(), s.nodes.ScalarProduct()
	if pw == 0 {
		return
	}
	if pw < s.best.TotalPWeight || (pw == s.best.TotalPWeight && sp >= s.best.ScalarProduct) {
		return
	}
	s.best = Solution{
		Assignments:   s.snapshot(s.nodes.CountedAssignments()),
		ScalarProduct: sp,
		TotalPWeight:  pw,
	}
}

func (s *Solver) debug(msg string, keyvals ...any) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Debug(msg, keyvals...)
	}
}
