package wsm

import (
	"time"

	"github.com/charmbracelet/log"
)

// DefaultCloseRadius is the largest pattern distance propagated by the
// close-vertices filter.
const DefaultCloseRadius = 2

// Config fixes the behaviour of a solver for its whole lifetime.
type Config struct {
	// MaxPathLength bounds the distance-count filter run at initialisation.
	// Zero selects the default; negative disables the filter.
	MaxPathLength int

	// CloseRadius is the largest distance handled by the close-vertices
	// filter. Zero selects DefaultCloseRadius; negative disables it.
	CloseRadius int

	// WeightCap, if set, is the largest scalar product any accepted
	// solution may have.
	WeightCap *uint64

	// Seed drives the random tie-breaks of the value and variable ordering.
	// Solvers with the same seed and input explore the same tree.
	Seed int64

	// Logger receives debug output. Nil disables logging.
	Logger *log.Logger
}

func (c Config) closeRadius() int {
	if c.CloseRadius == 0 {
		return DefaultCloseRadius
	}
	return max(c.CloseRadius, 0)
}

// Params bounds a single call to [Solver.Solve].
type Params struct {
	// Timeout is the wall-clock budget of this call. Zero means no limit.
	Timeout time.Duration

	// MaxIterations caps the search iterations of this call. Zero means
	// no limit.
	MaxIterations uint64

	// FirstSolution returns as soon as a complete solution is recorded.
	// The search is left resumable and Finished stays false.
	FirstSolution bool
}

// Stats summarises the work done by a solver. Counters are cumulative over
// every call to [Solver.Solve].
type Stats struct {
	// Finished is set once the search space has been exhausted. The best
	// complete solution, if any, is then optimal under the weight cap.
	Finished bool `json:"finished" bson:"finished"`
	// Infeasible is set when initialisation proved there is no solution.
	Infeasible bool `json:"infeasible" bson:"infeasible"`

	Iterations uint64        `json:"iterations" bson:"iterations"`
	SearchTime time.Duration `json:"search_time" bson:"search_time"`
	InitTime   time.Duration `json:"init_time" bson:"init_time"`

	TrivialLowerBound uint64 `json:"trivial_lower_bound" bson:"trivial_lower_bound"`
	TrivialUpperBound uint64 `json:"trivial_upper_bound" bson:"trivial_upper_bound"`

	CompleteTarget             bool   `json:"complete_target" bson:"complete_target"`
	InitialPossibleAssignments int    `json:"initial_possible_assignments" bson:"initial_possible_assignments"`
	ImpossibleAssignments      int    `json:"impossible_assignments" bson:"impossible_assignments"`
	ImpossibleTargetVertices   int    `json:"impossible_target_vertices" bson:"impossible_target_vertices"`
	StrongNogoods              uint64 `json:"strong_nogoods" bson:"strong_nogoods"`
	CompleteSolutions          uint64 `json:"complete_solutions" bson:"complete_solutions"`
}
