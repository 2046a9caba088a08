package graph

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wsm/pkg/cache"
	"github.com/matzehuels/wsm/pkg/wsm"
)

// Options is the serialisable form of the solver configuration and the
// budget of one solve call. It travels in API requests and run records.
type Options struct {
	Timeout       time.Duration `json:"timeout,omitempty" bson:"timeout,omitempty"`
	MaxIterations uint64        `json:"max_iterations,omitempty" bson:"max_iterations,omitempty"`
	FirstSolution bool          `json:"first_solution,omitempty" bson:"first_solution,omitempty"`
	WeightCap     *uint64       `json:"weight_cap,omitempty" bson:"weight_cap,omitempty"`
	Seed          int64         `json:"seed,omitempty" bson:"seed,omitempty"`
	MaxPathLength int           `json:"max_path_length,omitempty" bson:"max_path_length,omitempty"`
	CloseRadius   int           `json:"close_radius,omitempty" bson:"close_radius,omitempty"`
}

// Config returns the solver configuration. logger may be nil.
func (o Options) Config(logger *log.Logger) wsm.Config {
	return wsm.Config{
		MaxPathLength: o.MaxPathLength,
		CloseRadius:   o.CloseRadius,
		WeightCap:     o.WeightCap,
		Seed:          o.Seed,
		Logger:        logger,
	}
}

// Params returns the budget of one solve call.
func (o Options) Params() wsm.Params {
	return wsm.Params{
		Timeout:       o.Timeout,
		MaxIterations: o.MaxIterations,
		FirstSolution: o.FirstSolution,
	}
}

// KeyOpts returns the cache key components of o.
func (o Options) KeyOpts() cache.SolveKeyOpts {
	k := cache.SolveKeyOpts{
		MaxIterations: o.MaxIterations,
		FirstSolution: o.FirstSolution,
		MaxPathLength: o.MaxPathLength,
		CloseRadius:   o.CloseRadius,
		Seed:          o.Seed,
	}
	if o.Timeout > 0 {
		k.Timeout = o.Timeout.String()
	}
	if o.WeightCap != nil {
		k.HasWeightCap = true
		k.WeightCap = *o.WeightCap
	}
	return k
}
