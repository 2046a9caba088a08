// Package session persists solver run records.
//
// A [Run] captures one problem, the options it was solved with, and the best
// solution and statistics reached so far. Long searches are resumed across
// several solve calls, so a run is written again after every call.
//
// Backends:
//   - [FileStore]: one JSON file per run, for the CLI
//   - [BadgerStore]: embedded key/value store, the CLI default
//   - [MongoStore]: shared store for server deployments
//
// # Usage
//
//	store, err := session.NewBadgerStore("~/.local/share/wsm/runs")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	run := session.New(graph.Hash(problem), problem.Name, opts)
//	run.Update(stats, solution)
//	err = store.Put(ctx, run)
//
// Get returns [ErrNotFound] for unknown ids.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/wsm/pkg/graph"
	"github.com/matzehuels/wsm/pkg/wsm"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Run states.
const (
	StatusRunning  = "running"
	StatusPaused   = "paused"
	StatusFinished = "finished"
)

// DefaultListLimit caps [Store.List] when no limit is given.
const DefaultListLimit = 50

// Run is a persisted solve.
type Run struct {
	ID          string        `json:"id" bson:"_id"`
	Name        string        `json:"name,omitempty" bson:"name,omitempty"`
	ProblemHash string        `json:"problem_hash" bson:"problem_hash"`
	Options     graph.Options `json:"options" bson:"options"`
	Status      string        `json:"status" bson:"status"`
	Calls       int           `json:"calls" bson:"calls"`
	Stats       wsm.Stats     `json:"stats" bson:"stats"`
	Solution    wsm.Solution  `json:"solution" bson:"solution"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" bson:"updated_at"`
}

// New creates a run with a fresh UUID.
func New(problemHash, name string, opts graph.Options) *Run {
	now := time.Now().UTC()
	return &Run{
		ID:          uuid.NewString(),
		Name:        name,
		ProblemHash: problemHash,
		Options:     opts,
		Status:      StatusRunning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Update records the outcome of one solve call.
func (r *Run) Update(stats wsm.Stats, sol wsm.Solution) {
	r.Calls++
	r.Stats = stats
	r.Solution = sol
	r.Status = StatusPaused
	if stats.Finished {
		r.Status = StatusFinished
	}
	r.UpdatedAt = time.Now().UTC()
}

// Result returns the run as a [graph.Result].
func (r *Run) Result() *graph.Result {
	return &graph.Result{
		ProblemHash: r.ProblemHash,
		Solution:    r.Solution,
		Stats:       r.Stats,
		RunID:       r.ID,
		SolvedAt:    r.UpdatedAt,
	}
}

// ListOptions filters [Store.List].
type ListOptions struct {
	// Limit caps the number of runs returned; zero means DefaultListLimit.
	Limit int
	// ProblemHash, if set, keeps only runs of that problem.
	ProblemHash string
}

func (o ListOptions) limit() int {
	if o.Limit <= 0 {
		return DefaultListLimit
	}
	return o.Limit
}

func (o ListOptions) match(r *Run) bool {
	return o.ProblemHash == "" || o.ProblemHash == r.ProblemHash
}

// Store is the interface for run storage backends.
type Store interface {
	// Get retrieves a run by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Run, error)

	// Put creates or replaces a run.
	Put(ctx context.Context, run *Run) error

	// List returns runs, most recently updated first.
	List(ctx context.Context, opts ListOptions) ([]*Run, error)

	// Delete removes a run. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error

	// Cleanup removes runs not updated within maxAge and reports how many
	// were removed.
	Cleanup(ctx context.Context, maxAge time.Duration) (int, error)

	Close() error
}
