// Package reduce implements the domain reducers run at every search node.
//
// A reducer looks at assignments made at the current node and shrinks the
// domains of other pattern vertices, or proves the node infeasible. Each
// [Reducer] is wrapped in a [Wrapper] that remembers how many of the node's
// new assignments it has already consumed, so that a reducer interrupted by
// fresh assignments resumes where it stopped.
//
// [HallSet] and [WeightNogood] do not work per assignment and have their own
// entry points.
package reduce

import "github.com/matzehuels/wsm/pkg/wsm/search"

// Result is the outcome of running a reducer over the pending assignments.
type Result int

const (
	// Success means every pending assignment was processed and the node is
	// stable as far as this reducer can tell.
	Success Result = iota
	// NewAssignments means a domain collapsed to a single value. The caller
	// should propagate the cheap consequences first and call again.
	NewAssignments
	// Nogood means the node cannot be extended to a solution.
	Nogood
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case NewAssignments:
		return "new-assignments"
	case Nogood:
		return "nogood"
	}
	return "unknown"
}

// Reducer propagates the consequences of a single assignment.
type Reducer interface {
	// Check reports whether pv->tv can be part of any solution, judged in
	// isolation from every other domain. A false result holds at every node
	// of every search, so callers may remember it.
	Check(a search.Assignment) bool

	// Reduce shrinks the current domains given the new assignment a. It
	// returns false if the node is a nogood.
	Reduce(a search.Assignment, nodes *search.Nodes) bool
}

// Wrapper tracks which of the current node's assignments a Reducer has seen.
type Wrapper struct {
	Reducer   Reducer
	processed int
}

// Wrap returns a Wrapper around r.
func Wrap(r Reducer) *Wrapper { return &Wrapper{Reducer: r} }

// Clear resets the processed count at the start of a node.
func (w *Wrapper) Clear() { w.processed = 0 }

// Check forwards to the wrapped reducer.
func (w *Wrapper) Check(a search.Assignment) bool { return w.Reducer.Check(a) }

// Reduce processes pending assignments, stopping early when one of them
// creates further assignments.
func (w *Wrapper) Reduce(nodes *search.Nodes) Result {
	for w.processed < len(nodes.NewAssignments()) {
		before := len(nodes.NewAssignments())
		a := nodes.NewAssignments()[w.processed]
		w.processed++
		if !w.Reducer.Reduce(a, nodes) {
			nodes.MarkNogood()
			return Nogood
		}
		if len(nodes.NewAssignments()) > before {
			return NewAssignments
		}
	}
	return Success
}
