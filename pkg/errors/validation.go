package errors

import (
	"regexp"
	"unicode"
)

// ValidatePath checks a local file path named on the command line or in a
// config file. Relative paths, ".." components and platform separators are
// all allowed; only paths no file system accepts are rejected.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 bytes
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d bytes)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// runIDRegex matches run and session ids: lowercase hex UUIDs.
var runIDRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateRunID validates a run or session identifier taken from user input.
// Ids are used as file names and database keys, so anything that is not a
// canonical UUID is rejected.
func ValidateRunID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "run id cannot be empty")
	}
	if !runIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid run id: %q", id)
	}
	return nil
}

// EdgeEndpoints is the minimal view of an edge needed for validation.
type EdgeEndpoints interface {
	Endpoints() (a, b uint64)
}

// ValidateEdges checks that a graph's edge list is simple: no self loops
// and no pair listed twice in either orientation. name identifies the graph
// in messages ("pattern", "target").
func ValidateEdges[E EdgeEndpoints](name string, edges []E) error {
	type pair struct{ a, b uint64 }
	seen := make(map[pair]struct{}, len(edges))
	for i, e := range edges {
		a, b := e.Endpoints()
		if a == b {
			return New(ErrCodeInvalidGraph, "%s edge %d is a self loop at vertex %d", name, i, a)
		}
		if a > b {
			a, b = b, a
		}
		if _, dup := seen[pair{a, b}]; dup {
			return New(ErrCodeInvalidGraph, "%s edge %d duplicates %d-%d", name, i, a, b)
		}
		seen[pair{a, b}] = struct{}{}
	}
	return nil
}
