// Package cache stores solver results keyed by problem content and options.
//
// Solving a weighted subgraph monomorphism instance can take arbitrarily
// long, so the CLI and the server keep finished results around and answer
// repeated requests for the same problem without searching again.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: shared cache for multi-instance server deployments
//   - [NullCache]: never stores anything, used with --no-cache
//
// # Keys
//
// Keys are produced by a [Keyer]. [DefaultKeyer] hashes the problem hash
// together with every option that influences the answer, so changing the
// iteration budget or the weight cap never returns a stale result.
// [ScopedKeyer] prefixes keys for namespace isolation.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
//
// Get reports a miss with ok == false and a nil error. Implementations must
// be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// SolveKeyOpts lists the solver options that change a solve result.
type SolveKeyOpts struct {
	MaxIterations uint64 `json:"max_iterations,omitempty"`
	Timeout       string `json:"timeout,omitempty"`
	FirstSolution bool   `json:"first_solution,omitempty"`
	MaxPathLength int    `json:"max_path_length,omitempty"`
	CloseRadius   int    `json:"close_radius,omitempty"`
	WeightCap     uint64 `json:"weight_cap,omitempty"`
	HasWeightCap  bool   `json:"has_weight_cap,omitempty"`
	Seed          int64  `json:"seed,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// SolveKey keys a solve result by problem hash and options.
	SolveKey(problemHash string, opts SolveKeyOpts) string

	// SummaryKey keys the structural summary of a problem.
	SummaryKey(problemHash string) string
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a [DefaultKeyer].
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SolveKey returns "solve:<sha256>".
func (DefaultKeyer) SolveKey(problemHash string, opts SolveKeyOpts) string {
	return hashKey("solve", problemHash, opts)
}

// SummaryKey returns "summary:<problemHash>".
func (DefaultKeyer) SummaryKey(problemHash string) string {
	return "summary:" + problemHash
}

var _ Keyer = DefaultKeyer{}
