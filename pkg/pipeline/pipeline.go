// Package pipeline runs solver problems end to end for the CLI and the API.
//
// A solve goes through three stages:
//
//  1. Prepare: validate the problem, hash it, look the result up in the cache
//  2. Solve: initialise a solver and search within the call's budget
//  3. Persist: write the result to the cache and the run to the store
//
// Rendering the embedding ([Render]) is a separate step so that results can
// be drawn long after they were computed.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, store, logger)
//	res, err := runner.Solve(ctx, problem, pipeline.Options{
//	    Solve: graph.Options{Timeout: 10 * time.Second},
//	})
//
// Long searches can be driven incrementally through a [Live] session:
//
//	live, err := runner.Start(ctx, problem, opts)
//	for !live.Finished() {
//	    res, err := live.Solve(ctx, wsm.Params{MaxIterations: 10000})
//	    ...
//	}
package pipeline

import (
	"fmt"
	"time"

	"github.com/matzehuels/wsm/pkg/graph"
)

// =============================================================================
// Default Values
// =============================================================================

// DefaultTTL is how long solve results stay cached.
const DefaultTTL = 7 * 24 * time.Hour

// DefaultPNGScale is the resolution multiplier of PNG output.
const DefaultPNGScale = 2.0

// Format constants for rendered outputs.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one pipeline run.
type Options struct {
	// Solve holds solver settings and the budget of the call.
	Solve graph.Options `json:"solve"`

	// Refresh skips the cache lookup. The new result is still cached.
	Refresh bool `json:"refresh,omitempty"`

	// NoStore skips writing a run record.
	NoStore bool `json:"no_store,omitempty"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	*graph.Result

	// Stats contains per-stage timings.
	Stats Stats

	// CacheInfo reports whether the result came from the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	PatternVertices int
	TargetVertices  int
	PrepareTime     time.Duration
	InitTime        time.Duration
	SolveTime       time.Duration
	PersistTime     time.Duration
}

// CacheInfo tracks cache use.
type CacheInfo struct {
	Key string
	Hit bool
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, pdf, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// cacheable reports whether a result computed with opts can be reused. A
// wall-clock budget makes an unfinished search depend on machine speed.
func cacheable(res *graph.Result, opts graph.Options) bool {
	return res.Stats.Finished || opts.Timeout == 0
}
