// Package cli implements the wsm command-line interface.
//
// Commands:
//   - solve: find the best embedding of a pattern graph into a target graph
//   - inspect: summarise a problem and its initial domains
//   - render: draw an embedding as SVG, PNG, PDF or DOT
//   - gen: generate benchmark problems
//   - runs: list, show and delete stored runs
//   - serve: run the HTTP API
//   - cache: manage the result cache
//
// All commands support --verbose (-v) for debug-level logging and --config
// to select a configuration file.
package cli

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wsm/pkg/cache"
	"github.com/matzehuels/wsm/pkg/config"
	"github.com/matzehuels/wsm/pkg/graph"
	"github.com/matzehuels/wsm/pkg/pipeline"
	"github.com/matzehuels/wsm/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display and cache key scoping.
const appName = "wsm"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	c.Logger.SetReportCaller(level <= log.DebugLevel)
}

// config loads the configuration file once.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

type runnerOpts struct {
	noCache bool
	noStore bool
}

// newRunner creates a pipeline runner from the configuration.
func (c *CLI) newRunner(ctx context.Context, ro runnerOpts) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	ch, err := c.newCache(ctx, cfg.Cache, ro.noCache)
	if err != nil {
		return nil, err
	}

	var store session.Store
	if !ro.noStore {
		store, err = session.Open(ctx, cfg.Store)
		if err != nil {
			ch.Close()
			return nil, err
		}
	}

	runner := pipeline.NewRunner(cache.Instrument(ch), cache.NewScopedKeyer(nil, appName+":"), store, c.Logger)
	if cfg.Cache.TTL.Duration > 0 {
		runner.TTL = cfg.Cache.TTL.Duration
	}
	return runner, nil
}

// newCache opens the configured cache. An unreachable Redis falls back to
// no caching rather than failing the command.
func (c *CLI) newCache(ctx context.Context, cfg config.Cache, disabled bool) (cache.Cache, error) {
	if disabled {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.CacheFile:
		fc, err := cache.NewFileCache(cfg.Dir)
		if err != nil {
			c.Logger.Warn("cache disabled", "dir", cfg.Dir, "error", err)
			return cache.NewNullCache(), nil
		}
		return fc, nil
	case config.CacheRedis:
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		rc, err := cache.NewRedisCache(pingCtx, cache.RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err != nil {
			c.Logger.Warn("cache disabled", "addr", cfg.RedisAddr, "error", err)
			return cache.NewNullCache(), nil
		}
		return rc, nil
	}
	return cache.NewNullCache(), nil
}

// =============================================================================
// Solver Flags
// =============================================================================

// solverFlags are the solver settings shared by solve, render and inspect.
// Flags the user did not set fall back to the [solver] config section.
type solverFlags struct {
	timeout       time.Duration
	maxIterations uint64
	firstSolution bool
	weightCap     uint64
	seed          int64
	maxPathLength int
	closeRadius   int
}

func (f *solverFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.DurationVar(&f.timeout, "timeout", 0, "wall-clock budget, e.g. 30s (0 = unlimited)")
	fs.Uint64Var(&f.maxIterations, "max-iterations", 0, "iteration budget (0 = unlimited)")
	fs.BoolVar(&f.firstSolution, "first", false, "stop at the first complete solution")
	fs.Uint64Var(&f.weightCap, "weight-cap", 0, "only accept solutions with a scalar product at most this")
	fs.Int64Var(&f.seed, "seed", 0, "random seed for value ordering")
	fs.IntVar(&f.maxPathLength, "max-path-length", 0, "path length of the initial distance filter")
	fs.IntVar(&f.closeRadius, "close-radius", 0, "radius of the distance reducer (1 or 2)")
}

// options merges the flags the user set over the configured defaults.
func (f *solverFlags) options(cmd *cobra.Command, cfg config.Solver) graph.Options {
	opts := graph.Options{
		Timeout:       cfg.Timeout(),
		MaxIterations: cfg.MaxIterations,
		FirstSolution: cfg.FirstSolution,
		WeightCap:     cfg.WeightCap,
		Seed:          cfg.Seed,
		MaxPathLength: cfg.MaxPathLength,
		CloseRadius:   cfg.CloseRadius,
	}
	changed := cmd.Flags().Changed
	if changed("timeout") {
		opts.Timeout = f.timeout
	}
	if changed("max-iterations") {
		opts.MaxIterations = f.maxIterations
	}
	if changed("first") {
		opts.FirstSolution = f.firstSolution
	}
	if changed("weight-cap") {
		w := f.weightCap
		opts.WeightCap = &w
	}
	if changed("seed") {
		opts.Seed = f.seed
	}
	if changed("max-path-length") {
		opts.MaxPathLength = f.maxPathLength
	}
	if changed("close-radius") {
		opts.CloseRadius = f.closeRadius
	}
	return opts
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
