package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wsm/pkg/graph"
	"github.com/matzehuels/wsm/pkg/pipeline"
)

type solveOpts struct {
	solver  solverFlags
	output  string
	render  string
	noCache bool
	refresh bool
	noStore bool
	tui     bool
	quiet   bool
}

// solveCommand creates the solve command.
func (c *CLI) solveCommand() *cobra.Command {
	var opts solveOpts

	cmd := &cobra.Command{
		Use:   "solve [problem]",
		Short: "Find the lowest-weight embedding of the pattern into the target",
		Long: `Solve reads a problem file (.json, .toml, or the .txt/.wsm edge-list format)
and searches for an injective mapping of pattern vertices onto target vertices
in which every pattern edge lands on a target edge of at least its weight.

The search can be bounded with --timeout and --max-iterations. When the budget
runs out the best solution found so far is reported, which may be partial.`,
		Example: `  wsm solve problem.json --timeout 30s
  wsm solve problem.wsm --first -o result.json
  wsm solve problem.toml --tui --render svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.render != "" {
				if err := pipeline.ValidateFormats(parseFormats(opts.render)); err != nil {
					return err
				}
			}
			return c.runSolve(cmd, args[0], &opts)
		},
	}

	opts.solver.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the result as JSON to this file")
	cmd.Flags().StringVar(&opts.render, "render", "", "also render the embedding: svg, png, pdf, dot (comma-separated)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results but store the new one")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "do not record the run")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "show live search progress")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "print only the result summary line")

	return cmd
}

func (c *CLI) runSolve(cmd *cobra.Command, input string, opts *solveOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	sw := newStopwatch(logger)

	p, err := graph.ReadProblemFile(input)
	if err != nil {
		return err
	}
	sw.lap("read problem")
	cfg, err := c.config()
	if err != nil {
		return err
	}
	solveOptions := opts.solver.options(cmd, cfg.Solver)
	logger.Debug("solver options", "timeout", solveOptions.Timeout, "max_iterations", solveOptions.MaxIterations,
		"seed", solveOptions.Seed, "first", solveOptions.FirstSolution)

	runner, err := c.newRunner(ctx, runnerOpts{noCache: opts.noCache, noStore: opts.noStore})
	if err != nil {
		return err
	}
	defer runner.Close()
	sw.lap("open cache and store")

	pipeOpts := pipeline.Options{Solve: solveOptions, Refresh: opts.refresh, NoStore: opts.noStore}

	var res *pipeline.Result
	if opts.tui {
		res, err = solveInteractive(ctx, runner, p, pipeOpts)
	} else {
		res, err = solveWithSpinner(ctx, runner, p, pipeOpts)
	}
	if err != nil {
		return err
	}
	sw.done("Solved "+p.Name, "complete", res.Solution.Complete,
		"scalar_product", res.Solution.ScalarProduct, "cached", res.CacheInfo.Hit)

	if opts.quiet {
		fmt.Println(solutionHeadline(res.Result))
	} else {
		printRunLine(res.Stats.PatternVertices, res.Stats.TargetVertices, res.Stats.SolveTime, res.CacheInfo.Hit)
		printResult(res.Result)
	}
	if res.Solution.Complete {
		pattern, target, err := p.Graphs()
		if err != nil {
			return err
		}
		if err := res.Solution.Verify(pattern, target); err != nil {
			return fmt.Errorf("solver returned an invalid solution: %w", err)
		}
	}

	if opts.output != "" {
		if err := writeResultFile(opts.output, res.Result); err != nil {
			return err
		}
		printFile(opts.output)
	}
	if opts.render != "" {
		base := basePath(opts.output, input)
		paths, err := writeArtifacts(p, res.Result, pipeline.RenderOptions{Formats: parseFormats(opts.render)}, base)
		if err != nil {
			return err
		}
		for _, path := range paths {
			printFile(path)
		}
	}
	if !opts.quiet && res.RunID != "" && !opts.noStore && !res.CacheInfo.Hit {
		printNextStep("Render this run", fmt.Sprintf("%s render %s --run %s", appName, input, res.RunID))
	}
	return nil
}

func solveWithSpinner(ctx context.Context, runner *pipeline.Runner, p *graph.Problem, opts pipeline.Options) (*pipeline.Result, error) {
	spinner := newSpinnerWithContext(ctx, "Searching...")
	spinner.Start()
	defer spinner.Stop()
	return runner.Solve(ctx, p, opts)
}

// solveInteractive drives a live session from the TUI. Quitting early keeps
// the best solution found so far.
func solveInteractive(ctx context.Context, runner *pipeline.Runner, p *graph.Problem, opts pipeline.Options) (*pipeline.Result, error) {
	live, err := runner.Start(ctx, p, opts)
	if err != nil {
		return nil, err
	}
	final, err := tea.NewProgram(NewSolveModel(ctx, live, opts.Solve), tea.WithContext(ctx), tea.WithOutput(os.Stderr)).Run()
	if err != nil && ctx.Err() == nil {
		return nil, err
	}
	last, solveErr := final.(SolveModel).Result()
	if solveErr != nil {
		return nil, solveErr
	}
	if last == nil {
		// Quit before the first slice returned.
		return &pipeline.Result{Result: live.Snapshot()}, nil
	}
	last.Result = live.Snapshot()
	return last, nil
}

func writeResultFile(path string, res *graph.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := graph.WriteResult(res, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeArtifacts renders res in each format and writes base.<format>.
func writeArtifacts(p *graph.Problem, res *graph.Result, opts pipeline.RenderOptions, base string) ([]string, error) {
	artifacts, err := pipeline.Render(p, res, opts)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, format := range opts.Formats {
		path := base + "." + format
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
