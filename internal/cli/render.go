package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/wsm/pkg/errors"
	"github.com/matzehuels/wsm/pkg/graph"
	"github.com/matzehuels/wsm/pkg/pipeline"
	"github.com/matzehuels/wsm/pkg/render/nodelink"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	solver   solverFlags
	output   string // base path for the rendered files
	formats  string
	result   string // result JSON written by solve -o
	run      string // stored run ID
	nodelink nodelink.Options
	scale    float64
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [problem]",
		Short: "Draw the target graph with the embedded pattern highlighted",
		Long: `Render draws the target graph and highlights the edges and vertices the
pattern was mapped onto.

The solution comes from --result (a file written by "solve -o"), from --run
(a stored run), or, if neither is given, from a fresh solve with the usual
solver flags.`,
		Example: `  wsm render problem.json --run 0d6e...
  wsm render problem.json --result result.json -f svg,png
  wsm render problem.toml --timeout 5s --detailed -o out/embedding`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.result != "" && opts.run != "" {
				return errs.New(errs.ErrCodeInvalidInput, "--result and --run are mutually exclusive")
			}
			if err := pipeline.ValidateFormats(parseFormats(opts.formats)); err != nil {
				return err
			}
			return c.runRender(cmd, args[0], &opts)
		},
	}

	opts.solver.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: problem path without extension)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), png, pdf, dot, json (comma-separated)")
	cmd.Flags().StringVar(&opts.result, "result", "", "render the solution in this result file")
	cmd.Flags().StringVar(&opts.run, "run", "", "render the solution of this stored run")
	cmd.Flags().BoolVar(&opts.nodelink.Detailed, "detailed", false, "label edges with pattern and target weights")
	cmd.Flags().BoolVar(&opts.nodelink.HideUnmatched, "hide-unmatched", false, "draw only the matched part of the target")
	cmd.Flags().BoolVar(&opts.nodelink.ShowPattern, "show-pattern", false, "draw the pattern graph alongside the target")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultPNGScale, "PNG resolution multiplier")

	return cmd
}

// basePath derives the base output path from the output and input file
// paths.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	// Strip known format extensions from output path
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)
	logger.Infof("Rendering %s", input)
	sw := newStopwatch(logger)

	p, err := graph.ReadProblemFile(input)
	if err != nil {
		return err
	}
	sw.lap("read problem")

	res, err := c.loadResult(cmd, p, opts)
	if err != nil {
		return err
	}
	sw.lap("load solution")
	if want := graph.Hash(p); res.ProblemHash != "" && res.ProblemHash != want {
		return errs.New(errs.ErrCodeInvalidInput, "result belongs to problem %s, not %s", short(res.ProblemHash), short(want))
	}
	logger.Debug("loaded solution", "assignments", len(res.Solution.Assignments), "complete", res.Solution.Complete)

	ropts := pipeline.RenderOptions{
		Formats:  parseFormats(opts.formats),
		Nodelink: opts.nodelink,
		Scale:    opts.scale,
	}
	paths, err := writeArtifacts(p, res, ropts, basePath(opts.output, input))
	if err != nil {
		return err
	}
	sw.done("Rendered "+p.Name, "files", len(paths))
	printSuccess("%s", solutionHeadline(res))
	for _, path := range paths {
		printFile(path)
	}
	return nil
}

// loadResult returns the solution to draw, solving p if the flags name
// none.
func (c *CLI) loadResult(cmd *cobra.Command, p *graph.Problem, opts *renderOpts) (*graph.Result, error) {
	ctx := cmd.Context()
	switch {
	case opts.result != "":
		data, err := os.ReadFile(opts.result)
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "read result")
		}
		return graph.UnmarshalResult(data)
	case opts.run != "":
		return c.storedResult(ctx, opts.run)
	}

	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, runnerOpts{})
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	res, err := solveWithSpinner(ctx, runner, p, pipeline.Options{Solve: opts.solver.options(cmd, cfg.Solver)})
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}

func (c *CLI) storedResult(ctx context.Context, id string) (*graph.Result, error) {
	if err := errs.ValidateRunID(id); err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, runnerOpts{noCache: true})
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	run, err := runner.Store.Get(ctx, id)
	if err != nil {
		return nil, runLookupError(id, err)
	}
	return run.Result(), nil
}

// short abbreviates a hash for display.
func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
