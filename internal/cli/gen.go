package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/wsm/pkg/errors"
	"github.com/matzehuels/wsm/pkg/gen"
	"github.com/matzehuels/wsm/pkg/graph"
)

type genOpts struct {
	name          string
	pattern       string
	target        string
	embedVertices int
	noise         int
	slack         uint64
	seed          uint64
	minWeight     uint64
	maxWeight     uint64
	output        string
}

// graphSpec is a parsed generator description such as "grid:3x4".
type graphSpec struct {
	kind string
	a, b int
}

// genCommand creates the gen command.
func (c *CLI) genCommand() *cobra.Command {
	opts := genOpts{minWeight: 1, maxWeight: 1}

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a problem instance",
		Long: `Gen builds a problem from graph generators. A graph is described as

  grid:RxC      an R by C grid
  complete:N    the complete graph on N vertices
  path:N        a path on N vertices
  random:N,M    a random graph with N vertices and M edges

With --embed-vertices the target is built by planting the pattern on that many
vertices and adding --noise random edges, so a solution is known to exist.`,
		Example: `  wsm gen --pattern path:4 --target grid:5x5 -o path-in-grid.json
  wsm gen --pattern complete:4 --embed-vertices 40 --noise 200 --max-weight 9
  wsm gen --pattern random:10,18 --target random:60,400 --seed 7 -o bench.wsm`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.generate()
			if err != nil {
				return err
			}
			if opts.output == "" {
				return graph.WriteProblem(p, os.Stdout, graph.FormatJSON)
			}
			if err := graph.WriteProblemFile(p, opts.output); err != nil {
				return err
			}
			printSuccess("Generated %d pattern and %d target edges", len(p.Pattern), len(p.Target))
			printFile(opts.output)
			printNextStep("Solve it", fmt.Sprintf("%s solve %s", appName, opts.output))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "problem name")
	cmd.Flags().StringVar(&opts.pattern, "pattern", "", "pattern graph, e.g. path:4")
	cmd.Flags().StringVar(&opts.target, "target", "", "target graph, e.g. grid:5x5")
	cmd.Flags().IntVar(&opts.embedVertices, "embed-vertices", 0, "plant the pattern in a target with this many vertices")
	cmd.Flags().IntVar(&opts.noise, "noise", 0, "random edges added around the planted pattern")
	cmd.Flags().Uint64Var(&opts.slack, "slack", 0, "maximum extra weight on planted edges")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 1, "random seed")
	cmd.Flags().Uint64Var(&opts.minWeight, "min-weight", opts.minWeight, "smallest edge weight")
	cmd.Flags().Uint64Var(&opts.maxWeight, "max-weight", opts.maxWeight, "largest edge weight")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (.json, .toml, .txt or .wsm; default: JSON to stdout)")
	_ = cmd.MarkFlagRequired("pattern")
	cmd.MarkFlagsMutuallyExclusive("target", "embed-vertices")

	return cmd
}

func (o *genOpts) generate() (*graph.Problem, error) {
	if o.target == "" && o.embedVertices == 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "either --target or --embed-vertices is required")
	}
	if o.minWeight == 0 || o.maxWeight == 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "edge weights must be positive")
	}
	weights := gen.Uniform(o.minWeight, o.maxWeight)

	ps, err := parseGraphSpec(o.pattern)
	if err != nil {
		return nil, err
	}
	pattern, err := ps.build(gen.Options{Seed: o.seed, Weights: weights})
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "pattern %s", o.pattern)
	}

	var target []graph.Edge
	if o.embedVertices > 0 {
		emb, err := gen.Embed(pattern, gen.EmbedOptions{
			Options:        gen.Options{Seed: o.seed + 1, Weights: weights},
			TargetVertices: o.embedVertices,
			Noise:          o.noise,
			Slack:          o.slack,
		})
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "embed")
		}
		target = emb.Target
	} else {
		ts, err := parseGraphSpec(o.target)
		if err != nil {
			return nil, err
		}
		target, err = ts.build(gen.Options{Seed: o.seed + 1, Weights: weights})
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "target %s", o.target)
		}
	}

	name := o.name
	if name == "" {
		name = o.pattern + " in " + o.target
		if o.embedVertices > 0 {
			name = fmt.Sprintf("%s planted in %d vertices", o.pattern, o.embedVertices)
		}
	}
	return &graph.Problem{Name: name, Pattern: pattern, Target: target}, nil
}

// parseGraphSpec parses "kind:args".
func parseGraphSpec(s string) (graphSpec, error) {
	kind, args, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return graphSpec{}, errs.New(errs.ErrCodeInvalidInput, "graph %q: want kind:size, e.g. grid:3x4", s)
	}
	spec := graphSpec{kind: kind}
	var err error
	switch kind {
	case "grid":
		spec.a, spec.b, err = parsePair(args, "x")
	case "random":
		spec.a, spec.b, err = parsePair(args, ",")
	case "complete", "path":
		spec.a, err = strconv.Atoi(args)
	default:
		return graphSpec{}, errs.New(errs.ErrCodeInvalidInput, "graph %q: unknown kind %q (grid, complete, path, random)", s, kind)
	}
	if err != nil {
		return graphSpec{}, errs.Wrap(errs.ErrCodeInvalidInput, err, "graph %q", s)
	}
	return spec, nil
}

func parsePair(s, sep string) (int, int, error) {
	x, y, ok := strings.Cut(s, sep)
	if !ok {
		return 0, 0, fmt.Errorf("want two sizes separated by %q", sep)
	}
	a, err := strconv.Atoi(x)
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.Atoi(y)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func (s graphSpec) build(opts gen.Options) ([]graph.Edge, error) {
	switch s.kind {
	case "grid":
		return gen.Grid(s.a, s.b, opts)
	case "complete":
		return gen.Complete(s.a, opts)
	case "path":
		return gen.Path(s.a, opts)
	case "random":
		return gen.Random(s.a, s.b, opts)
	}
	return nil, fmt.Errorf("unknown graph kind %q", s.kind)
}
