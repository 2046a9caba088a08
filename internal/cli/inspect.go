package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wsm/pkg/graph"
	"github.com/matzehuels/wsm/pkg/pipeline"
	"github.com/matzehuels/wsm/pkg/wsm"
)

type inspectOpts struct {
	solver  solverFlags
	domains bool
	asJSON  bool
}

// inspectReport is the JSON form of the inspect output.
type inspectReport struct {
	graph.ProblemSummary
	Domains map[wsm.Vertex][]wsm.Vertex `json:"domains,omitempty"`
	Stats   *wsm.Stats                  `json:"stats,omitempty"`
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect [problem]",
		Short: "Summarise a problem without searching",
		Long: `Inspect prints vertex and edge counts, weight ranges and connectivity of
the pattern and target graphs. With --domains it also initialises the solver
and shows which target vertices each pattern vertex can still map to.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd, args[0], &opts)
		},
	}

	opts.solver.register(cmd)
	cmd.Flags().BoolVar(&opts.domains, "domains", false, "initialise the solver and show the initial domains")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the report as JSON")

	return cmd
}

func (c *CLI) runInspect(cmd *cobra.Command, input string, opts *inspectOpts) error {
	ctx := cmd.Context()

	p, err := graph.ReadProblemFile(input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, runnerOpts{noStore: true})
	if err != nil {
		return err
	}
	defer runner.Close()

	summary, err := runner.Summarize(ctx, p)
	if err != nil {
		return err
	}
	report := inspectReport{ProblemSummary: summary}

	if opts.domains {
		cfg, err := c.config()
		if err != nil {
			return err
		}
		live, err := runner.Start(ctx, p, pipeline.Options{Solve: opts.solver.options(cmd, cfg.Solver), NoStore: true})
		if err != nil {
			return err
		}
		report.Domains = live.InitialDomains()
		st := live.Snapshot().Stats
		report.Stats = &st
	}

	if opts.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printSummary(report.ProblemSummary)
	if report.Stats != nil {
		st := report.Stats
		if st.Infeasible {
			printWarning("Infeasible: some pattern vertex has no possible target")
		}
		printKeyValue("init time", st.InitTime.String())
		printDetail("%d initial assignments, %d ruled out, %d target vertices unusable",
			st.InitialPossibleAssignments, st.ImpossibleAssignments, st.ImpossibleTargetVertices)
		fmt.Println(domainTable(report.Domains))
	}
	return nil
}

func domainTable(domains map[wsm.Vertex][]wsm.Vertex) string {
	pvs := make([]wsm.Vertex, 0, len(domains))
	for pv := range domains {
		pvs = append(pvs, pv)
	}
	slices.Sort(pvs)

	rows := make([][]string, 0, len(pvs))
	for _, pv := range pvs {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(pv), 10),
			strconv.Itoa(len(domains[pv])),
			domainPreview(domains[pv]),
		})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers("Pattern", "Size", "Targets").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader.Padding(0, 1)
			case col == 2:
				return StyleDim.Padding(0, 1)
			}
			return StyleNumber.Padding(0, 1)
		})
	return t.Render()
}

// domainPreview lists the first few targets of a domain.
func domainPreview(tvs []wsm.Vertex) string {
	const maxShown = 8
	s := ""
	for i, tv := range tvs {
		if i == maxShown {
			return s + fmt.Sprintf(" … (+%d)", len(tvs)-maxShown)
		}
		if i > 0 {
			s += " "
		}
		s += strconv.FormatUint(uint64(tv), 10)
	}
	return s
}
