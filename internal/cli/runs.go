package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	errs "github.com/matzehuels/wsm/pkg/errors"
	"github.com/matzehuels/wsm/pkg/session"
)

// runsCommand creates the runs management command.
func (c *CLI) runsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List and manage stored solver runs",
	}

	cmd.AddCommand(c.runsListCommand())
	cmd.AddCommand(c.runsShowCommand())
	cmd.AddCommand(c.runsDeleteCommand())
	cmd.AddCommand(c.runsCleanupCommand())

	return cmd
}

// openStore opens the configured run store.
func (c *CLI) openStore(cmd *cobra.Command) (session.Store, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	return session.Open(cmd.Context(), cfg.Store)
}

// runLookupError maps a store miss to RUN_NOT_FOUND.
func runLookupError(id string, err error) error {
	if errors.Is(err, session.ErrNotFound) {
		return errs.Wrap(errs.ErrCodeRunNotFound, err, "run %s", id)
	}
	return err
}

func (c *CLI) runsListCommand() *cobra.Command {
	var (
		limit   int
		problem string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), session.ListOptions{Limit: limit, ProblemHash: problem})
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				printInfo("No stored runs")
				return nil
			}
			printRuns(runs)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", session.DefaultListLimit, "maximum number of runs to list")
	cmd.Flags().StringVar(&problem, "problem", "", "only runs of the problem with this hash")
	return cmd
}

func (c *CLI) runsShowCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := errs.ValidateRunID(id); err != nil {
				return err
			}
			store, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), id)
			if err != nil {
				return runLookupError(id, err)
			}
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(run)
			}
			printKeyValue("id", run.ID)
			if run.Name != "" {
				printKeyValue("name", run.Name)
			}
			printKeyValue("problem", short(run.ProblemHash))
			printKeyValue("status", run.Status)
			printKeyValue("calls", strconv.Itoa(run.Calls))
			printKeyValue("updated", run.UpdatedAt.Local().Format(time.DateTime))
			printResult(run.Result())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run as JSON")
	return cmd
}

func (c *CLI) runsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := errs.ValidateRunID(id); err != nil {
				return err
			}
			store, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			printSuccess("Deleted run %s", id)
			return nil
		},
	}
}

func (c *CLI) runsCleanupCommand() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove runs that have not been updated recently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errs.New(errs.ErrCodeInvalidInput, "--older-than must be positive")
			}
			store, err := c.openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Cleanup(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			printSuccess("Removed %d runs older than %s", n, olderThan)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "age of the oldest run to keep")
	return cmd
}

func printRuns(runs []*session.Run) {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		best := "-"
		if r.Solution.Complete {
			best = strconv.FormatUint(r.Solution.ScalarProduct, 10)
		}
		rows = append(rows, []string{
			r.ID,
			r.Name,
			short(r.ProblemHash),
			r.Status,
			best,
			r.UpdatedAt.Local().Format(time.DateTime),
		})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers("ID", "Name", "Problem", "Status", "Best", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader.Padding(0, 1)
			case col == 4:
				return StyleNumber.Padding(0, 1)
			case col == 0 || col == 2:
				return StyleDim.Padding(0, 1)
			}
			return StyleValue.Padding(0, 1)
		})
	fmt.Println(t.Render())
}
