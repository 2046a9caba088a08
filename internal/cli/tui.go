package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/wsm/pkg/graph"
	"github.com/matzehuels/wsm/pkg/pipeline"
	"github.com/matzehuels/wsm/pkg/wsm"
)

// sliceDuration is the length of one solve call driven by the TUI.
const sliceDuration = 100 * time.Millisecond

var (
	tuiLabelStyle = lipgloss.NewStyle().Foreground(colorGray)
	tuiBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

// =============================================================================
// SolveModel - Live search progress
// =============================================================================

// stepMsg carries the outcome of one solve slice.
type stepMsg struct {
	res *pipeline.Result
	err error
}

// SolveModel drives a [pipeline.Live] in short slices and shows the best
// solution as it improves. The overall budget comes from the options the
// session was started with.
type SolveModel struct {
	ctx    context.Context
	live   *pipeline.Live
	budget graph.Options
	start  time.Time

	last     *pipeline.Result
	history  []uint64 // scalar products of successive complete solutions
	err      error
	stopped  bool
	finished bool
}

// NewSolveModel creates a model for live.
func NewSolveModel(ctx context.Context, live *pipeline.Live, budget graph.Options) SolveModel {
	return SolveModel{ctx: ctx, live: live, budget: budget, start: time.Now()}
}

func (m SolveModel) Init() tea.Cmd {
	return m.step()
}

// step runs the next slice. The final slice is shortened so that the
// total wall-clock budget is respected.
func (m SolveModel) step() tea.Cmd {
	params := wsm.Params{Timeout: sliceDuration, FirstSolution: m.budget.FirstSolution}
	if m.budget.Timeout > 0 {
		if left := m.budget.Timeout - time.Since(m.start); left < params.Timeout {
			params.Timeout = max(left, time.Millisecond)
		}
	}
	if m.budget.MaxIterations > 0 {
		var done uint64
		if m.last != nil {
			done = m.last.Result.Stats.Iterations
		}
		params.MaxIterations = m.budget.MaxIterations - done
	}
	live, ctx := m.live, m.ctx
	return func() tea.Msg {
		res, err := live.Solve(ctx, params)
		return stepMsg{res: res, err: err}
	}
}

// exhausted reports whether the overall budget is used up.
func (m SolveModel) exhausted() bool {
	if m.last == nil {
		return false
	}
	st, sol := m.last.Result.Stats, m.last.Solution
	switch {
	case st.Finished:
		return true
	case m.budget.FirstSolution && sol.Complete:
		return true
	case m.budget.MaxIterations > 0 && st.Iterations >= m.budget.MaxIterations:
		return true
	case m.budget.Timeout > 0 && time.Since(m.start) >= m.budget.Timeout:
		return true
	}
	return m.ctx.Err() != nil
}

func (m SolveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.stopped = true
			return m, tea.Quit
		}
	case stepMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		if sol := msg.res.Solution; sol.Complete {
			if n := len(m.history); n == 0 || m.history[n-1] != sol.ScalarProduct {
				m.history = append(m.history, sol.ScalarProduct)
			}
		}
		m.last = msg.res
		if m.exhausted() {
			m.finished = true
			return m, tea.Quit
		}
		if m.stopped {
			return m, nil
		}
		return m, m.step()
	}
	return m, nil
}

func (m SolveModel) View() string {
	var b strings.Builder

	name := m.live.Problem().Name
	if name == "" {
		name = "problem"
	}
	b.WriteString(StyleTitle.Render("Solving " + name))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q quit and keep the best solution"))
	b.WriteString("\n\n")

	elapsed := time.Since(m.start).Round(100 * time.Millisecond)
	rows := [][]string{{"elapsed", elapsed.String()}}
	if m.last != nil {
		st, sol := m.last.Result.Stats, m.last.Solution
		rows = append(rows,
			[]string{"iterations", strconv.FormatUint(st.Iterations, 10)},
			[]string{"status", m.status()},
			[]string{"matched", fmt.Sprintf("%d / %d vertices", len(sol.Assignments), m.last.Stats.PatternVertices)},
			[]string{"pattern weight", strconv.FormatUint(sol.TotalPWeight, 10)},
			[]string{"scalar product", scalarProduct(sol)},
			[]string{"bounds", fmt.Sprintf("%d .. %d", st.TrivialLowerBound, st.TrivialUpperBound)},
			[]string{"strong nogoods", strconv.FormatUint(st.StrongNogoods, 10)},
		)
	}
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return tuiLabelStyle.Width(16)
			}
			return StyleNumber
		})
	b.WriteString(tuiBoxStyle.Render(t.Render()))
	b.WriteString("\n")

	if len(m.history) > 1 {
		parts := make([]string, len(m.history))
		for i, sp := range m.history {
			parts[i] = strconv.FormatUint(sp, 10)
		}
		b.WriteString(StyleDim.Render("improvements: " + strings.Join(parts, " "+iconArrow+" ")))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(styleIconError.Render(iconError) + " " + m.err.Error() + "\n")
	}
	return b.String()
}

func (m SolveModel) status() string {
	switch {
	case m.last == nil:
		return "initialising"
	case m.last.Result.Stats.Infeasible:
		return "infeasible"
	case m.last.Result.Optimal():
		return StyleSuccess.Render("optimal")
	case m.last.Result.Stats.Finished:
		return "finished"
	case m.stopped:
		return "stopping"
	}
	return "searching"
}

func scalarProduct(sol wsm.Solution) string {
	if !sol.Complete {
		return "-"
	}
	return strconv.FormatUint(sol.ScalarProduct, 10)
}

// Result returns the last solve outcome and any error.
func (m SolveModel) Result() (*pipeline.Result, error) {
	return m.last, m.err
}
