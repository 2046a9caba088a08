package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/wsm/pkg/graph"
	"github.com/matzehuels/wsm/pkg/wsm"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleBorder  = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints an indented dim line.
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(16)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Solver Output
// =============================================================================

// printRunLine prints problem size and cache status on a single line.
func printRunLine(patternVertices, targetVertices int, elapsed time.Duration, cached bool) {
	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}
	parts := []string{
		StyleDim.Render(fmt.Sprintf("%d pattern vertices", patternVertices)),
		StyleDim.Render(fmt.Sprintf("%d target vertices", targetVertices)),
		StyleDim.Render(elapsed.Round(time.Millisecond).String()),
		statusStyle.Render(status),
	}
	line := " "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" ·")
		}
		line += " " + part
	}
	fmt.Println(line)
}

// solutionHeadline describes the quality of a result in one phrase.
func solutionHeadline(res *graph.Result) string {
	sol := res.Solution
	switch {
	case res.Stats.Infeasible:
		return "No embedding exists"
	case sol.Empty():
		return "No solution found"
	case res.Optimal():
		return fmt.Sprintf("Optimal embedding, scalar product %d", sol.ScalarProduct)
	case sol.Complete:
		return fmt.Sprintf("Embedding found, scalar product %d (not proven optimal)", sol.ScalarProduct)
	case res.Stats.Finished:
		return fmt.Sprintf("No complete embedding; best partial match has weight %d", sol.TotalPWeight)
	}
	return fmt.Sprintf("Partial embedding, %d of the pattern weight matched", sol.TotalPWeight)
}

// printResult prints the headline, the assignment table and the key
// search statistics.
func printResult(res *graph.Result) {
	if res.Solution.Complete {
		printSuccess("%s", solutionHeadline(res))
	} else {
		printWarning("%s", solutionHeadline(res))
	}
	if !res.Solution.Empty() {
		fmt.Println(assignmentTable(res.Solution))
	}
	printStats(res.Stats)
}

func assignmentTable(sol wsm.Solution) string {
	rows := make([][]string, 0, len(sol.Assignments))
	for _, a := range sol.Assignments {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(a.Pattern), 10),
			iconArrow,
			strconv.FormatUint(uint64(a.Target), 10),
		})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers("Pattern", "", "Target").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader.Padding(0, 1)
			case col == 1:
				return StyleDim.Padding(0, 1)
			}
			return StyleNumber.Padding(0, 1)
		})
	return t.Render()
}

func printStats(st wsm.Stats) {
	printKeyValue("iterations", strconv.FormatUint(st.Iterations, 10))
	printKeyValue("search time", st.SearchTime.Round(time.Millisecond).String())
	printKeyValue("finished", strconv.FormatBool(st.Finished))
	if st.TrivialUpperBound > 0 {
		printKeyValue("bounds", fmt.Sprintf("%d .. %d", st.TrivialLowerBound, st.TrivialUpperBound))
	}
	printDetail("%d initial assignments, %d ruled out, %d strong nogoods",
		st.InitialPossibleAssignments, st.ImpossibleAssignments, st.StrongNogoods)
}

func printSummary(s graph.ProblemSummary) {
	if s.Name != "" {
		fmt.Println(StyleTitle.Render(s.Name))
	}
	printKeyValue("hash", s.Hash[:16])
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers("", "Pattern", "Target").
		Rows(
			[]string{"vertices", strconv.Itoa(s.Pattern.Vertices), strconv.Itoa(s.Target.Vertices)},
			[]string{"edges", strconv.Itoa(s.Pattern.Edges), strconv.Itoa(s.Target.Edges)},
			[]string{"weights", weightRange(s.Pattern), weightRange(s.Target)},
			[]string{"total weight", strconv.FormatUint(s.Pattern.TotalWeight, 10), strconv.FormatUint(s.Target.TotalWeight, 10)},
			[]string{"max degree", strconv.Itoa(s.Pattern.MaxDegree), strconv.Itoa(s.Target.MaxDegree)},
			[]string{"components", strconv.Itoa(s.Pattern.Components), strconv.Itoa(s.Target.Components)},
			[]string{"complete", strconv.FormatBool(s.Pattern.Complete), strconv.FormatBool(s.Target.Complete)},
		).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow || col == 0 {
				return styleHeader.Padding(0, 1)
			}
			return StyleValue.Padding(0, 1)
		})
	fmt.Println(t.Render())
}

func weightRange(s graph.Summary) string {
	if s.Edges == 0 {
		return "-"
	}
	if s.MinWeight == s.MaxWeight {
		return strconv.FormatUint(s.MinWeight, 10)
	}
	return fmt.Sprintf("%d..%d", s.MinWeight, s.MaxWeight)
}
