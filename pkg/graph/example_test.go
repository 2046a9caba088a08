package graph_test

import (
	"fmt"
	"os"
	"strings"

	"github.com/matzehuels/wsm/pkg/graph"
)

func ExampleReadProblem() {
	src := `
pattern: 0-1:2; 1-2:3
target:  7-8:5; 8-9:4; 9-7:1
`
	p, err := graph.ReadProblem(strings.NewReader(src), graph.FormatText)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	pattern, target, _ := p.Graphs()
	fmt.Println("pattern vertices:", pattern.Vertices())
	fmt.Println("target vertices:", target.Vertices())
	// Output:
	// pattern vertices: [0 1 2]
	// target vertices: [7 8 9]
}

func ExampleWriteProblem() {
	p := &graph.Problem{
		Pattern: []graph.Edge{{A: 0, B: 1, Weight: 2}},
		Target:  []graph.Edge{{A: 1, B: 0, Weight: 5}},
	}
	if err := graph.WriteProblem(p, os.Stdout, graph.FormatText); err != nil {
		fmt.Println("Error:", err)
	}
	// Output:
	// pattern:
	//   0-1:2;
	// target:
	//   1-0:5;
}

func ExampleSummarize() {
	s := graph.Summarize([]graph.Edge{
		{A: 0, B: 1, Weight: 2},
		{A: 1, B: 2, Weight: 3},
		{A: 5, B: 6, Weight: 1},
	})
	fmt.Printf("vertices=%d edges=%d components=%d total=%d\n",
		s.Vertices, s.Edges, s.Components, s.TotalWeight)
	// Output:
	// vertices=5 edges=3 components=2 total=6
}
