package cli

import (
	"context"
	"io"
	"reflect"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wsm/pkg/config"
	errs "github.com/matzehuels/wsm/pkg/errors"
	"github.com/matzehuels/wsm/pkg/graph"
	"github.com/matzehuels/wsm/pkg/pipeline"
	"github.com/matzehuels/wsm/pkg/wsm"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "dot", []string{"dot"}},
		{"multiple formats", "svg,pdf,png", []string{"svg", "pdf", "png"}},
		{"spaces trimmed", "svg, json", []string{"svg", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input string
		want          string
	}{
		{"", "problem.json", "problem"},
		{"", "dir/grid.wsm", "dir/grid"},
		{"out.svg", "problem.json", "out"},
		{"out/result.json", "problem.json", "out/result"},
		{"out.v2", "problem.json", "out.v2"},
		{"embedding", "problem.toml", "embedding"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestSolverFlagsPrecedence(t *testing.T) {
	capTen := uint64(10)
	cfg := config.Solver{
		TimeoutMS:     5000,
		MaxIterations: 100,
		WeightCap:     &capTen,
		Seed:          1,
		MaxPathLength: 10,
		CloseRadius:   2,
	}

	t.Run("config when no flags are set", func(t *testing.T) {
		var f solverFlags
		cmd := &cobra.Command{}
		f.register(cmd)
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatal(err)
		}
		got := f.options(cmd, cfg)
		if got.Timeout != 5*time.Second || got.MaxIterations != 100 || got.Seed != 1 {
			t.Errorf("options() = %+v, want config values", got)
		}
		if got.WeightCap == nil || *got.WeightCap != 10 {
			t.Errorf("WeightCap = %v, want 10", got.WeightCap)
		}
	})

	t.Run("flags override config", func(t *testing.T) {
		var f solverFlags
		cmd := &cobra.Command{}
		f.register(cmd)
		err := cmd.ParseFlags([]string{"--timeout", "0", "--seed", "9", "--weight-cap", "42", "--first", "--close-radius", "1"})
		if err != nil {
			t.Fatal(err)
		}
		got := f.options(cmd, cfg)
		if got.Timeout != 0 {
			t.Errorf("Timeout = %v, want 0 from the flag", got.Timeout)
		}
		if got.Seed != 9 || !got.FirstSolution || got.CloseRadius != 1 {
			t.Errorf("options() = %+v, want flag values", got)
		}
		if got.WeightCap == nil || *got.WeightCap != 42 {
			t.Errorf("WeightCap = %v, want 42", got.WeightCap)
		}
		if got.MaxIterations != 100 || got.MaxPathLength != 10 {
			t.Errorf("unset flags should keep config values, got %+v", got)
		}
	})
}

func TestParseGraphSpec(t *testing.T) {
	tests := []struct {
		in      string
		want    graphSpec
		wantErr bool
	}{
		{in: "grid:3x4", want: graphSpec{kind: "grid", a: 3, b: 4}},
		{in: "complete:5", want: graphSpec{kind: "complete", a: 5}},
		{in: "path:2", want: graphSpec{kind: "path", a: 2}},
		{in: "random:10,20", want: graphSpec{kind: "random", a: 10, b: 20}},
		{in: " path:3 ", want: graphSpec{kind: "path", a: 3}},
		{in: "grid:3", wantErr: true},
		{in: "grid", wantErr: true},
		{in: "star:4", wantErr: true},
		{in: "complete:x", wantErr: true},
		{in: "random:10;20", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseGraphSpec(tt.in)
		if tt.wantErr {
			if !errs.Is(err, errs.ErrCodeInvalidInput) {
				t.Errorf("parseGraphSpec(%q) error = %v, want INVALID_INPUT", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseGraphSpec(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseGraphSpec(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestGenerate(t *testing.T) {
	t.Run("pattern and target", func(t *testing.T) {
		o := genOpts{pattern: "path:3", target: "grid:2x2", seed: 1, minWeight: 1, maxWeight: 1}
		p, err := o.generate()
		if err != nil {
			t.Fatal(err)
		}
		if len(p.Pattern) != 2 || len(p.Target) != 4 {
			t.Errorf("got %d pattern and %d target edges, want 2 and 4", len(p.Pattern), len(p.Target))
		}
		if p.Name != "path:3 in grid:2x2" {
			t.Errorf("Name = %q", p.Name)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("generated problem is invalid: %v", err)
		}
	})

	t.Run("planted", func(t *testing.T) {
		o := genOpts{pattern: "complete:3", embedVertices: 10, noise: 5, seed: 2, minWeight: 1, maxWeight: 5}
		p, err := o.generate()
		if err != nil {
			t.Fatal(err)
		}
		if len(p.Target) < 3 {
			t.Errorf("target has %d edges, want at least the planted 3", len(p.Target))
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		o := genOpts{pattern: "random:6,8", target: "random:20,60", seed: 5, minWeight: 1, maxWeight: 9}
		a, err := o.generate()
		if err != nil {
			t.Fatal(err)
		}
		b, err := o.generate()
		if err != nil {
			t.Fatal(err)
		}
		if graph.Hash(a) != graph.Hash(b) {
			t.Error("same seed should generate the same problem")
		}
	})

	t.Run("errors", func(t *testing.T) {
		for _, o := range []genOpts{
			{pattern: "path:3", minWeight: 1, maxWeight: 1},
			{pattern: "path:3", target: "grid:2x2", minWeight: 0, maxWeight: 1},
			{pattern: "random:3,5", target: "path:2", minWeight: 1, maxWeight: 1},
		} {
			if _, err := o.generate(); err == nil {
				t.Errorf("generate(%+v) should fail", o)
			}
		}
	})
}

func TestDomainPreview(t *testing.T) {
	if got := domainPreview([]wsm.Vertex{3, 1, 4}); got != "3 1 4" {
		t.Errorf("domainPreview = %q", got)
	}
	long := make([]wsm.Vertex, 10)
	for i := range long {
		long[i] = wsm.Vertex(i)
	}
	if got := domainPreview(long); got != "0 1 2 3 4 5 6 7 … (+2)" {
		t.Errorf("domainPreview = %q", got)
	}
}

func TestSolutionHeadline(t *testing.T) {
	tests := []struct {
		name string
		res  graph.Result
		want string
	}{
		{"infeasible", graph.Result{Stats: wsm.Stats{Finished: true, Infeasible: true}}, "No embedding exists"},
		{"empty", graph.Result{}, "No solution found"},
		{
			"optimal",
			graph.Result{
				Stats:    wsm.Stats{Finished: true},
				Solution: wsm.Solution{Complete: true, ScalarProduct: 7, Assignments: []wsm.Assignment{{Pattern: 0, Target: 1}}},
			},
			"Optimal embedding, scalar product 7",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := solutionHeadline(&tt.res); got != tt.want {
				t.Errorf("solutionHeadline() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSolveModelRunsToCompletion(t *testing.T) {
	p := &graph.Problem{
		Name:    "edge in triangle",
		Pattern: []graph.Edge{{A: 0, B: 1, Weight: 1}},
		Target:  []graph.Edge{{A: 0, B: 1, Weight: 3}, {A: 1, B: 2, Weight: 2}, {A: 0, B: 2, Weight: 5}},
	}
	ctx := context.Background()
	runner := pipeline.NewRunner(nil, nil, nil, newLogger(io.Discard, LogInfo))
	live, err := runner.Start(ctx, p, pipeline.Options{NoStore: true})
	if err != nil {
		t.Fatal(err)
	}

	model := NewSolveModel(ctx, live, graph.Options{})
	msg := model.Init()()
	next, cmd := model.Update(msg)
	if cmd == nil {
		t.Fatal("Update should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("a finished search should quit the program")
	}

	res, err := next.(SolveModel).Result()
	if err != nil {
		t.Fatal(err)
	}
	if !res.Result.Optimal() || res.Solution.ScalarProduct != 2 {
		t.Errorf("got %+v, want the optimum 2", res.Solution)
	}
	if view := next.(SolveModel).View(); view == "" {
		t.Error("View() should not be empty")
	}
}
