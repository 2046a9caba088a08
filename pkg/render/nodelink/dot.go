package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/wsm/pkg/graph"
	"github.com/matzehuels/wsm/pkg/render"
	"github.com/matzehuels/wsm/pkg/wsm"
)

// Options configures the embedding diagram.
type Options struct {
	// Detailed labels every edge with its weight, and matched edges with
	// "target (pattern)" weights. When false only matched edges are
	// labelled.
	Detailed bool

	// HideUnmatched drops target edges that carry no pattern edge.
	HideUnmatched bool

	// ShowPattern adds the pattern graph as a separate cluster.
	ShowPattern bool
}

const (
	matchedColor   = "#d62728"
	mappedFill     = "#fde0dd"
	unmatchedColor = "#9e9e9e"
)

// ToDOT draws the target graph of p with the embedding sol highlighted.
// Target vertices hosting a pattern vertex are filled and labelled "t / p".
// Target edges carrying a pattern edge are drawn bold.
func ToDOT(p *graph.Problem, sol wsm.Solution, opts Options) string {
	mapping := sol.Map()
	host := make(map[uint64]uint64, len(mapping))
	for pv, tv := range mapping {
		host[uint64(tv)] = uint64(pv)
	}
	carried := make(map[[2]uint64]uint64)
	for _, e := range p.Pattern {
		ta, okA := mapping[wsm.Vertex(e.A)]
		tb, okB := mapping[wsm.Vertex(e.B)]
		if okA && okB {
			carried[pairKey(uint64(ta), uint64(tb))] = e.Weight
		}
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	if opts.ShowPattern {
		writePattern(&buf, p.Pattern)
	}

	for _, v := range vertices(p.Target) {
		attrs := []string{fmt.Sprintf("label=%q", strconv.FormatUint(v, 10))}
		if pv, ok := host[v]; ok {
			attrs = []string{
				fmt.Sprintf("label=%q", fmt.Sprintf("%d / %d", v, pv)),
				"fillcolor=\"" + mappedFill + "\"",
				"penwidth=2",
			}
		}
		fmt.Fprintf(&buf, "  \"t%d\" [%s];\n", v, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range p.Target {
		pw, matched := carried[pairKey(e.A, e.B)]
		if !matched && opts.HideUnmatched {
			continue
		}
		fmt.Fprintf(&buf, "  \"t%d\" -- \"t%d\" [%s];\n", e.A, e.B, strings.Join(edgeAttrs(e.Weight, pw, matched, opts.Detailed), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func edgeAttrs(tw, pw uint64, matched, detailed bool) []string {
	if matched {
		return []string{
			fmt.Sprintf("label=%q", fmt.Sprintf("%d (%d)", tw, pw)),
			"color=\"" + matchedColor + "\"",
			"penwidth=3",
		}
	}
	attrs := []string{"color=\"" + unmatchedColor + "\"", "style=dashed"}
	if detailed {
		attrs = append(attrs, fmt.Sprintf("label=%q", strconv.FormatUint(tw, 10)))
	}
	return attrs
}

func writePattern(buf *bytes.Buffer, edges []graph.Edge) {
	buf.WriteString("  subgraph cluster_pattern {\n")
	buf.WriteString("    label=\"pattern\";\n")
	for _, v := range vertices(edges) {
		fmt.Fprintf(buf, "    \"p%d\" [label=\"%d\", shape=square];\n", v, v)
	}
	for _, e := range edges {
		fmt.Fprintf(buf, "    \"p%d\" -- \"p%d\" [label=\"%d\"];\n", e.A, e.B, e.Weight)
	}
	buf.WriteString("  }\n\n")
}

func vertices(edges []graph.Edge) []uint64 {
	var vs []uint64
	for _, e := range edges {
		vs = append(vs, e.A, e.B)
	}
	slices.Sort(vs)
	return slices.Compact(vs)
}

func pairKey(a, b uint64) [2]uint64 {
	if a > b {
		a, b = b, a
	}
	return [2]uint64{a, b}
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one
// that scales cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion at the given
// scale.
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
