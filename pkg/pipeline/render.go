package pipeline

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/wsm/pkg/graph"
	"github.com/matzehuels/wsm/pkg/render/nodelink"
)

// RenderOptions configures [Render].
type RenderOptions struct {
	Formats  []string
	Nodelink nodelink.Options
	// Scale is the PNG resolution multiplier; zero means DefaultPNGScale.
	Scale float64
}

// Render draws the embedding of res into the target graph of p in each
// requested format. No format defaults to SVG.
func Render(p *graph.Problem, res *graph.Result, opts RenderOptions) (map[string][]byte, error) {
	formats := opts.Formats
	if len(formats) == 0 {
		formats = []string{FormatSVG}
	}
	if err := ValidateFormats(formats); err != nil {
		return nil, err
	}
	scale := opts.Scale
	if scale == 0 {
		scale = DefaultPNGScale
	}

	dot := nodelink.ToDOT(p, res.Solution, opts.Nodelink)
	artifacts := make(map[string][]byte, len(formats))
	for _, format := range formats {
		var (
			data []byte
			err  error
		)
		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(dot, scale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(dot)
		case FormatJSON:
			var buf bytes.Buffer
			err = graph.WriteResult(res, &buf)
			data = buf.Bytes()
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
