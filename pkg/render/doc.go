// Package render converts rendered diagrams between output formats.
//
// The [nodelink] subpackage draws a target graph with an embedding
// highlighted and renders it to SVG with Graphviz. [ToPDF] and [ToPNG]
// convert that SVG using the external rsvg-convert tool (from librsvg):
//
//	svg, err := nodelink.RenderSVG(dot)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)
package render
