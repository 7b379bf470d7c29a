// Package render turns ranked graphs into pictures.
//
// The [nodelink] subpackage emits Graphviz DOT in which every row of the
// ranking becomes a rank=same group, and renders it to SVG in process.
// A [Converter] turns that SVG into PDF or PNG with the external
// rsvg-convert tool (from librsvg). Without the tool, conversions fail with
// [ErrNoConverter]:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	pdf, err := render.Converter{}.PDF(ctx, svg)
//
// [nodelink]: github.com/matzehuels/layerank/pkg/render/nodelink
package render
