// Package nodelink renders ranked graphs as node-link diagrams.
//
// # Usage
//
// Convert a ranked DAG to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [Render] does both and also produces PDF and PNG through
// [render.Converter].
//
// # DOT Format
//
// [ToDOT] emits one rank=same subgraph per row holding two or more nodes,
// and passes edge minlen and weight through as DOT attributes. Graphviz then
// draws rows exactly as ranked, so the picture shows the ranking rather than
// Graphviz's own.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
//
// [render.Converter]: github.com/matzehuels/layerank/pkg/render.Converter
package nodelink
