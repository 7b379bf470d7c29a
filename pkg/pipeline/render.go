package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/layerank/pkg/dag"
	lerrors "github.com/matzehuels/layerank/pkg/errors"
	lio "github.com/matzehuels/layerank/pkg/io"
	"github.com/matzehuels/layerank/pkg/render"
	"github.com/matzehuels/layerank/pkg/render/nodelink"
)

// RenderGraph renders an already ranked graph in opts.Format.
// JSON output is the ranked graph in the interchange format of [lio.WriteJSON].
func RenderGraph(ctx context.Context, g *dag.DAG, opts Options) ([]byte, error) {
	if opts.Format == FormatJSON {
		var buf bytes.Buffer
		if err := lio.WriteJSON(g, &buf); err != nil {
			return nil, fmt.Errorf("render json: %w", err)
		}
		return buf.Bytes(), nil
	}
	data, err := nodelink.Render(ctx, g, opts.Format, nodelink.Options{
		Detailed:  opts.Detailed,
		EdgeAttrs: opts.EdgeAttrs,
		Converter: opts.Converter,
	})
	switch {
	case errors.Is(err, render.ErrNoConverter):
		return nil, lerrors.Wrap(lerrors.ErrCodeUnsupported, err,
			"%s output needs rsvg-convert (librsvg) on the server", opts.Format)
	case err != nil:
		return nil, fmt.Errorf("render %s: %w", opts.Format, err)
	}
	return data, nil
}

// ContentType returns the MIME type of an output format.
func ContentType(format string) string {
	if format == FormatJSON {
		return "application/json"
	}
	return nodelink.ContentType(format)
}
