package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNoConverter is returned when the rsvg-convert executable cannot be
// found. Install librsvg: brew install librsvg (macOS), apt install
// librsvg2-bin (Linux).
var ErrNoConverter = errors.New("rsvg-convert not found")

// DefaultScale is the PNG scale factor used when Converter.Scale is unset.
const DefaultScale = 2.0

// Converter turns the SVG drawn from a ranked graph into PDF or PNG by
// running rsvg-convert. The zero value looks the tool up on PATH.
type Converter struct {
	// Binary is the rsvg-convert executable. Empty means PATH lookup.
	Binary string
	// Scale multiplies the PNG resolution. Zero means DefaultScale.
	Scale float64
}

// PDF converts svg to a single-page PDF.
func (c Converter) PDF(ctx context.Context, svg []byte) ([]byte, error) {
	return c.run(ctx, svg, "pdf")
}

// PNG converts svg to a PNG at c's scale.
func (c Converter) PNG(ctx context.Context, svg []byte) ([]byte, error) {
	scale := c.Scale
	if scale <= 0 {
		scale = DefaultScale
	}
	return c.run(ctx, svg, "png", "--zoom", strconv.FormatFloat(scale, 'f', -1, 64))
}

// Available reports whether the converter's executable can be run.
func (c Converter) Available() bool {
	_, err := c.binary()
	return err == nil
}

func (c Converter) binary() (string, error) {
	name := c.Binary
	if name == "" {
		name = "rsvg-convert"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoConverter, name)
	}
	return path, nil
}

func (c Converter) run(ctx context.Context, svg []byte, format string, args ...string) ([]byte, error) {
	bin, err := c.binary()
	if err != nil {
		return nil, fmt.Errorf("%s output: %w", format, err)
	}

	cmd := exec.CommandContext(ctx, bin, append([]string{"--format", format}, args...)...)
	cmd.Stdin = bytes.NewReader(svg)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("rsvg-convert %s: %w: %s", format, err, strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), nil
}
