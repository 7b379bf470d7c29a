package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	lerrors "github.com/matzehuels/layerank/pkg/errors"
	"github.com/matzehuels/layerank/pkg/pipeline"
)

// renderOpts holds the render-only command-line flags.
type renderOpts struct {
	output    string   // output file (single format) or base path (multiple)
	formats   []string // output formats: dot, svg, pdf, png, json
	detailed  bool     // show rows and metadata in node labels
	edgeAttrs bool     // label edges with non-default minlen or weight
}

// renderCommand creates the render command for drawing ranked graphs.
func (c *CLI) renderCommand() *cobra.Command {
	var flags rankFlags
	var formatsStr string
	var ro renderOpts

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Rank a JSON graph and draw it",
		Long: `Render ranks a graph and draws it with Graphviz, keeping the computed rows.
Several formats can be requested at once; each is written next to the input
unless --output is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ro.formats = parseFormats(formatsStr)
			if err := validateFormats(ro.formats); err != nil {
				return err
			}
			if args[0] == "-" && ro.output == "" {
				return lerrors.New(lerrors.ErrCodeInvalidInput, "--output is required when reading stdin")
			}
			opts := c.settings().PipelineOptions()
			flags.apply(cmd.Flags(), &opts)
			opts.Detailed = ro.detailed
			opts.EdgeAttrs = ro.edgeAttrs
			return c.runRender(cmd.Context(), args[0], flags.noCache, opts, &ro)
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVarP(&ro.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, json, pdf, png (comma-separated)")
	cmd.Flags().BoolVar(&ro.detailed, "detailed", false, "show rows and metadata in node labels")
	cmd.Flags().BoolVar(&ro.edgeAttrs, "edge-attrs", false, "label edges with their minlen and weight")
	registerFlagCompletions(cmd)

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// validateFormats checks that all requested formats are valid.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if err := pipeline.ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .pdf, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPath returns the file a format is written to. A single format goes
// to --output verbatim when it is set.
func outputPath(ro *renderOpts, input, format string) string {
	if len(ro.formats) == 1 && ro.output != "" {
		return ro.output
	}
	return basePath(ro.output, input) + "." + format
}

func (c *CLI) runRender(ctx context.Context, input string, noCache bool, opts pipeline.Options, ro *renderOpts) error {
	logger := loggerFromContext(ctx)

	g, err := readGraph(input, os.Stdin)
	if err != nil {
		return err
	}
	logger.Infof("Loaded graph: %d nodes, %d edges", g.NodeCount(), g.EdgeCount())

	runner, err := c.newRunner(ctx, noCache, scopeCLI)
	if err != nil {
		return err
	}
	defer runner.Close()

	for _, format := range ro.formats {
		opts.Format = format
		spinner := newSpinner(ctx, fmt.Sprintf("Rendering %s...", format))
		spinner.Start()
		data, cached, err := runner.RenderWithCacheInfo(ctx, g, opts)
		if err != nil {
			spinner.StopWithError(fmt.Sprintf("%s failed", format))
			return fmt.Errorf("%s: %w", format, err)
		}
		spinner.Stop()

		path := outputPath(ro, input, format)
		if filepath.Clean(path) == filepath.Clean(input) {
			return lerrors.New(lerrors.ErrCodeInvalidPath, "%s output would overwrite the input %s", format, input)
		}
		if err := writeOutput(path, data, nil); err != nil {
			return err
		}
		logger.Debugf("Generated %s: %d bytes (cached=%v)", format, len(data), cached)
		printFile(path)
	}
	printSuccess("Rendered %d format(s)", len(ro.formats))
	return nil
}
