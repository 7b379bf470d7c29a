package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/layerank/pkg/dag"
	lio "github.com/matzehuels/layerank/pkg/io"
	"github.com/matzehuels/layerank/pkg/pipeline"
)

// rankFlags holds the command-line flags shared by rank and render.
// Only flags set explicitly override the configuration.
type rankFlags struct {
	ranker        string
	balance       string
	adjust        string
	maxIterations int
	searchSize    int
	breakCycles   bool
	subdivide     bool
	components    bool
	refresh       bool
	noCache       bool
}

func (f *rankFlags) register(fs *pflag.FlagSet) {
	d := pipeline.DefaultOptions()
	fs.StringVar(&f.ranker, "ranker", d.Ranker, "ranking algorithm: network-simplex, longest-path")
	fs.StringVarP(&f.balance, "balance", "b", d.Balance, "balance mode: none, top-bottom (tb), left-right (lr)")
	fs.StringVar(&f.adjust, "adjust", d.Adjust, "rank normalization: none, min, max")
	fs.IntVar(&f.maxIterations, "max-iterations", d.MaxIterations, "pivot limit (0 keeps the initial feasible ranking)")
	fs.IntVar(&f.searchSize, "search-size", d.SearchSize, "leave-edge search window (0 uses the graph's searchsize, then 30)")
	fs.BoolVar(&f.breakCycles, "break-cycles", d.BreakCycles, "remove back edges before ranking")
	fs.BoolVar(&f.subdivide, "subdivide", d.Subdivide, "split long edges with subdivider nodes")
	fs.BoolVar(&f.components, "components", d.Components, "rank each connected component separately")
	fs.BoolVar(&f.refresh, "refresh", false, "ignore cached results")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable the result cache")
}

// apply overrides opts with every flag the user set.
func (f *rankFlags) apply(fs *pflag.FlagSet, opts *pipeline.Options) {
	set := func(name string, fn func()) {
		if fs.Changed(name) {
			fn()
		}
	}
	set("ranker", func() { opts.Ranker = f.ranker })
	set("balance", func() { opts.Balance = f.balance })
	set("adjust", func() { opts.Adjust = f.adjust })
	set("max-iterations", func() { opts.MaxIterations = f.maxIterations })
	set("search-size", func() { opts.SearchSize = f.searchSize })
	set("break-cycles", func() { opts.BreakCycles = f.breakCycles })
	set("subdivide", func() { opts.Subdivide = f.subdivide })
	set("components", func() { opts.Components = f.components })
	opts.Refresh = f.refresh
}

// rankCommand creates the rank command.
func (c *CLI) rankCommand() *cobra.Command {
	var flags rankFlags
	var output string

	cmd := &cobra.Command{
		Use:   "rank [file]",
		Short: "Assign optimal rows to a JSON graph",
		Long: `Rank reads a graph in layerank JSON format (from a file, or stdin when the
file is "-" or omitted), assigns every node a row and writes the ranked graph
as JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.settings().PipelineOptions()
			flags.apply(cmd.Flags(), &opts)
			return c.runRank(cmd.Context(), inputArg(args), output, flags.noCache, opts, cmd.OutOrStdout())
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	registerFlagCompletions(cmd)

	return cmd
}

func (c *CLI) runRank(ctx context.Context, input, output string, noCache bool, opts pipeline.Options, stdout io.Writer) error {
	g, err := readGraph(input, os.Stdin)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache, scopeCLI)
	if err != nil {
		return err
	}
	defer runner.Close()

	timer := startRank(loggerFromContext(ctx))
	spinner := newSpinner(ctx, fmt.Sprintf("Ranking %d nodes...", g.NodeCount()))
	spinner.Start()
	res, err := runner.Rank(ctx, g, opts)
	spinner.Stop()
	if err != nil {
		return err
	}
	timer.done(res)

	var buf bytes.Buffer
	if err := lio.WriteJSON(res.Graph, &buf); err != nil {
		return err
	}
	if err := writeOutput(output, buf.Bytes(), stdout); err != nil {
		return err
	}

	printStats(res.Stats.Nodes, res.Stats.Edges, res.Stats.Iterations, res.Stats.TotalLength, res.Cached)
	if res.Stats.Capped {
		printWarning("stopped after %d pivots; ranking is feasible but may not be optimal", opts.MaxIterations)
	}
	if res.Stats.RemovedEdges > 0 {
		printDetail("removed %d edges to break cycles", res.Stats.RemovedEdges)
	}
	if output != "" {
		printFile(output)
	}
	return nil
}

func inputArg(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

// readGraph reads a JSON graph from path, or from stdin when path is "-".
func readGraph(path string, stdin io.Reader) (*dag.DAG, error) {
	if path == "-" {
		g, err := lio.ReadJSON(stdin)
		if err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}
		return g, nil
	}
	return lio.ImportJSON(path)
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
