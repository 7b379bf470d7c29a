// Package cli implements the layerank command-line interface.
//
// # Commands
//
//   - rank: assign optimal rows to a JSON graph and write the ranked graph
//   - render: rank a graph and draw it as DOT, SVG, PDF or PNG
//   - serve: run the HTTP API with Prometheus metrics
//   - cache: inspect or clear the result cache
//   - completion: generate shell completion scripts
//
// # Configuration
//
// Settings come from the config file (--config, default
// ~/.config/layerank/config.toml), then LAYERANK_* environment variables,
// then command-line flags.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/layerank/internal/config"
	"github.com/matzehuels/layerank/pkg/buildinfo"
	"github.com/matzehuels/layerank/pkg/cache"
	"github.com/matzehuels/layerank/pkg/pipeline"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "layerank",
		Short:        "Layerank assigns layers to directed graphs",
		Long:         `Layerank ranks the nodes of a directed graph into layers with the network simplex method, minimizing the weighted length of all edges, and renders the result.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/layerank/config.toml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.rankCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("loaded config", "path", c.configPath, "cache", cfg.Cache.Backend)
	return nil
}

// settings returns the loaded configuration, or the defaults when a command
// runs without the root pre-run.
func (c *CLI) settings() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// Cache key scopes keep CLI and server entries apart in a shared backend.
const (
	scopeCLI = "cli:"
	scopeAPI = "api:"
)

// newRunner creates a pipeline runner whose cache keys carry scope.
func (c *CLI) newRunner(ctx context.Context, noCache bool, scope string) (*pipeline.Runner, error) {
	ch, err := c.openCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, cache.NewScopedKeyer(cache.NewDefaultKeyer(), scope), c.Logger), nil
}

// openCache opens the configured cache backend. An unreachable Redis server
// degrades to no caching instead of failing the command.
func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	ch, err := cache.Open(ctx, c.settings().Cache.Options())
	if err != nil {
		if cache.IsUnavailable(err) {
			c.Logger.Warn("cache unavailable, continuing without it", "err", err)
			return cache.NewNullCache(), nil
		}
		return nil, err
	}
	return ch, nil
}
