package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/layerank/internal/config"
	"github.com/matzehuels/layerank/internal/server"
	"github.com/matzehuels/layerank/pkg/observability"
	"github.com/matzehuels/layerank/pkg/observability/prom"
)

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache, noMetrics bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ranking HTTP API",
		Long: `Serve exposes POST /v1/rank and POST /v1/render, plus /healthz and
Prometheus metrics on /metrics. It shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.settings()
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			runner, err := c.newRunner(ctx, noCache, scopeAPI)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := []server.Option{
				server.WithLogger(c.Logger),
				server.WithDefaults(cfg.PipelineOptions()),
			}
			if !noMetrics {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				m := prom.New(reg)
				observability.SetRankHooks(m)
				observability.SetCacheHooks(m)
				observability.SetHTTPHooks(m)
				defer observability.Reset()
				opts = append(opts, server.WithMetrics(m.Handler()))
			}

			printKeyValue("listen", cfg.Server.Addr)
			printKeyValue("cache", cfg.Cache.Backend)
			return server.New(serverConfig(cfg.Server), runner, opts...).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "do not expose /metrics")

	return cmd
}

func serverConfig(s config.ServerConfig) server.Config {
	return server.Config{
		Addr:            s.Addr,
		ReadTimeout:     s.ReadTimeout,
		WriteTimeout:    s.WriteTimeout,
		ShutdownTimeout: s.ShutdownTimeout,
		MaxBodyBytes:    s.MaxBodyBytes,
		MaxNodes:        s.MaxNodes,
		MaxEdges:        s.MaxEdges,
	}
}
