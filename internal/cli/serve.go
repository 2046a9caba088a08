package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wsm/internal/server"
	"github.com/matzehuels/wsm/pkg/observability"
	"github.com/matzehuels/wsm/pkg/observability/prom"
)

type serveOpts struct {
	addr    string
	metrics bool
	server  server.Options
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes the solver over HTTP. One-shot solves go to POST /v1/solve;
long searches create a session with POST /v1/sessions and continue it with
POST /v1/sessions/{id}/solve. Sessions unused for --session-idle are dropped.

The cache and run store are the ones named in the configuration file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", true, "serve Prometheus metrics at /metrics")
	cmd.Flags().DurationVar(&opts.server.DefaultTimeout, "default-timeout", server.DefaultSolveTimeout, "budget of solve calls that set none")
	cmd.Flags().DurationVar(&opts.server.MaxTimeout, "max-timeout", server.DefaultMaxTimeout, "largest budget a single call may request")
	cmd.Flags().IntVar(&opts.server.MaxSessions, "max-sessions", server.DefaultMaxSessions, "maximum number of live sessions")
	cmd.Flags().DurationVar(&opts.server.SessionIdle, "session-idle", server.DefaultSessionIdle, "drop sessions unused for this long")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts *serveOpts) error {
	ctx := cmd.Context()
	cfg, err := c.config()
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if cmd.Flags().Changed("addr") {
		addr = opts.addr
	}
	metrics := cfg.Server.Metrics
	if cmd.Flags().Changed("metrics") {
		metrics = opts.metrics
	}

	if metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m := prom.New(reg)
		observability.SetSolverHooks(m)
		observability.SetCacheHooks(m)
		observability.SetHTTPHooks(m)
		defer observability.Reset()
		opts.server.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	runner, err := c.newRunner(ctx, runnerOpts{})
	if err != nil {
		return err
	}
	defer runner.Close()

	opts.server.Logger = c.Logger
	c.Logger.Info("starting server", "addr", addr, "metrics", metrics,
		"cache", cfg.Cache.Backend, "store", cfg.Store.Backend)
	return server.New(runner, opts.server).ListenAndServe(ctx, addr)
}
