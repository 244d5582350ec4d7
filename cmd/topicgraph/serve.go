package main

import (
	"os/signal"
	"syscall"
	"time"

	"topicgraph/infrastructure/config"
	"topicgraph/infrastructure/di"
	"topicgraph/interfaces/http/rest"
	"topicgraph/pkg/observability"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API with the configured stores until interrupted.

  topicgraph serve
  topicgraph serve --port 9000 --store sqlite`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			logger, level, err := observability.NewLogger(string(cfg.Environment), levelFor(cfg, opts.verbose))
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			container, cleanup, err := di.InitializeContainer(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			go container.RateLimiter.Run(ctx, time.Minute)

			watcher := config.NewWatcher(cfg, logger)
			watcher.OnChange(func(r config.Reloadable) {
				if atom, err := observability.ParseLevel(r.LogLevel); err == nil {
					level.SetLevel(atom.Level())
				}
				container.ApplyReload(r)
			})
			go func() {
				if err := watcher.Run(ctx); err != nil {
					logger.Error("Configuration watcher stopped", zap.Error(err))
				}
			}()

			good.Fprintf(cmd.ErrOrStderr(), "Serving on %s (llm: %s, store: %s)\n",
				cfg.Addr(), container.Generation.Provider(), cfg.GraphStore.Backend)

			return rest.ListenAndServe(ctx, cfg.Addr(), container.Handler, rest.ServerOptions{
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				IdleTimeout:     cfg.Server.IdleTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
			}, logger)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default: $PORT or 8000)")
	return cmd
}

