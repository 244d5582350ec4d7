package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"topicgraph/infrastructure/config"
	"topicgraph/infrastructure/di"
	"topicgraph/interfaces/http/rest"
	"topicgraph/interfaces/http/rest/handlers"
	"topicgraph/pkg/observability"

	"go.uber.org/zap"
)

const limiterSweepInterval = time.Minute

func main() {
	// Initialize context with cancellation on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, level, err := observability.NewLogger(string(cfg.Environment), cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Observability.TracingEnabled {
		tp, err := observability.InitTracing(ctx, observability.TracingConfig{
			ServiceName: "topicgraph-api",
			Version:     handlers.APIVersion,
			Environment: string(cfg.Environment),
			Endpoint:    cfg.Observability.OTLPEndpoint,
			SampleRate:  cfg.Observability.SampleRate,
		})
		if err != nil {
			logger.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Error("Tracer shutdown error", zap.Error(err))
			}
		}()
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize container", zap.Error(err))
	}
	// Runs after the server has stopped accepting requests.
	defer cleanup()

	go container.RateLimiter.Run(ctx, limiterSweepInterval)

	watcher := config.NewWatcher(cfg, logger)
	watcher.OnChange(func(r config.Reloadable) {
		atom, err := observability.ParseLevel(r.LogLevel)
		if err != nil {
			logger.Warn("Ignoring reloaded log level", zap.Error(err))
		} else {
			level.SetLevel(atom.Level())
		}
		container.ApplyReload(r)
	})
	go func() {
		if err := watcher.Run(ctx); err != nil {
			logger.Error("Configuration watcher stopped", zap.Error(err))
		}
	}()

	logger.Info("Configuration loaded",
		zap.String("environment", string(cfg.Environment)),
		zap.String("llmProvider", container.Generation.Provider()),
		zap.String("graphStore", cfg.GraphStore.Backend),
		zap.String("workspaces", cfg.Workspaces.Backend),
	)

	err = rest.ListenAndServe(ctx, cfg.Addr(), container.Handler, rest.ServerOptions{
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)
	if err != nil {
		logger.Error("Server failed", zap.Error(err))
	}
}
