package main

import (
	"context"
	"fmt"

	"topicgraph/infrastructure/config"
	"topicgraph/infrastructure/di"
	"topicgraph/interfaces/http/rest/handlers"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type globalOptions struct {
	configFile string
	store      string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "topicgraph",
		Short: "Turn topics into knowledge graphs",
		Long: brand.Sprint("topicgraph") + " generates knowledge graphs with a language model,\n" +
			subtle.Sprint("stores them with embeddings and searches them by meaning."),
		Version:       handlers.APIVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("topicgraph {{ .Version }}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "YAML config file (default: $CONFIG_FILE)")
	flags.StringVar(&opts.store, "store", "", "graph store backend: neo4j, sqlite or memory")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newServeCmd(opts),
		newGenerateCmd(opts),
		newExpandCmd(opts),
		newSearchCmd(opts),
		newExportCmd(opts),
	)
	return root
}

// loadConfig applies the command-line overrides on top of the usual sources
func loadConfig(opts *globalOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadFile(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.store != "" {
		cfg.GraphStore.Backend = opts.store
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// newCLILogger logs to stderr so stdout stays clean for command output
func newCLILogger(verbose bool) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	zc.DisableStacktrace = true
	return zc.Build()
}

// withContainer runs fn against a container whose saves complete before fn
// returns, so one-shot commands never exit with writes still queued.
func withContainer(cmd *cobra.Command, opts *globalOptions, fn func(ctx context.Context, c *di.Container) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	cfg.Persistence.Workers = 0
	cfg.Observability.MetricsEnabled = false
	cfg.Observability.CloudWatchEnabled = false

	logger, err := newCLILogger(opts.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer cleanup()

	return fn(ctx, container)
}

// levelFor maps the configured level name for the serve command
func levelFor(cfg *config.Config, verbose bool) string {
	if verbose {
		return "debug"
	}
	return cfg.Logging.Level
}
