package di

import (
	"context"
	"fmt"
	"net/http"

	commandbus "topicgraph/application/commands/bus"
	commandhandlers "topicgraph/application/commands/handlers"
	"topicgraph/application/ports"
	"topicgraph/application/queries"
	querybus "topicgraph/application/queries/bus"
	"topicgraph/application/services"
	"topicgraph/domain/layout"
	"topicgraph/infrastructure/config"
	"topicgraph/infrastructure/embedding"
	"topicgraph/infrastructure/llm"
	"topicgraph/infrastructure/messaging"
	"topicgraph/infrastructure/messaging/eventbridge"
	"topicgraph/infrastructure/persistence/dynamodb"
	"topicgraph/infrastructure/persistence/memory"
	"topicgraph/infrastructure/persistence/neo4j"
	"topicgraph/infrastructure/persistence/sqlite"
	"topicgraph/infrastructure/vector/qdrant"
	"topicgraph/infrastructure/websearch"
	"topicgraph/interfaces/http/rest"
	"topicgraph/interfaces/http/rest/middleware"
	"topicgraph/pkg/auth"
	"topicgraph/pkg/errors"
	"topicgraph/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

// ProvideErrorHandler creates the HTTP error handler. Causes are only
// echoed to callers outside production with debug logging.
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *errors.ErrorHandler {
	debug := !cfg.IsProduction() && cfg.Logging.Level == "debug"
	return errors.NewErrorHandler(logger.Named("errors"), debug)
}

// ProvideMetrics creates the Prometheus collector, or nil when metrics are
// disabled
func ProvideMetrics(cfg *config.Config) *observability.Collector {
	if !cfg.Observability.MetricsEnabled {
		return nil
	}
	return observability.NewCollector("topicgraph")
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideCloudWatchMetrics creates the CloudWatch sink, or nil when it is
// disabled
func ProvideCloudWatchMetrics(cfg *config.Config, client *awscloudwatch.Client, logger *zap.Logger) *observability.CloudWatchMetrics {
	if !cfg.Observability.CloudWatchEnabled {
		return nil
	}
	namespace := cfg.Observability.CloudWatchNamespace
	if namespace == "" {
		namespace = fmt.Sprintf("TopicGraph/%s", cfg.Environment)
	}
	return observability.NewCloudWatchMetrics(namespace, client, logger)
}

// ProvideRecorder combines the enabled metrics sinks. It returns nil when
// none is enabled.
func ProvideRecorder(collector *observability.Collector, cloudWatch *observability.CloudWatchMetrics) observability.Recorder {
	var sinks observability.Fanout
	if collector != nil {
		sinks = append(sinks, collector)
	}
	if cloudWatch != nil {
		sinks = append(sinks, cloudWatch)
	}
	switch len(sinks) {
	case 0:
		return nil
	case 1:
		return sinks[0]
	}
	return sinks
}

// ProvideLLMProvider creates the configured provider behind a circuit
// breaker
func ProvideLLMProvider(ctx context.Context, cfg *config.Config, metrics observability.Recorder, logger *zap.Logger) (*llm.GuardedProvider, error) {
	var observer llm.CallObserver
	if metrics != nil {
		observer = metrics
	}
	return llm.NewProvider(ctx, cfg.LLM, observer, logger)
}

// ProvideEmbedder creates the configured embedder
func ProvideEmbedder(cfg *config.Config) (ports.Embedder, error) {
	return embedding.New(cfg.Embedding)
}

// ProvideGraphStore opens the configured system of record. The cleanup
// closes it.
func ProvideGraphStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.GraphStore, func(), error) {
	var store ports.GraphStore
	switch cfg.GraphStore.Backend {
	case "neo4j":
		s, err := neo4j.NewStore(ctx, neo4j.Config{
			URI:        cfg.GraphStore.Neo4j.URI,
			Username:   cfg.GraphStore.Neo4j.Username,
			Password:   cfg.GraphStore.Neo4j.Password,
			Database:   cfg.GraphStore.Neo4j.Database,
			Dimensions: cfg.Embedding.Dimensions,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		store = s
	case "sqlite":
		s, err := sqlite.Open(ctx, cfg.GraphStore.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store = s
	case "memory", "":
		store = memory.NewGraphStore()
	default:
		return nil, nil, fmt.Errorf("unknown graph store %q", cfg.GraphStore.Backend)
	}

	logger.Info("Graph store ready", zap.String("backend", cfg.GraphStore.Backend))
	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("Failed to close graph store", zap.Error(err))
		}
	}
	return store, cleanup, nil
}

// ProvideVectorIndex connects to Qdrant when a host is configured. Without
// one it returns nil and search is served by the graph store.
func ProvideVectorIndex(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.VectorIndex, func(), error) {
	if cfg.Qdrant.Host == "" {
		return nil, func() {}, nil
	}
	idx, err := qdrant.NewIndex(ctx, qdrant.Config{
		Host:       cfg.Qdrant.Host,
		Port:       cfg.Qdrant.Port,
		APIKey:     cfg.Qdrant.APIKey,
		UseTLS:     cfg.Qdrant.UseTLS,
		Collection: cfg.Qdrant.Collection,
		Dimensions: cfg.Embedding.Dimensions,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := idx.Close(); err != nil {
			logger.Warn("Failed to close vector index", zap.Error(err))
		}
	}
	return idx, cleanup, nil
}

// ProvideAWSConfig loads the AWS SDK configuration. It is only read from
// the environment when DynamoDB, EventBridge or CloudWatch is in use.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	if cfg.Workspaces.Backend != "dynamodb" && cfg.Events.BusName == "" && !cfg.Observability.CloudWatchEnabled {
		return aws.Config{Region: cfg.AWS.Region}, nil
	}
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWS.Region),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideWorkspaceRepository selects where workspaces live
func ProvideWorkspaceRepository(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) ports.WorkspaceRepository {
	if cfg.Workspaces.Backend == "dynamodb" {
		return dynamodb.NewWorkspaceRepository(client, cfg.Workspaces.Table, logger)
	}
	return memory.NewWorkspaceRepository()
}

// ProvideEventBus publishes to EventBridge when a bus is configured and
// logs events otherwise
func ProvideEventBus(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventBus {
	if cfg.Events.BusName != "" {
		return eventbridge.NewPublisher(client, cfg.Events.BusName, logger)
	}
	return messaging.NewLoggingBus(logger)
}

// ProvideWebSearcher returns nil unless web context is enabled
func ProvideWebSearcher(cfg *config.Config) ports.WebSearcher {
	if !cfg.WebSearch.Enabled {
		return nil
	}
	return websearch.NewDuckDuckGo(websearch.DefaultEndpoint, cfg.WebSearch.Timeout)
}

// ProvideClock returns the wall clock
func ProvideClock() ports.Clock {
	return services.SystemClock{}
}

// ProvideGenerationService creates the prompting service
func ProvideGenerationService(provider *llm.GuardedProvider, web ports.WebSearcher, cfg *config.Config, logger *zap.Logger) *services.GenerationService {
	return services.NewGenerationService(provider, web, services.GenerationOptions{
		Temperature:      cfg.LLM.Temperature,
		MaxTokens:        cfg.LLM.MaxTokens,
		WebSearch:        cfg.WebSearch.Enabled,
		SearchMaxResults: cfg.WebSearch.MaxResults,
		SearchTimeout:    cfg.WebSearch.Timeout,
	}, logger)
}

// ProvideGraphService creates the merge and layout service
func ProvideGraphService(logger *zap.Logger) *services.GraphService {
	return services.NewGraphService(layout.NewEngine(layout.DefaultOptions()), logger)
}

// ProvidePersistenceService creates the persistence gateway and starts its
// workers. The cleanup drains the save queue.
func ProvidePersistenceService(
	store ports.GraphStore,
	embedder ports.Embedder,
	index ports.VectorIndex,
	eventBus ports.EventBus,
	metrics observability.Recorder,
	clock ports.Clock,
	cfg *config.Config,
	logger *zap.Logger,
) (*services.PersistenceService, func()) {
	var persistMetrics services.PersistenceMetrics
	if metrics != nil {
		persistMetrics = metrics
	}
	svc := services.NewPersistenceService(store, embedder, index, eventBus, persistMetrics, clock,
		services.PersistenceOptions{
			Workers:     cfg.Persistence.Workers,
			QueueSize:   cfg.Persistence.QueueSize,
			SaveTimeout: cfg.Persistence.SaveTimeout,
		}, logger)
	svc.Start()

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := svc.Shutdown(ctx); err != nil {
			logger.Warn("Persistence queue not drained", zap.Error(err))
		}
	}
	return svc, cleanup
}

// ProvideCommandBus creates the command bus with every handler registered
func ProvideCommandBus(
	generation *services.GenerationService,
	graphs *services.GraphService,
	persistence *services.PersistenceService,
	repo ports.WorkspaceRepository,
	eventBus ports.EventBus,
	clock ports.Clock,
	metrics observability.Recorder,
	logger *zap.Logger,
) (*commandbus.CommandBus, error) {
	middlewares := []commandbus.Middleware{commandbus.LoggingMiddleware(logger.Named("commands"))}
	if metrics != nil {
		middlewares = append(middlewares, commandbus.MetricsMiddleware(metrics))
	}
	b := commandbus.NewCommandBus(middlewares...)

	if err := commandhandlers.NewGraphHandlers(generation, graphs, persistence, eventBus, clock, logger).Register(b); err != nil {
		return nil, err
	}
	if err := commandhandlers.NewWorkspaceHandlers(repo, generation, graphs, persistence, eventBus, clock, logger).Register(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ProvideQueryBus creates the query bus with every handler registered
func ProvideQueryBus(
	persistence *services.PersistenceService,
	graphs *services.GraphService,
	repo ports.WorkspaceRepository,
	metrics observability.Recorder,
) (*querybus.QueryBus, error) {
	var queryMetrics querybus.Metrics
	if metrics != nil {
		queryMetrics = metrics
	}
	b := querybus.NewQueryBus(queryMetrics)
	if err := queries.NewHandlers(persistence, graphs, repo).Register(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ProvideAuthenticator accepts the static API key and, when a secret is
// configured, HS256 JWTs
func ProvideAuthenticator(cfg *config.Config) (*auth.Authenticator, error) {
	var validator *auth.JWTValidator
	if cfg.Security.JWTSecret != "" {
		v, err := auth.NewJWTValidator(auth.JWTConfig{
			SecretKey: cfg.Security.JWTSecret,
			Issuer:    cfg.Security.JWTIssuer,
		})
		if err != nil {
			return nil, err
		}
		validator = v
	}
	return auth.NewAuthenticator(cfg.Security.StaticAPIKey, validator), nil
}

// ProvideRateLimiter creates the per-client limiter. It always exists so a
// reload can switch limiting on.
func ProvideRateLimiter(cfg *config.Config) *auth.KeyedLimiter {
	return auth.NewKeyedLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// ProvideCORS creates the reloadable CORS handler
func ProvideCORS(cfg *config.Config) *middleware.CORS {
	return middleware.NewCORS(cfg.Security.AllowedOrigins)
}

// ProvideHTTPHandler builds the router
func ProvideHTTPHandler(
	cfg *config.Config,
	commandBus *commandbus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *errors.ErrorHandler,
	authenticator *auth.Authenticator,
	limiter *auth.KeyedLimiter,
	cors *middleware.CORS,
	collector *observability.Collector,
	metrics observability.Recorder,
	generation *services.GenerationService,
	persistence *services.PersistenceService,
	clock ports.Clock,
	logger *zap.Logger,
) http.Handler {
	if !authenticator.Enabled() {
		logger.Warn("API authentication is disabled; set STATIC_API_KEY to enable it")
	}
	var metricsHandler http.Handler
	if collector != nil {
		metricsHandler = collector.Handler()
	}
	return rest.NewRouter(rest.Dependencies{
		CommandBus:     commandBus,
		QueryBus:       queryBus,
		ErrorHandler:   errorHandler,
		Authenticator:  authenticator,
		Limiter:        limiter,
		CORS:           cors,
		Metrics:        metrics,
		MetricsHandler: metricsHandler,
		LLM:            generation,
		Store:          persistence,
		Clock:          clock,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Logger:         logger,
	}).Setup()
}
