//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"topicgraph/infrastructure/config"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideErrorHandler,
	ProvideMetrics,
	ProvideCloudWatchClient,
	ProvideCloudWatchMetrics,
	ProvideRecorder,
	ProvideLLMProvider,
	ProvideEmbedder,
	ProvideGraphStore,
	ProvideVectorIndex,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideWorkspaceRepository,
	ProvideEventBus,
	ProvideWebSearcher,
	ProvideClock,
	ProvideGenerationService,
	ProvideGraphService,
	ProvidePersistenceService,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideAuthenticator,
	ProvideRateLimiter,
	ProvideCORS,
	ProvideHTTPHandler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The returned cleanup
// drains the save queue and closes the stores.
func InitializeContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
