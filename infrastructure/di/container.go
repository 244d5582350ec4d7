// Package di wires the application with google/wire. providers.go holds the
// provider functions, wire.go the injector and wire_gen.go the generated
// code.
package di

import (
	"context"
	"net/http"

	commandbus "topicgraph/application/commands/bus"
	querybus "topicgraph/application/queries/bus"
	"topicgraph/application/services"
	"topicgraph/infrastructure/config"
	"topicgraph/infrastructure/llm"
	"topicgraph/interfaces/http/rest/middleware"
	"topicgraph/pkg/auth"
	"topicgraph/pkg/errors"
	"topicgraph/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	ErrorHandler  *errors.ErrorHandler
	Metrics       *observability.Collector
	CloudWatch    *observability.CloudWatchMetrics
	Recorder      observability.Recorder
	LLM           *llm.GuardedProvider
	Generation    *services.GenerationService
	Graphs        *services.GraphService
	Persistence   *services.PersistenceService
	CommandBus    *commandbus.CommandBus
	QueryBus      *querybus.QueryBus
	Authenticator *auth.Authenticator
	RateLimiter   *auth.KeyedLimiter
	CORS          *middleware.CORS
	Handler       http.Handler
}

// FlushMetrics sends buffered CloudWatch metrics, if that sink is enabled
func (c *Container) FlushMetrics(ctx context.Context) error {
	if c.CloudWatch == nil {
		return nil
	}
	return c.CloudWatch.Flush(ctx)
}

// ApplyReload applies hot-reloaded settings to the running container. The
// log level is owned by the caller's zap.AtomicLevel.
func (c *Container) ApplyReload(r config.Reloadable) {
	c.CORS.SetOrigins(r.AllowedOrigins)
	c.RateLimiter.SetLimits(r.RateLimit.RPS, r.RateLimit.Burst)
	c.Logger.Info("Applied reloaded settings",
		zap.Strings("allowedOrigins", r.AllowedOrigins),
		zap.Float64("rateLimitRPS", r.RateLimit.RPS),
		zap.Int("rateLimitBurst", r.RateLimit.Burst),
	)
}
