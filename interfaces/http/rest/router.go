// Package rest exposes the command and query buses over HTTP.
package rest

import (
	"net/http"

	commandbus "topicgraph/application/commands/bus"
	"topicgraph/application/ports"
	querybus "topicgraph/application/queries/bus"
	"topicgraph/interfaces/http/rest/handlers"
	"topicgraph/interfaces/http/rest/middleware"
	"topicgraph/interfaces/http/web"
	"topicgraph/pkg/auth"
	"topicgraph/pkg/common"
	"topicgraph/pkg/errors"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Dependencies are the collaborators of the router. Limiter, Metrics and
// MetricsHandler may be nil to disable rate limiting, request metrics and
// the /metrics endpoint.
type Dependencies struct {
	CommandBus     *commandbus.CommandBus
	QueryBus       *querybus.QueryBus
	ErrorHandler   *errors.ErrorHandler
	Authenticator  *auth.Authenticator
	Limiter        *auth.KeyedLimiter
	CORS           *middleware.CORS
	Metrics        middleware.HTTPMetrics
	MetricsHandler http.Handler
	LLM            handlers.LLMChecker
	Store          handlers.StoreChecker
	Clock          ports.Clock
	MaxBodyBytes   int64
	Logger         *zap.Logger
}

// Router creates and configures the HTTP router
type Router struct {
	deps Dependencies
}

// NewRouter creates a new router instance
func NewRouter(deps Dependencies) *Router {
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = common.DefaultMaxBodyBytes
	}
	if deps.CORS == nil {
		deps.CORS = middleware.NewCORS(nil)
	}
	return &Router{deps: deps}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	d := rt.deps
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Logger(d.Logger.Named("http")))
	router.Use(d.ErrorHandler.Middleware)
	router.Use(d.CORS.Handler())
	if d.Metrics != nil {
		router.Use(middleware.Metrics(d.Metrics))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		d.ErrorHandler.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		d.ErrorHandler.HandleStatus(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})

	system := handlers.NewSystemHandler(d.LLM, d.Store, d.Clock, d.ErrorHandler, d.Logger)
	router.Get("/", system.Root)
	router.Get("/health", system.Health)
	router.Get("/ready", system.Ready)
	if d.MetricsHandler != nil {
		router.Handle("/metrics", d.MetricsHandler)
	}
	router.Handle("/viewer", web.NewViewer(web.ViewerData{
		AuthEnabled: d.Authenticator.Enabled(),
	}, d.Logger))

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(d.Authenticator, d.Logger.Named("auth")))
		if d.Limiter != nil {
			r.Use(middleware.RateLimit(d.Limiter, d.ErrorHandler))
		}

		graphHandler := handlers.NewGraphHandler(d.CommandBus, d.QueryBus, d.ErrorHandler, d.MaxBodyBytes, d.Logger)
		r.Post("/generate", graphHandler.Generate)
		r.Post("/generate/stream", graphHandler.GenerateStream)
		r.Post("/expand", graphHandler.Expand)
		r.Post("/layout", graphHandler.Layout)

		r.Route("/neo4j", func(r chi.Router) {
			storageHandler := handlers.NewStorageHandler(d.QueryBus, d.ErrorHandler, d.MaxBodyBytes, d.Logger)
			r.Get("/all", storageHandler.LoadAll)
			r.Post("/search", storageHandler.Search)
		})

		r.Route("/workspaces", func(r chi.Router) {
			workspaceHandler := handlers.NewWorkspaceHandler(d.CommandBus, d.QueryBus, d.ErrorHandler, d.MaxBodyBytes, d.Logger)
			r.Post("/", workspaceHandler.Create)
			r.Get("/{workspaceID}", workspaceHandler.Get)
			r.Post("/{workspaceID}/expand", workspaceHandler.Expand)
			r.Post("/{workspaceID}/load", workspaceHandler.Load)
			r.Delete("/{workspaceID}/nodes/{nodeID}", workspaceHandler.DeleteNode)
		})
	})

	return router
}
