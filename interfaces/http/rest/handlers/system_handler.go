package handlers

import (
	"context"
	"net/http"
	"time"

	"topicgraph/application/ports"
	"topicgraph/pkg/common"
	apperrors "topicgraph/pkg/errors"

	"go.uber.org/zap"
)

// APIVersion is reported by GET /
const APIVersion = "1.0.0"

// LLMChecker reports whether the language model is reachable
type LLMChecker interface {
	Ready(ctx context.Context) bool
	Provider() string
}

// StoreChecker reports whether the graph store is reachable
type StoreChecker interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the root, health and readiness endpoints
type SystemHandler struct {
	llm          LLMChecker
	store        StoreChecker
	clock        ports.Clock
	errorHandler *apperrors.ErrorHandler
	checkTimeout time.Duration
	logger       *zap.Logger
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(llm LLMChecker, store StoreChecker, clock ports.Clock, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{
		llm:          llm,
		store:        store,
		clock:        clock,
		errorHandler: errorHandler,
		checkTimeout: 5 * time.Second,
		logger:       logger,
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status     string `json:"status"`
	LLMService string `json:"llm_service"`
	Provider   string `json:"llm_provider,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// Root handles GET /
func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, common.MessageResponse{
		Message: "topicgraph API is running",
		Version: APIVersion,
	})
}

// Health handles GET /health. The service itself is always healthy; the
// model's state is reported alongside.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.checkTimeout)
	defer cancel()

	llmStatus := "unhealthy"
	if h.llm.Ready(ctx) {
		llmStatus = "healthy"
	}
	common.RespondJSON(w, http.StatusOK, HealthResponse{
		Status:     "healthy",
		LLMService: llmStatus,
		Provider:   h.llm.Provider(),
		Timestamp:  h.clock.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready
func (h *SystemHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.checkTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("Graph store not ready", zap.Error(err))
		h.errorHandler.Handle(w, r, apperrors.NewUnavailableError("graph store").WithCause(err))
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
