package handlers

import (
	"net/http"

	"topicgraph/application/ports"
	"topicgraph/application/queries"
	querybus "topicgraph/application/queries/bus"
	"topicgraph/pkg/common"
	apperrors "topicgraph/pkg/errors"

	"go.uber.org/zap"
)

// StorageHandler serves reads from the durable graph: the full stored graph
// and similarity search over node embeddings.
type StorageHandler struct {
	queryBus     *querybus.QueryBus
	errorHandler *apperrors.ErrorHandler
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewStorageHandler creates a new storage handler
func NewStorageHandler(queryBus *querybus.QueryBus, errorHandler *apperrors.ErrorHandler, maxBodyBytes int64, logger *zap.Logger) *StorageHandler {
	return &StorageHandler{
		queryBus:     queryBus,
		errorHandler: errorHandler,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// SearchRequest is the body of POST /api/neo4j/search
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// LoadAll handles GET /api/neo4j/all. Positions are scattered unless the
// caller asks for a layout with ?direction= or ?view=.
func (h *StorageHandler) LoadAll(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.LoadAllQuery{
		Direction: r.URL.Query().Get("direction"),
		View:      r.URL.Query().Get("view"),
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// Search handles POST /api/neo4j/search
func (h *StorageHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decodeBody(r, &req, h.maxBodyBytes, false); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.SearchQuery{Query: req.Query, Limit: req.Limit})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	matches, _ := result.([]ports.SearchResult)
	if matches == nil {
		matches = []ports.SearchResult{}
	}
	common.RespondJSON(w, http.StatusOK, matches)
}
