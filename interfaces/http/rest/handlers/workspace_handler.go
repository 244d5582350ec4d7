package handlers

import (
	"net/http"
	"strconv"

	"topicgraph/application/commands"
	commandbus "topicgraph/application/commands/bus"
	"topicgraph/application/queries"
	querybus "topicgraph/application/queries/bus"
	"topicgraph/domain/workspace"
	"topicgraph/pkg/common"
	apperrors "topicgraph/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// WorkspaceHandler serves server-side working graphs. Every mutation names
// the version it was based on; a stale version is answered with 409.
type WorkspaceHandler struct {
	commandBus   *commandbus.CommandBus
	queryBus     *querybus.QueryBus
	errorHandler *apperrors.ErrorHandler
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewWorkspaceHandler creates a new workspace handler
func NewWorkspaceHandler(
	commandBus *commandbus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *apperrors.ErrorHandler,
	maxBodyBytes int64,
	logger *zap.Logger,
) *WorkspaceHandler {
	return &WorkspaceHandler{
		commandBus:   commandBus,
		queryBus:     queryBus,
		errorHandler: errorHandler,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// CreateWorkspaceRequest is the body of POST /api/workspaces
type CreateWorkspaceRequest struct {
	Topic     string `json:"topic,omitempty"`
	Direction string `json:"direction,omitempty"`
	View      string `json:"view,omitempty"`
}

// ExpandWorkspaceRequest is the body of POST /api/workspaces/{id}/expand
type ExpandWorkspaceRequest struct {
	NodeID    string `json:"nodeId"`
	Version   int64  `json:"version"`
	Direction string `json:"direction,omitempty"`
	View      string `json:"view,omitempty"`
}

// LoadWorkspaceRequest is the body of POST /api/workspaces/{id}/load
type LoadWorkspaceRequest struct {
	Version   int64  `json:"version"`
	Direction string `json:"direction,omitempty"`
	View      string `json:"view,omitempty"`
}

// Create handles POST /api/workspaces
func (h *WorkspaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkspaceRequest
	if err := decodeBody(r, &req, h.maxBodyBytes, true); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.CreateWorkspaceCommand{
		Topic:  req.Topic,
		Layout: commands.Layout{Direction: req.Direction, View: req.View},
	})
	h.respond(w, r, http.StatusCreated, result, err)
}

// Get handles GET /api/workspaces/{workspaceID}
func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetWorkspaceQuery{
		WorkspaceID: chi.URLParam(r, "workspaceID"),
	})
	h.respond(w, r, http.StatusOK, result, err)
}

// Expand handles POST /api/workspaces/{workspaceID}/expand
func (h *WorkspaceHandler) Expand(w http.ResponseWriter, r *http.Request) {
	var req ExpandWorkspaceRequest
	if err := decodeBody(r, &req, h.maxBodyBytes, false); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	version, err := expectedVersion(r, req.Version)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.ExpandWorkspaceCommand{
		WorkspaceID: chi.URLParam(r, "workspaceID"),
		NodeID:      req.NodeID,
		Version:     version,
		Layout:      commands.Layout{Direction: req.Direction, View: req.View},
	})
	h.respond(w, r, http.StatusOK, result, err)
}

// DeleteNode handles DELETE /api/workspaces/{workspaceID}/nodes/{nodeID}.
// The expected version comes from ?version= or If-Match.
func (h *WorkspaceHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	var fromQuery int64
	if raw := r.URL.Query().Get("version"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			h.errorHandler.Handle(w, r, apperrors.NewValidationError("version must be a non-negative integer"))
			return
		}
		fromQuery = v
	}
	version, err := expectedVersion(r, fromQuery)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.DeleteWorkspaceNodeCommand{
		WorkspaceID: chi.URLParam(r, "workspaceID"),
		NodeID:      chi.URLParam(r, "nodeID"),
		Version:     version,
	})
	h.respond(w, r, http.StatusOK, result, err)
}

// Load handles POST /api/workspaces/{workspaceID}/load. The body is
// optional.
func (h *WorkspaceHandler) Load(w http.ResponseWriter, r *http.Request) {
	var req LoadWorkspaceRequest
	if err := decodeBody(r, &req, h.maxBodyBytes, true); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	version, err := expectedVersion(r, req.Version)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.LoadIntoWorkspaceCommand{
		WorkspaceID: chi.URLParam(r, "workspaceID"),
		Version:     version,
		Layout:      commands.Layout{Direction: req.Direction, View: req.View},
	})
	h.respond(w, r, http.StatusOK, result, err)
}

func (h *WorkspaceHandler) respond(w http.ResponseWriter, r *http.Request, status int, result interface{}, err error) {
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if ws, ok := result.(workspace.Workspace); ok {
		setVersionHeader(w, ws.Version)
	}
	common.RespondJSON(w, status, result)
}
