package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"topicgraph/application/commands"
	commandbus "topicgraph/application/commands/bus"
	"topicgraph/application/queries"
	querybus "topicgraph/application/queries/bus"
	"topicgraph/domain/graph"
	"topicgraph/pkg/common"
	apperrors "topicgraph/pkg/errors"
	"topicgraph/pkg/utils"

	"go.uber.org/zap"
)

// GraphHandler serves the stateless generate, expand and layout endpoints.
// The browser owns the working graph and sends it back on every call.
type GraphHandler struct {
	commandBus   *commandbus.CommandBus
	queryBus     *querybus.QueryBus
	errorHandler *apperrors.ErrorHandler
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(commandBus *commandbus.CommandBus, queryBus *querybus.QueryBus, errorHandler *apperrors.ErrorHandler, maxBodyBytes int64, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		commandBus:   commandBus,
		queryBus:     queryBus,
		errorHandler: errorHandler,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// GenerateRequest is the body of POST /api/generate. BaseGraph is the
// caller's working graph; when present the returned nodes are positioned
// within it.
type GenerateRequest struct {
	Topic     string       `json:"topic" validate:"required"`
	BaseGraph *graph.Graph `json:"baseGraph,omitempty"`
	Direction string       `json:"direction,omitempty"`
	View      string       `json:"view,omitempty"`
}

// ExpandRequest is the body of POST /api/expand
type ExpandRequest struct {
	FullGraph      *graph.Graph `json:"fullGraph"`
	SelectedNodeID string       `json:"selectedNodeId"`
	Direction      string       `json:"direction,omitempty"`
	View           string       `json:"view,omitempty"`
}

// Generate handles POST /api/generate
func (h *GraphHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeBody(r, &req, h.maxBodyBytes, false); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.GenerateGraphCommand{
		Topic:     req.Topic,
		BaseGraph: req.BaseGraph,
		Layout:    commands.Layout{Direction: req.Direction, View: req.View},
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// Expand handles POST /api/expand. Only nodes and edges absent from the
// posted graph are returned.
func (h *GraphHandler) Expand(w http.ResponseWriter, r *http.Request) {
	var req ExpandRequest
	if err := decodeBody(r, &req, h.maxBodyBytes, false); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.ExpandNodeCommand{
		FullGraph:      req.FullGraph,
		SelectedNodeID: req.SelectedNodeID,
		Layout:         commands.Layout{Direction: req.Direction, View: req.View},
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// LayoutRequest is the body of POST /api/layout
type LayoutRequest struct {
	Graph     *graph.Graph `json:"graph"`
	Direction string       `json:"direction,omitempty"`
	View      string       `json:"view,omitempty"`
}

// Layout handles POST /api/layout. The whole posted graph is laid out and
// returned; nothing is generated or stored.
func (h *GraphHandler) Layout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := decodeBody(r, &req, h.maxBodyBytes, false); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.LayoutQuery{
		Graph:     req.Graph,
		Direction: req.Direction,
		View:      req.View,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// progressEvent is the payload of one "progress" stream event
type progressEvent struct {
	Index int        `json:"index"`
	Total int        `json:"total"`
	Node  graph.Node `json:"node"`
}

// GenerateStream handles POST /api/generate/stream. Bad requests are
// answered with a plain JSON error; once the stream has started failures
// arrive as an "error" event.
func (h *GraphHandler) GenerateStream(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeBody(r, &req, h.maxBodyBytes, false); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.NewInternalError("streaming is not supported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	stream := &eventStream{w: w, flusher: flusher, logger: h.logger}
	stream.send("started", map[string]string{"topic": req.Topic})

	result, err := h.commandBus.Send(r.Context(), commands.GenerateGraphCommand{
		Topic:     req.Topic,
		BaseGraph: req.BaseGraph,
		Layout:    commands.Layout{Direction: req.Direction, View: req.View},
	})
	if err != nil {
		h.logger.Warn("Streamed generation failed", zap.String("topic", req.Topic), zap.Error(err))
		stream.send("error", map[string]string{"error": userMessage(err)})
		return
	}

	fragment, _ := result.(graph.Fragment)
	for i, node := range fragment.Nodes {
		if r.Context().Err() != nil {
			return
		}
		stream.send("progress", progressEvent{Index: i, Total: len(fragment.Nodes), Node: node})
	}
	stream.send("completed", fragment)
}

type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	logger  *zap.Logger
}

func (s *eventStream) send(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("Failed to encode stream event", zap.String("event", event), zap.Error(err))
		return
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return
	}
	s.flusher.Flush()
}

// userMessage flattens an error to the message a caller may see
func userMessage(err error) string {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		return appErr.Message
	}
	return "An internal error occurred"
}
