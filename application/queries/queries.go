// Package queries contains the read-side operations: loading the stored
// graph, similarity search, laying out client-held graphs and reading
// workspaces.
package queries

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"topicgraph/application/ports"
	"topicgraph/application/queries/bus"
	"topicgraph/application/services"
	"topicgraph/domain/graph"
	"topicgraph/domain/workspace"
	apperrors "topicgraph/pkg/errors"
	"topicgraph/pkg/utils"
)

// LoadAllQuery reads the whole stored graph. Without a direction or view
// the nodes keep their scattered positions.
type LoadAllQuery struct {
	Direction string `json:"direction,omitempty" validate:"omitempty,oneof=LR TB lr tb"`
	View      string `json:"view,omitempty" validate:"omitempty,oneof=2d 3d 2D 3D"`
}

// Validate checks the query
func (q LoadAllQuery) Validate() error { return utils.ValidateStruct(q) }

// SearchQuery finds stored nodes similar to free text
type SearchQuery struct {
	Query string `json:"query" validate:"required"`
	Limit int    `json:"limit,omitempty" validate:"gte=0"`
}

// Validate checks the query
func (q SearchQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return apperrors.NewValidationError("query is required")
	}
	return utils.ValidateStruct(q)
}

// LayoutQuery lays out a client-held graph. Without a view or direction
// the graph is laid out top-to-bottom for the 2D view.
type LayoutQuery struct {
	Graph     *graph.Graph `json:"graph" validate:"required"`
	Direction string       `json:"direction,omitempty" validate:"omitempty,oneof=LR TB lr tb"`
	View      string       `json:"view,omitempty" validate:"omitempty,oneof=2d 3d 2D 3D"`
}

// Validate checks the query
func (q LayoutQuery) Validate() error {
	if q.Graph == nil {
		return apperrors.NewValidationError("graph is required")
	}
	if err := utils.ValidateStruct(q); err != nil {
		return err
	}
	if err := q.Graph.Validate(); err != nil {
		return apperrors.NewValidationError("graph is invalid: " + err.Error())
	}
	return nil
}

// GetWorkspaceQuery reads one workspace
type GetWorkspaceQuery struct {
	WorkspaceID string `json:"workspaceId" validate:"required"`
}

// Validate checks the query
func (q GetWorkspaceQuery) Validate() error { return utils.ValidateStruct(q) }

// Handlers answers the queries above
type Handlers struct {
	persistence *services.PersistenceService
	graphs      *services.GraphService
	workspaces  ports.WorkspaceRepository
}

// NewHandlers creates the query handlers
func NewHandlers(persistence *services.PersistenceService, graphs *services.GraphService, workspaces ports.WorkspaceRepository) *Handlers {
	return &Handlers{persistence: persistence, graphs: graphs, workspaces: workspaces}
}

// Register wires the handlers into the bus
func (h *Handlers) Register(b *bus.QueryBus) error {
	if err := b.Register(LoadAllQuery{}, bus.QueryHandlerFunc(func(ctx context.Context, q bus.Query) (interface{}, error) {
		return h.LoadAll(ctx, q.(LoadAllQuery))
	})); err != nil {
		return err
	}
	if err := b.Register(SearchQuery{}, bus.QueryHandlerFunc(func(ctx context.Context, q bus.Query) (interface{}, error) {
		return h.Search(ctx, q.(SearchQuery))
	})); err != nil {
		return err
	}
	if err := b.Register(LayoutQuery{}, bus.QueryHandlerFunc(func(_ context.Context, q bus.Query) (interface{}, error) {
		return h.Layout(q.(LayoutQuery)), nil
	})); err != nil {
		return err
	}
	return b.Register(GetWorkspaceQuery{}, bus.QueryHandlerFunc(func(ctx context.Context, q bus.Query) (interface{}, error) {
		return h.GetWorkspace(ctx, q.(GetWorkspaceQuery))
	}))
}

// LoadAll returns the stored graph, laid out when asked
func (h *Handlers) LoadAll(ctx context.Context, q LoadAllQuery) (graph.Graph, error) {
	g, err := h.persistence.LoadAll(ctx)
	if err != nil {
		return graph.Graph{}, err
	}
	g, _ = g.PruneDangling()
	return h.graphs.Present(g, services.NewPresentation(q.Direction, q.View)), nil
}

// Search returns matches ordered by descending score
func (h *Handlers) Search(ctx context.Context, q SearchQuery) ([]ports.SearchResult, error) {
	return h.persistence.Search(ctx, q.Query, q.Limit)
}

// Layout positions every node of the posted graph. Edges with unknown
// endpoints are dropped first.
func (h *Handlers) Layout(q LayoutQuery) graph.Graph {
	g, _ := q.Graph.PruneDangling()
	p := services.NewPresentation(q.Direction, q.View)
	if !p.Enabled() {
		p = services.NewPresentation(q.Direction, string(services.View2D))
	}
	return h.graphs.Present(g, p)
}

// GetWorkspace returns a stored workspace
func (h *Handlers) GetWorkspace(ctx context.Context, q GetWorkspaceQuery) (workspace.Workspace, error) {
	ws, err := h.workspaces.Get(ctx, q.WorkspaceID)
	if errors.Is(err, workspace.ErrNotFound) {
		return workspace.Workspace{}, apperrors.NewNotFoundError("workspace " + q.WorkspaceID)
	}
	if err != nil {
		return workspace.Workspace{}, apperrors.NewPersistenceError(fmt.Sprintf("get workspace %s", q.WorkspaceID), err)
	}
	return ws, nil
}
