package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"topicgraph/application/commands"
	"topicgraph/application/commands/bus"
	"topicgraph/application/ports"
	"topicgraph/application/services"
	"topicgraph/domain/events"
	"topicgraph/domain/graph"
	"topicgraph/domain/workspace"
	apperrors "topicgraph/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WorkspaceHandlers mutates server-side working graphs. Every write is a
// compare-and-swap on the workspace version, so two concurrent expands of
// the same workspace cannot both succeed against the same base.
type WorkspaceHandlers struct {
	repo        ports.WorkspaceRepository
	generation  *services.GenerationService
	graphs      *services.GraphService
	persistence *services.PersistenceService
	eventBus    ports.EventBus
	clock       ports.Clock
	newID       func() string
	logger      *zap.Logger
}

// NewWorkspaceHandlers creates the handlers. eventBus may be nil.
func NewWorkspaceHandlers(
	repo ports.WorkspaceRepository,
	generation *services.GenerationService,
	graphs *services.GraphService,
	persistence *services.PersistenceService,
	eventBus ports.EventBus,
	clock ports.Clock,
	logger *zap.Logger,
) *WorkspaceHandlers {
	return &WorkspaceHandlers{
		repo:        repo,
		generation:  generation,
		graphs:      graphs,
		persistence: persistence,
		eventBus:    eventBus,
		clock:       clock,
		newID:       uuid.NewString,
		logger:      logger.Named("workspaces"),
	}
}

// Register wires the handlers into the bus
func (h *WorkspaceHandlers) Register(b *bus.CommandBus) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandlerFunc
	}{
		{commands.CreateWorkspaceCommand{}, func(ctx context.Context, c bus.Command) (interface{}, error) {
			return h.Create(ctx, c.(commands.CreateWorkspaceCommand))
		}},
		{commands.ExpandWorkspaceCommand{}, func(ctx context.Context, c bus.Command) (interface{}, error) {
			return h.Expand(ctx, c.(commands.ExpandWorkspaceCommand))
		}},
		{commands.DeleteWorkspaceNodeCommand{}, func(ctx context.Context, c bus.Command) (interface{}, error) {
			return h.DeleteNode(ctx, c.(commands.DeleteWorkspaceNodeCommand))
		}},
		{commands.LoadIntoWorkspaceCommand{}, func(ctx context.Context, c bus.Command) (interface{}, error) {
			return h.Load(ctx, c.(commands.LoadIntoWorkspaceCommand))
		}},
	}
	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}

// Create stores a new workspace, generating its first fragment when a topic
// is given. A generation failure stores nothing.
func (h *WorkspaceHandlers) Create(ctx context.Context, cmd commands.CreateWorkspaceCommand) (workspace.Workspace, error) {
	topic := strings.TrimSpace(cmd.Topic)
	now := h.clock.Now()
	ws := workspace.New(h.newID(), topic, now)

	if topic != "" {
		f, err := h.generation.Generate(ctx, topic)
		if err != nil {
			return workspace.Workspace{}, err
		}
		ws = h.apply(ws, f, services.NewPresentation(cmd.Direction, cmd.View))
		// A new workspace starts at version 1 whatever it was seeded with.
		ws.Version = 1

		h.persistence.Enqueue(topic, graph.Fragment{Nodes: ws.Graph.Nodes, Edges: ws.Graph.Edges})
		publish(ctx, h.eventBus, h.logger,
			events.NewGraphGenerated(ws.ID, topic, ws.Graph.Stats(), ws.Version, now))
	}

	if err := h.repo.Create(ctx, ws); err != nil {
		return workspace.Workspace{}, h.mapError(err, ws.ID, "")
	}
	h.logger.Info("Workspace created",
		zap.String("workspaceID", ws.ID),
		zap.String("topic", topic),
		zap.Int("nodes", len(ws.Graph.Nodes)),
	)
	return ws, nil
}

// Expand generates new nodes around a workspace node and stores the merged
// graph as the next version
func (h *WorkspaceHandlers) Expand(ctx context.Context, cmd commands.ExpandWorkspaceCommand) (workspace.Workspace, error) {
	ws, err := h.load(ctx, cmd.WorkspaceID, cmd.Version)
	if err != nil {
		return workspace.Workspace{}, err
	}

	f, err := h.generation.Expand(ctx, ws.Graph, cmd.NodeID)
	if err != nil {
		return workspace.Workspace{}, err
	}

	next := h.apply(ws, f, services.NewPresentation(cmd.Direction, cmd.View))
	if err := h.repo.Save(ctx, next, ws.Version); err != nil {
		return workspace.Workspace{}, h.mapError(err, ws.ID, cmd.NodeID)
	}

	added := graph.Fragment{
		Nodes: f.Nodes,
		Edges: withoutDropped(f, h.dropped(ws.Graph, f)).Edges,
	}
	h.persistence.Enqueue(ws.ID, added)
	publish(ctx, h.eventBus, h.logger,
		events.NewGraphExpanded(ws.ID, cmd.NodeID, added.Graph().Stats(), next.Version, h.clock.Now()))
	return next, nil
}

// DeleteNode removes a node and its edges from the workspace. Storage is not
// touched; the durable graph keeps the node.
func (h *WorkspaceHandlers) DeleteNode(ctx context.Context, cmd commands.DeleteWorkspaceNodeCommand) (workspace.Workspace, error) {
	ws, err := h.load(ctx, cmd.WorkspaceID, cmd.Version)
	if err != nil {
		return workspace.Workspace{}, err
	}

	now := h.clock.Now()
	next, err := ws.DeleteNode(cmd.NodeID, now)
	if err != nil {
		return workspace.Workspace{}, h.mapError(err, ws.ID, cmd.NodeID)
	}
	if err := h.repo.Save(ctx, next, ws.Version); err != nil {
		return workspace.Workspace{}, h.mapError(err, ws.ID, cmd.NodeID)
	}

	publish(ctx, h.eventBus, h.logger, events.NewNodeDeleted(ws.ID, cmd.NodeID, next.Version, now))
	return next, nil
}

// Load merges the stored graph into the workspace
func (h *WorkspaceHandlers) Load(ctx context.Context, cmd commands.LoadIntoWorkspaceCommand) (workspace.Workspace, error) {
	ws, err := h.load(ctx, cmd.WorkspaceID, cmd.Version)
	if err != nil {
		return workspace.Workspace{}, err
	}

	stored, err := h.persistence.LoadAll(ctx)
	if err != nil {
		return workspace.Workspace{}, err
	}

	next := h.apply(ws, graph.Fragment{Nodes: stored.Nodes, Edges: stored.Edges},
		services.NewPresentation(cmd.Direction, cmd.View))
	if err := h.repo.Save(ctx, next, ws.Version); err != nil {
		return workspace.Workspace{}, h.mapError(err, ws.ID, "")
	}
	return next, nil
}

func (h *WorkspaceHandlers) load(ctx context.Context, id string, expected int64) (workspace.Workspace, error) {
	ws, err := h.repo.Get(ctx, id)
	if err != nil {
		return workspace.Workspace{}, h.mapError(err, id, "")
	}
	if err := ws.CheckVersion(expected); err != nil {
		return workspace.Workspace{}, h.mapError(err, id, "")
	}
	return ws, nil
}

// apply merges f into ws, drops dangling edges and lays the result out
func (h *WorkspaceHandlers) apply(ws workspace.Workspace, f graph.Fragment, p services.Presentation) workspace.Workspace {
	next, dropped := ws.Apply(f, h.clock.Now())
	if len(dropped) > 0 {
		h.logger.Warn("Dropped edges with unknown endpoints",
			zap.String("workspaceID", ws.ID),
			zap.Int("count", len(dropped)),
		)
	}
	next.Graph = h.graphs.Present(next.Graph, p)
	return next
}

func (h *WorkspaceHandlers) dropped(base graph.Graph, f graph.Fragment) []graph.Edge {
	_, dropped := graph.Merge(base, f).PruneDangling()
	return dropped
}

func (h *WorkspaceHandlers) mapError(err error, workspaceID, nodeID string) error {
	switch {
	case errors.Is(err, workspace.ErrNotFound):
		return apperrors.NewNotFoundError("workspace " + workspaceID)
	case errors.Is(err, workspace.ErrNodeNotFound):
		return apperrors.NewNotFoundError("node " + nodeID)
	case errors.Is(err, workspace.ErrVersionConflict):
		return apperrors.NewConflictError(err.Error()).
			WithDetails(map[string]interface{}{"workspaceId": workspaceID})
	case apperrors.GetAppError(err) != nil:
		return err
	default:
		return apperrors.NewPersistenceError(fmt.Sprintf("workspace %s", workspaceID), err)
	}
}
