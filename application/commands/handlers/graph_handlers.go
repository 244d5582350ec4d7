package handlers

import (
	"context"
	"fmt"

	"topicgraph/application/commands"
	"topicgraph/application/commands/bus"
	"topicgraph/application/ports"
	"topicgraph/application/services"
	"topicgraph/domain/events"
	"topicgraph/domain/graph"

	"go.uber.org/zap"
)

// GraphHandlers handles the stateless generate and expand commands. The
// caller owns the working graph; these handlers return fragments only.
type GraphHandlers struct {
	generation  *services.GenerationService
	graphs      *services.GraphService
	persistence *services.PersistenceService
	eventBus    ports.EventBus
	clock       ports.Clock
	logger      *zap.Logger
}

// NewGraphHandlers creates the handlers. eventBus may be nil.
func NewGraphHandlers(
	generation *services.GenerationService,
	graphs *services.GraphService,
	persistence *services.PersistenceService,
	eventBus ports.EventBus,
	clock ports.Clock,
	logger *zap.Logger,
) *GraphHandlers {
	return &GraphHandlers{
		generation:  generation,
		graphs:      graphs,
		persistence: persistence,
		eventBus:    eventBus,
		clock:       clock,
		logger:      logger.Named("commands"),
	}
}

// Register wires the handlers into the bus
func (h *GraphHandlers) Register(b *bus.CommandBus) error {
	if err := b.Register(commands.GenerateGraphCommand{}, bus.CommandHandlerFunc(h.handleGenerate)); err != nil {
		return err
	}
	return b.Register(commands.ExpandNodeCommand{}, bus.CommandHandlerFunc(h.handleExpand))
}

func (h *GraphHandlers) handleGenerate(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.GenerateGraphCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command %T", c)
	}
	return h.Generate(ctx, cmd)
}

func (h *GraphHandlers) handleExpand(ctx context.Context, c bus.Command) (interface{}, error) {
	cmd, ok := c.(commands.ExpandNodeCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command %T", c)
	}
	return h.Expand(ctx, cmd)
}

// Generate produces a fragment for a topic. The fragment is queued for
// saving; a storage failure never fails the request. With a base graph the
// fragment is laid out as part of it.
func (h *GraphHandlers) Generate(ctx context.Context, cmd commands.GenerateGraphCommand) (graph.Fragment, error) {
	f, err := h.generation.Generate(ctx, cmd.Topic)
	if err != nil {
		return graph.Fragment{}, err
	}

	base := graph.Empty()
	if cmd.BaseGraph != nil {
		base = *cmd.BaseGraph
		f = h.generation.Reconcile(base, f)
	}

	g, _ := h.graphs.Merge(graph.Empty(), f)
	f = graph.Fragment{Nodes: g.Nodes, Edges: g.Edges}

	h.persistence.Enqueue(cmd.Topic, f)
	publish(ctx, h.eventBus, h.logger,
		events.NewGraphGenerated(cmd.Topic, cmd.Topic, g.Stats(), 0, h.clock.Now()))

	p := services.NewPresentation(cmd.Direction, cmd.View)
	return h.graphs.PresentFragment(base, f, p), nil
}

// Expand produces the new-only fragment around a node of the caller's graph
func (h *GraphHandlers) Expand(ctx context.Context, cmd commands.ExpandNodeCommand) (graph.Fragment, error) {
	full := *cmd.FullGraph

	f, err := h.generation.Expand(ctx, full, cmd.SelectedNodeID)
	if err != nil {
		return graph.Fragment{}, err
	}
	f = withoutDropped(f, h.dropped(full, f))

	h.persistence.Enqueue(cmd.SelectedNodeID, f)
	publish(ctx, h.eventBus, h.logger,
		events.NewGraphExpanded(cmd.SelectedNodeID, cmd.SelectedNodeID, f.Graph().Stats(), 0, h.clock.Now()))

	p := services.NewPresentation(cmd.Direction, cmd.View)
	return h.graphs.PresentFragment(full, f, p), nil
}

func (h *GraphHandlers) dropped(base graph.Graph, f graph.Fragment) []graph.Edge {
	_, dropped := h.graphs.Merge(base, f)
	return dropped
}

// withoutDropped removes dropped edges from f
func withoutDropped(f graph.Fragment, dropped []graph.Edge) graph.Fragment {
	if len(dropped) == 0 {
		return f
	}
	skip := make(map[string]struct{}, len(dropped))
	for _, e := range dropped {
		skip[e.ID] = struct{}{}
	}
	edges := make([]graph.Edge, 0, len(f.Edges))
	for _, e := range f.Edges {
		if _, ok := skip[e.ID]; !ok {
			edges = append(edges, e)
		}
	}
	return graph.Fragment{Nodes: f.Nodes, Edges: edges}
}

func publish(ctx context.Context, eventBus ports.EventBus, logger *zap.Logger, evt events.DomainEvent) {
	if eventBus == nil {
		return
	}
	if err := eventBus.Publish(ctx, evt); err != nil {
		logger.Warn("Failed to publish event",
			zap.String("type", evt.GetEventType()),
			zap.String("aggregateID", evt.GetAggregateID()),
			zap.Error(err),
		)
	}
}
