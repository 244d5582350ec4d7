package services

import (
	"strings"

	"topicgraph/domain/graph"
	"topicgraph/domain/layout"

	"go.uber.org/zap"
)

// View selects which renderer a layout is computed for
type View string

const (
	View2D View = "2d"
	View3D View = "3d"
)

// Presentation describes how a caller wants positions assigned. The zero
// value leaves positions as they are.
type Presentation struct {
	Direction layout.Direction
	View      View
}

// NewPresentation builds a presentation from request fields. An empty
// direction and view yields the zero value; a 3D view always lays out
// left-to-right.
func NewPresentation(direction, view string) Presentation {
	v := View(strings.ToLower(strings.TrimSpace(view)))
	if v == View3D {
		return Presentation{Direction: layout.LeftRight, View: View3D}
	}
	dir, ok := layout.ParseDirection(direction)
	if !ok && v != View2D {
		return Presentation{}
	}
	return Presentation{Direction: dir, View: View2D}
}

// Enabled reports whether layout should run
func (p Presentation) Enabled() bool {
	return p.View != ""
}

// GraphService runs the merge and layout pipeline over working graphs
type GraphService struct {
	engine *layout.Engine
	logger *zap.Logger
}

// NewGraphService creates a graph service
func NewGraphService(engine *layout.Engine, logger *zap.Logger) *GraphService {
	return &GraphService{
		engine: engine,
		logger: logger.Named("graph"),
	}
}

// Merge folds f into existing and drops edges whose endpoints are missing
// from the result. Dropped edges are logged and returned.
func (s *GraphService) Merge(existing graph.Graph, f graph.Fragment) (graph.Graph, []graph.Edge) {
	merged, dropped := graph.Merge(existing, f).PruneDangling()
	if len(dropped) > 0 {
		ids := make([]string, 0, len(dropped))
		for _, e := range dropped {
			ids = append(ids, e.ID)
		}
		s.logger.Warn("Dropped edges with unknown endpoints", zap.Strings("edgeIDs", ids))
	}
	return merged, dropped
}

// Present assigns positions to every node of g for the requested view
func (s *GraphService) Present(g graph.Graph, p Presentation) graph.Graph {
	if !p.Enabled() {
		return g
	}
	out := g.Clone()
	if p.View == View3D {
		out.Nodes = s.engine.Layout3D(g.Nodes, g.Edges)
		return out
	}
	out.Nodes = s.engine.Layout(g.Nodes, g.Edges, p.Direction)
	return out
}

// PresentFragment positions the nodes of f as they would sit in the layout
// of base merged with f, so a client can append them without re-running
// layout itself.
func (s *GraphService) PresentFragment(base graph.Graph, f graph.Fragment, p Presentation) graph.Fragment {
	if !p.Enabled() {
		return f
	}
	merged, _ := graph.Merge(base, f).PruneDangling()
	placed := s.Present(merged, p)

	byID := make(map[string]graph.Node, len(placed.Nodes))
	for _, n := range placed.Nodes {
		byID[n.ID] = n
	}

	out := graph.Fragment{Nodes: make([]graph.Node, 0, len(f.Nodes)), Edges: f.Edges}
	for _, n := range f.Nodes {
		if pn, ok := byID[n.ID]; ok {
			n.Position = pn.Position
			n.Position3D = pn.Position3D
		}
		out.Nodes = append(out.Nodes, n)
	}
	return out
}
