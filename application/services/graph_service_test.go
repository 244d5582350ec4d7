package services

import (
	"testing"

	"topicgraph/domain/graph"
	"topicgraph/domain/layout"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewPresentation(t *testing.T) {
	tests := []struct {
		direction, view string
		want            Presentation
	}{
		{"", "", Presentation{}},
		{"LR", "", Presentation{Direction: layout.LeftRight, View: View2D}},
		{"", "2d", Presentation{Direction: layout.TopBottom, View: View2D}},
		{"TB", "3d", Presentation{Direction: layout.LeftRight, View: View3D}},
		{"sideways", "", Presentation{}},
	}
	for _, tt := range tests {
		t.Run(tt.direction+"/"+tt.view, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPresentation(tt.direction, tt.view))
		})
	}
}

func TestGraphService_MergeDropsDangling(t *testing.T) {
	svc := NewGraphService(layout.NewEngine(layout.DefaultOptions()), zap.NewNop())

	merged, dropped := svc.Merge(
		graph.Graph{Nodes: []graph.Node{graph.NewNode("1", "a")}},
		graph.Fragment{
			Nodes: []graph.Node{graph.NewNode("2", "b")},
			Edges: []graph.Edge{graph.NewEdge("ok", "1", "2", "rel"), graph.NewEdge("bad", "2", "x", "rel")},
		},
	)

	assert.Len(t, merged.Nodes, 2)
	require.Len(t, merged.Edges, 1)
	assert.Equal(t, "ok", merged.Edges[0].ID)
	require.Len(t, dropped, 1)
}

func TestGraphService_Present(t *testing.T) {
	svc := NewGraphService(layout.NewEngine(layout.DefaultOptions()), zap.NewNop())
	g := graph.Graph{
		Nodes: []graph.Node{graph.NewNode("1", "a"), graph.NewNode("2", "b")},
		Edges: []graph.Edge{graph.NewEdge("e", "1", "2", "rel")},
	}

	t.Run("disabled leaves positions", func(t *testing.T) {
		assert.Equal(t, g, svc.Present(g, Presentation{}))
	})

	t.Run("3d sets projected positions", func(t *testing.T) {
		out := svc.Present(g, NewPresentation("", "3d"))
		for _, n := range out.Nodes {
			assert.NotNil(t, n.Position3D)
		}
	})
}

func TestGraphService_PresentFragment(t *testing.T) {
	svc := NewGraphService(layout.NewEngine(layout.DefaultOptions()), zap.NewNop())
	base := graph.Graph{Nodes: []graph.Node{graph.NewNode("1", "root")}}
	f := graph.Fragment{
		Nodes: []graph.Node{graph.NewNode("2", "child")},
		Edges: []graph.Edge{graph.NewEdge("e", "1", "2", "rel")},
	}

	out := svc.PresentFragment(base, f, NewPresentation("TB", ""))
	require.Len(t, out.Nodes, 1)

	full := svc.Present(graph.Merge(base, f), NewPresentation("TB", ""))
	child, _ := full.FindNode("2")
	assert.Equal(t, child.Position, out.Nodes[0].Position)
	assert.Greater(t, out.Nodes[0].Position.Y, 0.0)
}
