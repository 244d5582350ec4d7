package graph

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGraph() Graph {
	return Graph{
		Nodes: []Node{
			NewNode("1", "Photosynthesis"),
			NewNode("2", "Chlorophyll"),
			NewNode("3", "Sunlight"),
		},
		Edges: []Edge{
			NewEdge("e1-2", "1", "2", "requires"),
			NewEdge("e1-3", "1", "3", "uses"),
			NewEdge("e2-3", "2", "3", "absorbs"),
		},
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name      string
		existing  Graph
		addition  Fragment
		wantNodes []string
		wantEdges []string
	}{
		{
			name:      "into empty graph",
			existing:  Empty(),
			addition:  Fragment{Nodes: []Node{NewNode("1", "Photosynthesis")}},
			wantNodes: []string{"1"},
			wantEdges: []string{},
		},
		{
			name:     "duplicate node keeps first label",
			existing: Graph{Nodes: []Node{NewNode("1", "Original")}},
			addition: Fragment{
				Nodes: []Node{NewNode("1", "Relabelled"), NewNode("2", "New")},
				Edges: []Edge{NewEdge("e", "1", "2", "has")},
			},
			wantNodes: []string{"1", "2"},
			wantEdges: []string{"e"},
		},
		{
			name:     "duplicates inside the fragment",
			existing: Empty(),
			addition: Fragment{
				Nodes: []Node{NewNode("a", "A"), NewNode("a", "A again")},
				Edges: []Edge{NewEdge("x", "a", "a", "self"), NewEdge("x", "a", "a", "again")},
			},
			wantNodes: []string{"a"},
			wantEdges: []string{"x"},
		},
		{
			name:      "empty fragment",
			existing:  sampleGraph(),
			addition:  Fragment{},
			wantNodes: []string{"1", "2", "3"},
			wantEdges: []string{"e1-2", "e1-3", "e2-3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.existing, tt.addition)

			nodes := make([]string, 0, len(got.Nodes))
			for _, n := range got.Nodes {
				nodes = append(nodes, n.ID)
			}
			edges := make([]string, 0, len(got.Edges))
			for _, e := range got.Edges {
				edges = append(edges, e.ID)
			}
			assert.Equal(t, tt.wantNodes, nodes)
			assert.Equal(t, tt.wantEdges, edges)
		})
	}
}

func TestMerge_FirstWriteWins(t *testing.T) {
	got := Merge(Graph{Nodes: []Node{NewNode("1", "Original")}}, Fragment{Nodes: []Node{NewNode("1", "Other")}})
	require.Len(t, got.Nodes, 1)
	assert.Equal(t, "Original", got.Nodes[0].Label())
}

func TestMerge_Idempotent(t *testing.T) {
	g := sampleGraph()
	f := Fragment{
		Nodes: []Node{NewNode("4", "Glucose"), NewNode("1", "dup")},
		Edges: []Edge{NewEdge("e1-4", "1", "4", "produces")},
	}

	once := Merge(g, f)
	twice := Merge(once, f)
	assert.Equal(t, once, twice)

	base := Merge(g, Fragment{})
	assert.Equal(t, base, Merge(g, Fragment(base)))
}

func TestMerge_NeverRemoves(t *testing.T) {
	g := sampleGraph()
	got := Merge(g, Fragment{Nodes: []Node{NewNode("9", "x")}})

	assert.GreaterOrEqual(t, len(got.Nodes), len(g.Nodes))
	assert.GreaterOrEqual(t, len(got.Edges), len(g.Edges))
	for _, n := range g.Nodes {
		assert.True(t, got.HasNode(n.ID))
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	g := sampleGraph()
	before := g.Clone()
	f := Fragment{Nodes: []Node{NewNode("4", "Glucose")}}

	out := Merge(g, f)
	out.Nodes[0].Data.Label = "changed"

	assert.Equal(t, before, g)
	assert.Len(t, f.Nodes, 1)
}

func TestDeleteNode(t *testing.T) {
	g := sampleGraph()

	t.Run("cascades to touching edges only", func(t *testing.T) {
		got, ok := g.DeleteNode("2")
		require.True(t, ok)

		assert.False(t, got.HasNode("2"))
		require.Len(t, got.Edges, 1)
		assert.Equal(t, "e1-3", got.Edges[0].ID)
		for _, e := range got.Edges {
			assert.False(t, e.Touches("2"))
		}
	})

	t.Run("unknown node", func(t *testing.T) {
		got, ok := g.DeleteNode("missing")
		assert.False(t, ok)
		assert.Equal(t, g, got)
	})

	t.Run("receiver untouched", func(t *testing.T) {
		_, _ = g.DeleteNode("1")
		assert.Len(t, g.Nodes, 3)
		assert.Len(t, g.Edges, 3)
	})
}

func TestPruneDangling(t *testing.T) {
	g := Graph{
		Nodes: []Node{NewNode("1", "A"), NewNode("2", "B")},
		Edges: []Edge{
			NewEdge("ok", "1", "2", "rel"),
			NewEdge("bad-target", "1", "9", "rel"),
			NewEdge("bad-source", "8", "2", "rel"),
		},
	}

	got, dropped := g.PruneDangling()
	require.Len(t, got.Edges, 1)
	assert.Equal(t, "ok", got.Edges[0].ID)
	assert.Len(t, dropped, 2)
	assert.Len(t, g.Edges, 3)
}

func TestFragment_NewOnly(t *testing.T) {
	g := Graph{Nodes: []Node{NewNode("1", "Photosynthesis")}}
	f := Fragment{
		Nodes: []Node{NewNode("1", "Photosynthesis"), NewNode("2", "Chlorophyll")},
		Edges: []Edge{NewEdge("e1", "1", "2", "requires")},
	}

	got := f.NewOnly(g)
	require.Len(t, got.Nodes, 1)
	assert.Equal(t, "2", got.Nodes[0].ID)
	assert.Len(t, got.Edges, 1)
}

func TestWireRoundTrip(t *testing.T) {
	f := Fragment{
		Nodes: []Node{
			{ID: "1", Data: NodeData{Label: "Photosynthesis"}, Position: Position{X: 0, Y: 0}},
			{ID: "2", Data: NodeData{Label: "Light"}, Position: Position{X: 12.5, Y: -3}},
		},
		Edges: []Edge{NewEdge("e1-2", "1", "2", "needs")},
	}

	raw, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"nodes": [
			{"id": "1", "data": {"label": "Photosynthesis"}, "position": {"x": 0, "y": 0}},
			{"id": "2", "data": {"label": "Light"}, "position": {"x": 12.5, "y": -3}}
		],
		"edges": [{"id": "e1-2", "source": "1", "target": "2", "data": {"label": "needs"}}]
	}`, string(raw))

	var back Fragment
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, f, back)
}

func TestEmptyGraphMarshalsArrays(t *testing.T) {
	raw, err := json.Marshal(Graph{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes": [], "edges": []}`, string(raw))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		graph   Graph
		wantErr error
	}{
		{"valid", sampleGraph(), nil},
		{"empty node id", Graph{Nodes: []Node{NewNode(" ", "x")}}, ErrEmptyNodeID},
		{"empty edge id", Graph{Edges: []Edge{NewEdge("", "1", "2", "x")}}, ErrEmptyEdgeID},
		{"empty endpoint", Graph{Edges: []Edge{NewEdge("e", "1", "", "x")}}, ErrEmptyEndpoint},
		{"duplicate node", Graph{Nodes: []Node{NewNode("1", "a"), NewNode("1", "b")}}, ErrDuplicateID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.graph.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestScenario_PhotosynthesisThenExpand(t *testing.T) {
	generated := Fragment{
		Nodes: []Node{{ID: "1", Data: NodeData{Label: "Photosynthesis"}}},
		Edges: []Edge{},
	}
	g := Merge(Empty(), generated)
	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "1", g.Nodes[0].ID)

	expanded := Fragment{
		Nodes: []Node{NewNode("2", "Chlorophyll")},
		Edges: []Edge{NewEdge("e1-2", "1", "2", "requires")},
	}
	g = Merge(g, expanded)
	assert.Len(t, g.Nodes, 2)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, "1", g.Edges[0].Source)
	assert.Equal(t, "2", g.Edges[0].Target)
}

func TestFragment_Reassign(t *testing.T) {
	g := Graph{
		Nodes: []Node{NewNode("1", "Photosynthesis"), NewNode("2", "Sunlight")},
		Edges: []Edge{NewEdge("e1-2", "1", "2", "uses")},
	}
	next := 0
	newID := func() string {
		next++
		return fmt.Sprintf("n%d", next)
	}

	t.Run("colliding concept is renamed with its edges", func(t *testing.T) {
		next = 0
		f := Fragment{
			Nodes: []Node{NewNode("1", "photosynthesis"), NewNode("2", "Chlorophyll")},
			Edges: []Edge{NewEdge("e1-2", "1", "2", "requires"), NewEdge("e2-x", "2", "1", "feeds")},
		}

		got, renamed := f.Reassign(g, newID)
		assert.Equal(t, map[string]string{"2": "n1"}, renamed)
		require.Len(t, got.Nodes, 2)
		assert.Equal(t, "1", got.Nodes[0].ID)
		assert.Equal(t, "n1", got.Nodes[1].ID)
		require.Len(t, got.Edges, 2)
		assert.Equal(t, NewEdge("e1-n1", "1", "n1", "requires"), got.Edges[0])
		assert.Equal(t, NewEdge("e2-x", "n1", "1", "feeds"), got.Edges[1])

		newOnly := got.NewOnly(g)
		assert.Len(t, newOnly.Nodes, 1)
		assert.Len(t, newOnly.Edges, 2)
	})

	t.Run("no collision leaves the fragment as is", func(t *testing.T) {
		next = 0
		f := Fragment{
			Nodes: []Node{NewNode("3", "Glucose")},
			Edges: []Edge{NewEdge("e1-3", "1", "3", "produces")},
		}
		got, renamed := f.Reassign(g, newID)
		assert.Empty(t, renamed)
		assert.Equal(t, f.Nodes, got.Nodes)
		assert.Equal(t, f.Edges, got.Edges)
	})
}

func TestNodeUnmarshalRejectsMissingID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"node", `{"nodes":[{"id":"1","data":{"label":"a"}}],"edges":[]}`, nil},
		{"node without id", `{"nodes":[{"data":{"label":"a"}}],"edges":[]}`, ErrEmptyNodeID},
		{"node with blank id", `{"nodes":[{"id":"  ","data":{"label":"a"}}],"edges":[]}`, ErrEmptyNodeID},
		{"edge without id", `{"nodes":[],"edges":[{"source":"1","target":"2"}]}`, ErrEmptyEdgeID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g Graph
			err := json.Unmarshal([]byte(tt.raw), &g)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
