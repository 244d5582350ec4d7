package services

import (
	"context"
	"errors"
	"testing"

	"topicgraph/domain/graph"
	apperrors "topicgraph/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const photosynthesisReply = `{"nodes":[{"id":"1","data":{"label":"Photosynthesis"},"position":{"x":0,"y":0}}],"edges":[]}`

const expandReply = "Here you go:\n```json\n" + `{
  "nodes": [{"id": "2", "data": {"label": "Chlorophyll"}, "position": {"x": 0, "y": 0}}],
  "edges": [{"id": "e1-2", "source": "1", "target": "2", "data": {"label": "requires"}}]
}` + "\n```"

func newGen(llm *stubLLM) *GenerationService {
	return NewGenerationService(llm, nil, GenerationOptions{}, zap.NewNop())
}

func TestGenerate(t *testing.T) {
	t.Run("photosynthesis", func(t *testing.T) {
		llm := &stubLLM{reply: photosynthesisReply}
		f, err := newGen(llm).Generate(context.Background(), "Photosynthesis")
		require.NoError(t, err)

		g := graph.Merge(graph.Empty(), f)
		require.Len(t, g.Nodes, 1)
		assert.Equal(t, "1", g.Nodes[0].ID)
		assert.Equal(t, 1, llm.callCount())
		assert.Contains(t, llm.prompts[0], "Photosynthesis")
	})

	t.Run("missing topic never calls the model", func(t *testing.T) {
		llm := &stubLLM{reply: photosynthesisReply}
		_, err := newGen(llm).Generate(context.Background(), "   ")
		assert.True(t, apperrors.IsValidation(err))
		assert.Zero(t, llm.callCount())
	})

	t.Run("malformed reply is a generation error", func(t *testing.T) {
		llm := &stubLLM{reply: "I cannot help with that {nodes: oops"}
		_, err := newGen(llm).Generate(context.Background(), "Gravity")
		require.Error(t, err)
		assert.True(t, apperrors.IsGeneration(err))
		assert.Equal(t, apperrors.GenerationFailedMessage, apperrors.GetAppError(err).Message)
	})

	t.Run("provider failure is a generation error", func(t *testing.T) {
		llm := &stubLLM{err: errors.New("503 from upstream")}
		_, err := newGen(llm).Generate(context.Background(), "Gravity")
		assert.True(t, apperrors.IsGeneration(err))
	})

	t.Run("one bad edge does not fail the generation", func(t *testing.T) {
		llm := &stubLLM{reply: `{"nodes":[{"id":"1","label":"Gravity"},{"id":"2","label":"Mass"}],"edges":[{"id":"e1-2","source":"1","target":"2","label":"depends on"},{"id":"e-bad","source":"1","target":""}]}`}
		f, err := newGen(llm).Generate(context.Background(), "Gravity")
		require.NoError(t, err)
		assert.Len(t, f.Nodes, 2)
		require.Len(t, f.Edges, 1)
		assert.Equal(t, "e1-2", f.Edges[0].ID)
	})

	t.Run("web context is added to the prompt", func(t *testing.T) {
		llm := &stubLLM{reply: photosynthesisReply}
		svc := NewGenerationService(llm, stubWeb{lines: []string{"Photosynthesis converts light energy"}},
			GenerationOptions{WebSearch: true}, zap.NewNop())
		_, err := svc.Generate(context.Background(), "Photosynthesis")
		require.NoError(t, err)
		assert.Contains(t, llm.prompts[0], "converts light energy")
	})

	t.Run("web search failure degrades", func(t *testing.T) {
		llm := &stubLLM{reply: photosynthesisReply}
		svc := NewGenerationService(llm, stubWeb{err: errors.New("timeout")},
			GenerationOptions{WebSearch: true}, zap.NewNop())
		_, err := svc.Generate(context.Background(), "Photosynthesis")
		assert.NoError(t, err)
	})
}

func TestExpand(t *testing.T) {
	full := graph.Graph{Nodes: []graph.Node{graph.NewNode("1", "Photosynthesis")}, Edges: []graph.Edge{}}

	t.Run("unknown node is not found and the model is never called", func(t *testing.T) {
		llm := &stubLLM{reply: expandReply}
		_, err := newGen(llm).Expand(context.Background(), full, "42")

		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
		assert.Zero(t, llm.callCount())
	})

	t.Run("returns new nodes that merge into two nodes and one edge", func(t *testing.T) {
		llm := &stubLLM{reply: expandReply}
		f, err := newGen(llm).Expand(context.Background(), full, "1")
		require.NoError(t, err)

		require.Len(t, f.Nodes, 1)
		assert.Equal(t, "2", f.Nodes[0].ID)
		require.Len(t, f.Edges, 1)
		assert.Equal(t, "1", f.Edges[0].Source)
		assert.Equal(t, "2", f.Edges[0].Target)

		merged := graph.Merge(full, f)
		assert.Len(t, merged.Nodes, 2)
		assert.Len(t, merged.Edges, 1)

		assert.Contains(t, llm.prompts[0], `"Photosynthesis"`)
		assert.Contains(t, llm.prompts[0], "ONLY the NEW nodes")
	})

	t.Run("existing nodes echoed by the model are filtered out", func(t *testing.T) {
		llm := &stubLLM{reply: `{"nodes":[{"id":"1","data":{"label":"Photosynthesis"}},{"id":"3","data":{"label":"Glucose"}}],"edges":[{"id":"e1-3","source":"1","target":"3","data":{"label":"produces"}}]}`}
		f, err := newGen(llm).Expand(context.Background(), full, "1")
		require.NoError(t, err)
		require.Len(t, f.Nodes, 1)
		assert.Equal(t, "3", f.Nodes[0].ID)
	})

	t.Run("new concept reusing an existing id gets a fresh id", func(t *testing.T) {
		full := graph.Graph{
			Nodes: []graph.Node{graph.NewNode("1", "Photosynthesis"), graph.NewNode("2", "Sunlight")},
			Edges: []graph.Edge{graph.NewEdge("e1-2", "1", "2", "uses")},
		}
		llm := &stubLLM{reply: `{"nodes":[{"id":"2","label":"Chlorophyll"}],"edges":[{"id":"e1-chl","source":"1","target":"2","label":"requires"}]}`}

		f, err := newGen(llm).Expand(context.Background(), full, "1")
		require.NoError(t, err)

		require.Len(t, f.Nodes, 1)
		assert.Equal(t, "Chlorophyll", f.Nodes[0].Label())
		assert.NotEqual(t, "2", f.Nodes[0].ID)
		_, err = uuid.Parse(f.Nodes[0].ID)
		assert.NoError(t, err)

		require.Len(t, f.Edges, 1)
		assert.Equal(t, "e1-chl", f.Edges[0].ID)
		assert.Equal(t, "1", f.Edges[0].Source)
		assert.Equal(t, f.Nodes[0].ID, f.Edges[0].Target)

		merged := graph.Merge(full, f)
		assert.Len(t, merged.Nodes, 3)
		sunlight, _ := merged.FindNode("2")
		assert.Equal(t, "Sunlight", sunlight.Label())
	})

	t.Run("same concept with different casing keeps its id", func(t *testing.T) {
		full := graph.Graph{Nodes: []graph.Node{graph.NewNode("1", "Photosynthesis"), graph.NewNode("2", "Sunlight")}}
		llm := &stubLLM{reply: `{"nodes":[{"id":"2","label":" sunlight "},{"id":"3","label":"Glucose"}],"edges":[{"id":"e2-3","source":"2","target":"3","label":"drives"}]}`}

		f, err := newGen(llm).Expand(context.Background(), full, "1")
		require.NoError(t, err)
		require.Len(t, f.Nodes, 1)
		assert.Equal(t, "3", f.Nodes[0].ID)
		require.Len(t, f.Edges, 1)
		assert.Equal(t, "2", f.Edges[0].Source)
	})
}

func TestParseFragment(t *testing.T) {
	tests := []struct {
		name      string
		reply     string
		wantErr     bool
		wantNodes   []string
		wantEdges   []string
		wantDropped int
	}{
		{name: "plain object", reply: photosynthesisReply, wantNodes: []string{"1"}, wantEdges: []string{}},
		{name: "fenced with prose", reply: expandReply, wantNodes: []string{"2"}, wantEdges: []string{"e1-2"}},
		{
			name:      "numeric ids and flat labels",
			reply:     `{"nodes":[{"id":1,"label":"A"},{"id":2,"label":"B"}],"edges":[{"source":1,"target":2,"label":"to"}]}`,
			wantNodes: []string{"1", "2"},
			wantEdges: []string{"e1-2"},
		},
		{name: "no json", reply: "sorry", wantErr: true},
		{name: "truncated json", reply: `{"nodes":[{"id":"1"}`, wantErr: true},
		{name: "no nodes array", reply: `{"graph":{}}`, wantErr: true},
		{name: "node without id", reply: `{"nodes":[{"data":{"label":"x"}}],"edges":[]}`, wantErr: true},
		{
			name:        "edge without target is dropped",
			reply:       `{"nodes":[{"id":"1"}],"edges":[{"id":"e","source":"1"}]}`,
			wantNodes:   []string{"1"},
			wantEdges:   []string{},
			wantDropped: 1,
		},
		{
			name:        "bad edges beside good ones",
			reply:       `{"nodes":[{"id":"1"},{"id":"2"}],"edges":[{"source":"1","target":"2"},{"id":"x","source":"","target":"2"},{"label":"orphan"}]}`,
			wantNodes:   []string{"1", "2"},
			wantEdges:   []string{"e1-2"},
			wantDropped: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, dropped, err := ParseFragment(tt.reply)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			nodes := []string{}
			for _, n := range f.Nodes {
				nodes = append(nodes, n.ID)
			}
			edges := []string{}
			for _, e := range f.Edges {
				edges = append(edges, e.ID)
			}
			assert.Equal(t, tt.wantNodes, nodes)
			assert.Equal(t, tt.wantEdges, edges)
			assert.Len(t, dropped, tt.wantDropped)
		})
	}
}
