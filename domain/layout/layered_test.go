package layout

import (
	"testing"

	"topicgraph/domain/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain(ids ...string) ([]graph.Node, []graph.Edge) {
	nodes := make([]graph.Node, 0, len(ids))
	edges := make([]graph.Edge, 0, len(ids))
	for i, id := range ids {
		nodes = append(nodes, graph.NewNode(id, "label "+id))
		if i > 0 {
			edges = append(edges, graph.NewEdge(ids[i-1]+"-"+id, ids[i-1], id, "next"))
		}
	}
	return nodes, edges
}

func TestLayout_EveryNodePlaced(t *testing.T) {
	cycleNodes, cycleEdges := chain("a", "b", "c")
	cycleEdges = append(cycleEdges, graph.NewEdge("c-a", "c", "a", "back"))

	tests := []struct {
		name  string
		nodes []graph.Node
		edges []graph.Edge
	}{
		{"empty", nil, nil},
		{"single isolated", []graph.Node{graph.NewNode("1", "only")}, nil},
		{"cycle", cycleNodes, cycleEdges},
		{"self loop", []graph.Node{graph.NewNode("s", "self")}, []graph.Edge{graph.NewEdge("s-s", "s", "s", "loop")}},
		{
			"dangling edge and duplicate node",
			[]graph.Node{graph.NewNode("1", "a"), graph.NewNode("1", "again"), graph.NewNode("2", "b")},
			[]graph.Edge{graph.NewEdge("x", "1", "missing", "rel"), graph.NewEdge("y", "1", "2", "rel")},
		},
		{
			"disconnected components",
			[]graph.Node{graph.NewNode("a", "a"), graph.NewNode("b", "b"), graph.NewNode("c", "c"), graph.NewNode("d", "d")},
			[]graph.Edge{graph.NewEdge("ab", "a", "b", "rel"), graph.NewEdge("cd", "c", "d", "rel")},
		},
	}

	for _, tt := range tests {
		for _, dir := range []Direction{TopBottom, LeftRight} {
			t.Run(tt.name+"/"+string(dir), func(t *testing.T) {
				got := Layout(tt.nodes, tt.edges, dir)
				require.Len(t, got, len(tt.nodes))
				for i, n := range got {
					assert.Equal(t, tt.nodes[i].ID, n.ID)
					assert.NoError(t, n.Validate())
				}
			})
		}
	}
}

func TestLayout_Idempotent(t *testing.T) {
	nodes, edges := chain("1", "2", "3", "4")
	nodes = append(nodes, graph.NewNode("5", "five"), graph.NewNode("6", "six"))
	edges = append(edges,
		graph.NewEdge("1-5", "1", "5", "rel"),
		graph.NewEdge("5-6", "5", "6", "rel"),
		graph.NewEdge("6-1", "6", "1", "cycle"),
	)

	first := Layout(nodes, edges, TopBottom)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Layout(nodes, edges, TopBottom))
	}

	// Laying out an already positioned graph does not move anything.
	assert.Equal(t, first, Layout(first, edges, TopBottom))
}

func TestLayout_RanksFollowEdges(t *testing.T) {
	nodes, edges := chain("root", "child", "grandchild")

	tb := Layout(nodes, edges, TopBottom)
	assert.Less(t, tb[0].Position.Y, tb[1].Position.Y)
	assert.Less(t, tb[1].Position.Y, tb[2].Position.Y)
	assert.Equal(t, tb[0].Position.X, tb[1].Position.X)

	lr := Layout(nodes, edges, LeftRight)
	assert.Less(t, lr[0].Position.X, lr[1].Position.X)
	assert.Less(t, lr[1].Position.X, lr[2].Position.X)
	assert.Equal(t, lr[0].Position.Y, lr[1].Position.Y)
}

func TestLayout_SiblingsDoNotOverlap(t *testing.T) {
	nodes := []graph.Node{graph.NewNode("p", "parent"), graph.NewNode("a", "a"), graph.NewNode("b", "b"), graph.NewNode("c", "c")}
	edges := []graph.Edge{
		graph.NewEdge("pa", "p", "a", "rel"),
		graph.NewEdge("pb", "p", "b", "rel"),
		graph.NewEdge("pc", "p", "c", "rel"),
	}

	got := Layout(nodes, edges, TopBottom)
	seen := map[graph.Position]string{}
	for _, n := range got {
		other, dup := seen[n.Position]
		assert.False(t, dup, "%s overlaps %s", n.ID, other)
		seen[n.Position] = n.ID
	}
}

func TestLayout_DoesNotMutateInput(t *testing.T) {
	nodes, edges := chain("1", "2")
	nodes[1].Position = graph.Position{X: 999, Y: 999}

	_ = Layout(nodes, edges, TopBottom)
	assert.Equal(t, graph.Position{X: 999, Y: 999}, nodes[1].Position)
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
		ok   bool
	}{
		{"LR", LeftRight, true},
		{"tb", TopBottom, true},
		{" lr ", LeftRight, true},
		{"", TopBottom, false},
		{"diagonal", TopBottom, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDirection(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestApply3D(t *testing.T) {
	nodes, edges := chain("1", "2", "3")
	got := Apply3D(graph.Graph{Nodes: nodes, Edges: edges})

	require.Len(t, got.Nodes, 3)
	for _, n := range got.Nodes {
		require.NotNil(t, n.Position3D)
		assert.InDelta(t, n.Position.X*Scale3D, n.Position3D.X, 1e-9)
	}
	assert.Less(t, got.Nodes[0].Position3D.X, got.Nodes[2].Position3D.X)
}
