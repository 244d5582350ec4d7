package layout

import "topicgraph/domain/graph"

// Scale3D converts 2D pixel space into scene units for the 3D view.
const Scale3D = 0.05

// depth between alternating nodes of a rank, in scene units
const rankDepth = 4.0

// Layout3D lays nodes out left-to-right and lifts the result into 3D space:
// the layered plane becomes X/Y and nodes within a rank alternate along Z so
// labels in dense ranks do not overlap. The 2D position is kept as well.
func (e *Engine) Layout3D(nodes []graph.Node, edges []graph.Edge) []graph.Node {
	placed := e.place(nodes, edges, LeftRight)

	out := make([]graph.Node, len(nodes))
	for i, n := range nodes {
		p := placed[n.ID]
		n.Position = p.pos
		n.Position3D = &graph.Position3D{
			X: p.pos.X * Scale3D,
			Y: -p.pos.Y * Scale3D,
			Z: float64(p.order%3-1) * rankDepth,
		}
		out[i] = n
	}
	return out
}

// Apply3D lays out g for the 3D view.
func Apply3D(g graph.Graph) graph.Graph {
	out := g.Clone()
	out.Nodes = NewEngine(DefaultOptions()).Layout3D(g.Nodes, g.Edges)
	return out
}
