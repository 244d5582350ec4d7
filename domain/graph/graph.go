// Package graph holds the node/edge model of a topic graph and the pure
// operations over it. Nothing here performs I/O.
package graph

import (
	"encoding/json"
	"strings"
)

// Position is a 2D coordinate assigned by layout. It carries no meaning
// beyond presentation and is never persisted.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Position3D is the 3D projection of a layered position for the 3D view.
type Position3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// NodeData is the display payload of a node.
type NodeData struct {
	Label string `json:"label"`
}

// Node is a concept in the graph.
type Node struct {
	ID         string      `json:"id"`
	Data       NodeData    `json:"data"`
	Position   Position    `json:"position"`
	Position3D *Position3D `json:"position3d,omitempty"`

	// Embedding is only used for similarity search; it is not part of the
	// wire format.
	Embedding []float32 `json:"-"`
}

// Label returns the node's display text.
func (n Node) Label() string { return n.Data.Label }

// UnmarshalJSON decodes a node and rejects one without an id.
func (n *Node) UnmarshalJSON(data []byte) error {
	type plain Node
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if strings.TrimSpace(p.ID) == "" {
		return ErrEmptyNodeID
	}
	*n = Node(p)
	return nil
}

// NewNode creates a node at the origin.
func NewNode(id, label string) Node {
	return Node{ID: id, Data: NodeData{Label: label}}
}

// EdgeData is the display payload of an edge.
type EdgeData struct {
	Label string `json:"label"`
}

// Edge is a directed, labelled relationship between two nodes.
type Edge struct {
	ID     string   `json:"id"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Data   EdgeData `json:"data"`
}

// Label returns the relationship text.
func (e Edge) Label() string { return e.Data.Label }

// UnmarshalJSON decodes an edge and rejects one without an id. Endpoints
// are checked by Validate.
func (e *Edge) UnmarshalJSON(data []byte) error {
	type plain Edge
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if strings.TrimSpace(p.ID) == "" {
		return ErrEmptyEdgeID
	}
	*e = Edge(p)
	return nil
}

// NewEdge creates an edge.
func NewEdge(id, source, target, label string) Edge {
	return Edge{ID: id, Source: source, Target: target, Data: EdgeData{Label: label}}
}

// Touches reports whether the edge has nodeID as an endpoint.
func (e Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// Graph is a flat node/edge collection. Values are treated as immutable:
// every operation returns a new Graph and leaves its receiver untouched.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Fragment is a partial graph produced by generation, meant to be merged
// into a working graph rather than replace it.
type Fragment struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Empty returns a graph with no nodes or edges.
func Empty() Graph {
	return Graph{Nodes: []Node{}, Edges: []Edge{}}
}

// MarshalJSON always emits arrays, never null.
func (g Graph) MarshalJSON() ([]byte, error) {
	type plain Graph
	return json.Marshal(plain(g.normalized()))
}

// MarshalJSON always emits arrays, never null.
func (f Fragment) MarshalJSON() ([]byte, error) {
	type plain Fragment
	return json.Marshal(plain(Fragment(f.Graph().normalized())))
}

func (g Graph) normalized() Graph {
	if g.Nodes == nil {
		g.Nodes = []Node{}
	}
	if g.Edges == nil {
		g.Edges = []Edge{}
	}
	return g
}

// Graph views the fragment as a standalone graph.
func (f Fragment) Graph() Graph {
	return Graph{Nodes: f.Nodes, Edges: f.Edges}
}

// IsEmpty reports whether the fragment adds nothing.
func (f Fragment) IsEmpty() bool {
	return len(f.Nodes) == 0 && len(f.Edges) == 0
}

// Clone returns a deep copy.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = n.clone()
	}
	copy(out.Edges, g.Edges)
	return out
}

func (n Node) clone() Node {
	if n.Position3D != nil {
		p := *n.Position3D
		n.Position3D = &p
	}
	if n.Embedding != nil {
		n.Embedding = append([]float32(nil), n.Embedding...)
	}
	return n
}

// FindNode returns the node with the given id.
func (g Graph) FindNode(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// HasNode reports whether a node with the given id exists.
func (g Graph) HasNode(id string) bool {
	_, ok := g.FindNode(id)
	return ok
}

// NodeIDs returns the set of node ids.
func (g Graph) NodeIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = struct{}{}
	}
	return ids
}

// EdgeIDs returns the set of edge ids.
func (g Graph) EdgeIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		ids[e.ID] = struct{}{}
	}
	return ids
}

// Stats summarises a graph for logs and events.
type Stats struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

// Stats returns node and edge counts.
func (g Graph) Stats() Stats {
	return Stats{Nodes: len(g.Nodes), Edges: len(g.Edges)}
}
