// Package layout assigns presentation coordinates to graph nodes using a
// layered (rank-based) placement. The same nodes, edges and direction always
// produce the same positions.
package layout

import (
	"sort"
	"strings"

	"topicgraph/domain/graph"

	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Direction selects the axis along which ranks advance.
type Direction string

const (
	TopBottom Direction = "TB"
	LeftRight Direction = "LR"
)

// ParseDirection accepts "LR"/"TB" in any case. Anything else yields the
// default top-to-bottom direction and false.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(strings.ToUpper(strings.TrimSpace(s))) {
	case LeftRight:
		return LeftRight, true
	case TopBottom:
		return TopBottom, true
	}
	return TopBottom, false
}

// Options sizes the layout grid. Sizes are in the renderer's pixel space.
type Options struct {
	NodeWidth  float64
	NodeHeight float64
	RankSep    float64
	NodeSep    float64
	// Sweeps is the number of barycenter ordering passes.
	Sweeps int
}

// DefaultOptions matches the node box the 2D renderer draws.
func DefaultOptions() Options {
	return Options{
		NodeWidth:  172,
		NodeHeight: 36,
		RankSep:    50,
		NodeSep:    50,
		Sweeps:     4,
	}
}

// Engine runs layered layouts with fixed options.
type Engine struct {
	opts Options
}

// NewEngine creates an engine. Zero-valued options fall back to defaults.
func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if opts.NodeWidth <= 0 {
		opts.NodeWidth = def.NodeWidth
	}
	if opts.NodeHeight <= 0 {
		opts.NodeHeight = def.NodeHeight
	}
	if opts.RankSep <= 0 {
		opts.RankSep = def.RankSep
	}
	if opts.NodeSep <= 0 {
		opts.NodeSep = def.NodeSep
	}
	if opts.Sweeps <= 0 {
		opts.Sweeps = def.Sweeps
	}
	return &Engine{opts: opts}
}

// Layout returns copies of nodes with positions assigned. Every input node
// gets a position, including isolated nodes, nodes on cycles and nodes
// repeated in the input. Edges referencing unknown nodes are ignored.
func Layout(nodes []graph.Node, edges []graph.Edge, dir Direction) []graph.Node {
	return NewEngine(DefaultOptions()).Layout(nodes, edges, dir)
}

// Apply lays out g and returns a new graph with the positioned nodes.
func Apply(g graph.Graph, dir Direction) graph.Graph {
	out := g.Clone()
	out.Nodes = Layout(g.Nodes, g.Edges, dir)
	return out
}

// Layout implements the package-level Layout with the engine's options.
func (e *Engine) Layout(nodes []graph.Node, edges []graph.Edge, dir Direction) []graph.Node {
	placed := e.place(nodes, edges, dir)

	out := make([]graph.Node, len(nodes))
	for i, n := range nodes {
		n.Position = placed[n.ID].pos
		n.Position3D = nil
		out[i] = n
	}
	return out
}

type placement struct {
	pos   graph.Position
	rank  int
	order int
}

func (e *Engine) place(nodes []graph.Node, edges []graph.Edge, dir Direction) map[string]placement {
	// Node index is the order of first appearance; it is the tie breaker
	// everywhere so results do not depend on map iteration.
	index := make(map[string]int64, len(nodes))
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if _, ok := index[n.ID]; ok {
			continue
		}
		index[n.ID] = int64(len(ids))
		ids = append(ids, n.ID)
	}

	full := simple.NewDirectedGraph()
	for i := range ids {
		full.AddNode(simple.Node(int64(i)))
	}
	for _, edge := range edges {
		u, okU := index[edge.Source]
		v, okV := index[edge.Target]
		if !okU || !okV || u == v || full.HasEdgeFromTo(u, v) {
			continue
		}
		full.SetEdge(full.NewEdge(simple.Node(u), simple.Node(v)))
	}

	dag := acyclic(full, len(ids))
	ranks := longestPathRanks(dag, len(ids))
	layers := e.orderLayers(dag, ranks)

	result := make(map[string]placement, len(ids))
	for rank, layer := range layers {
		for pos, id := range layer {
			result[ids[id]] = placement{
				pos:   e.coordinates(rank, pos, len(layer), dir),
				rank:  rank,
				order: pos,
			}
		}
	}
	return result
}

// acyclic keeps every edge between strongly connected components and, inside
// a component, only edges that go forward in index order.
func acyclic(g *simple.DirectedGraph, n int) *simple.DirectedGraph {
	component := make([]int, n)
	for c, scc := range topo.TarjanSCC(g) {
		for _, node := range scc {
			component[node.ID()] = c
		}
	}

	dag := simple.NewDirectedGraph()
	for i := 0; i < n; i++ {
		dag.AddNode(simple.Node(int64(i)))
	}
	edges := g.Edges()
	for edges.Next() {
		edge := edges.Edge()
		u, v := edge.From().ID(), edge.To().ID()
		if component[u] == component[v] && u > v {
			continue
		}
		dag.SetEdge(dag.NewEdge(simple.Node(u), simple.Node(v)))
	}
	return dag
}

func longestPathRanks(dag *simple.DirectedGraph, n int) []int {
	ranks := make([]int, n)
	sorted, err := topo.SortStabilized(dag, byID)
	if err != nil {
		// Unreachable for an acyclic input; every node keeps rank 0.
		return ranks
	}
	for _, node := range sorted {
		v := node.ID()
		preds := dag.To(v)
		for preds.Next() {
			if r := ranks[preds.Node().ID()] + 1; r > ranks[v] {
				ranks[v] = r
			}
		}
	}
	return ranks
}

func byID(nodes []gonumgraph.Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
}

// orderLayers groups nodes by rank and reduces crossings with alternating
// barycenter sweeps.
func (e *Engine) orderLayers(dag *simple.DirectedGraph, ranks []int) [][]int64 {
	if len(ranks) == 0 {
		return nil
	}
	maxRank := 0
	for _, r := range ranks {
		if r > maxRank {
			maxRank = r
		}
	}

	layers := make([][]int64, maxRank+1)
	for id, r := range ranks {
		layers[r] = append(layers[r], int64(id))
	}

	position := make([]float64, len(ranks))
	record := func(layer []int64) {
		for i, id := range layer {
			position[id] = float64(i)
		}
	}
	for _, layer := range layers {
		record(layer)
	}

	for sweep := 0; sweep < e.opts.Sweeps; sweep++ {
		if sweep%2 == 0 {
			for r := 1; r < len(layers); r++ {
				sortByBarycenter(layers[r], position, func(id int64) gonumgraph.Nodes { return dag.To(id) })
				record(layers[r])
			}
			continue
		}
		for r := len(layers) - 2; r >= 0; r-- {
			sortByBarycenter(layers[r], position, func(id int64) gonumgraph.Nodes { return dag.From(id) })
			record(layers[r])
		}
	}
	return layers
}

func sortByBarycenter(layer []int64, position []float64, neighbours func(int64) gonumgraph.Nodes) {
	bary := make(map[int64]float64, len(layer))
	for _, id := range layer {
		it := neighbours(id)
		sum, count := 0.0, 0
		for it.Next() {
			sum += position[it.Node().ID()]
			count++
		}
		if count == 0 {
			bary[id] = position[id]
			continue
		}
		bary[id] = sum / float64(count)
	}
	sort.SliceStable(layer, func(i, j int) bool {
		a, b := layer[i], layer[j]
		if bary[a] != bary[b] {
			return bary[a] < bary[b]
		}
		return a < b
	})
}

// coordinates centres each layer on the cross axis and returns the top-left
// corner of the node box.
func (e *Engine) coordinates(rank, pos, size int, dir Direction) graph.Position {
	offset := float64(pos) - float64(size-1)/2
	if dir == LeftRight {
		return graph.Position{
			X: float64(rank)*(e.opts.NodeWidth+e.opts.RankSep) - e.opts.NodeWidth/2,
			Y: offset*(e.opts.NodeHeight+e.opts.NodeSep) - e.opts.NodeHeight/2,
		}
	}
	return graph.Position{
		X: offset*(e.opts.NodeWidth+e.opts.NodeSep) - e.opts.NodeWidth/2,
		Y: float64(rank)*(e.opts.NodeHeight+e.opts.RankSep) - e.opts.NodeHeight/2,
	}
}
