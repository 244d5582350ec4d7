package graph

import "strings"

// Merge folds addition into existing. Nodes and edges are added only when
// their id is not already present (first write wins, duplicates are never
// relabelled). Endpoints are not checked here; see PruneDangling.
// Neither argument is modified.
func Merge(existing Graph, addition Fragment) Graph {
	out := existing.Clone()

	nodeIDs := out.NodeIDs()
	for _, n := range addition.Nodes {
		if _, ok := nodeIDs[n.ID]; ok {
			continue
		}
		nodeIDs[n.ID] = struct{}{}
		out.Nodes = append(out.Nodes, n.clone())
	}

	edgeIDs := out.EdgeIDs()
	for _, e := range addition.Edges {
		if _, ok := edgeIDs[e.ID]; ok {
			continue
		}
		edgeIDs[e.ID] = struct{}{}
		out.Edges = append(out.Edges, e)
	}

	return out
}

// DeleteNode removes the node with the given id and every edge touching it.
// The second return value is false when no such node exists, in which case
// the returned graph equals the receiver.
func (g Graph) DeleteNode(id string) (Graph, bool) {
	if !g.HasNode(id) {
		return g.Clone(), false
	}

	out := Graph{
		Nodes: make([]Node, 0, len(g.Nodes)-1),
		Edges: make([]Edge, 0, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		if n.ID != id {
			out.Nodes = append(out.Nodes, n.clone())
		}
	}
	for _, e := range g.Edges {
		if !e.Touches(id) {
			out.Edges = append(out.Edges, e)
		}
	}
	return out, true
}

// PruneDangling drops edges whose source or target is not a node of g.
// The dropped edges are returned so callers can report them.
func (g Graph) PruneDangling() (Graph, []Edge) {
	ids := g.NodeIDs()
	out := g.Clone()
	out.Edges = out.Edges[:0]

	var dropped []Edge
	for _, e := range g.Edges {
		_, okSource := ids[e.Source]
		_, okTarget := ids[e.Target]
		if okSource && okTarget {
			out.Edges = append(out.Edges, e)
			continue
		}
		dropped = append(dropped, e)
	}
	return out, dropped
}

// NewOnly returns the part of f that is not yet in g: nodes and edges whose
// ids g does not contain.
func (f Fragment) NewOnly(g Graph) Fragment {
	nodeIDs := g.NodeIDs()
	edgeIDs := g.EdgeIDs()

	out := Fragment{Nodes: []Node{}, Edges: []Edge{}}
	for _, n := range f.Nodes {
		if _, ok := nodeIDs[n.ID]; !ok {
			out.Nodes = append(out.Nodes, n.clone())
		}
	}
	for _, e := range f.Edges {
		if _, ok := edgeIDs[e.ID]; !ok {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}

// Reassign gives a fresh id to every node of f whose id is already used in g
// by a different concept, compared by trimmed case-insensitive label. Edges
// of f follow their endpoints to the new ids; a rewritten edge whose id is
// also taken in g is renamed after its endpoints. The returned map holds
// old id to new id for every reassigned node.
func (f Fragment) Reassign(g Graph, newID func() string) (Fragment, map[string]string) {
	existing := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		existing[n.ID] = sameLabelKey(n.Label())
	}

	renamed := make(map[string]string)
	out := Fragment{Nodes: make([]Node, 0, len(f.Nodes)), Edges: make([]Edge, 0, len(f.Edges))}
	for _, n := range f.Nodes {
		n = n.clone()
		if label, ok := existing[n.ID]; ok && label != sameLabelKey(n.Label()) {
			id, seen := renamed[n.ID]
			if !seen {
				id = newID()
				renamed[n.ID] = id
			}
			n.ID = id
		}
		out.Nodes = append(out.Nodes, n)
	}
	if len(renamed) == 0 {
		out.Edges = append(out.Edges, f.Edges...)
		return out, renamed
	}

	edgeIDs := g.EdgeIDs()
	for _, e := range f.Edges {
		source, okSource := renamed[e.Source]
		target, okTarget := renamed[e.Target]
		if okSource {
			e.Source = source
		}
		if okTarget {
			e.Target = target
		}
		if _, taken := edgeIDs[e.ID]; taken && (okSource || okTarget) {
			e.ID = "e" + e.Source + "-" + e.Target
		}
		out.Edges = append(out.Edges, e)
	}
	return out, renamed
}

func sameLabelKey(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
