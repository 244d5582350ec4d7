package services

import (
	"errors"
	"fmt"
	"strings"

	"topicgraph/domain/graph"

	"github.com/tidwall/gjson"
)

var (
	errNoJSONObject = errors.New("no JSON object in model reply")
	errNoNodes      = errors.New(`model reply has no "nodes" array`)
)

// ParseFragment extracts a graph fragment from a model reply. Replies often
// wrap the object in prose or code fences, and some models emit numeric ids or
// put the label at the top level; those are normalised here. Nodes are
// validated strictly. Edges that fail validation are left out of the
// fragment and returned separately.
func ParseFragment(reply string) (graph.Fragment, []graph.Edge, error) {
	body, err := extractObject(reply)
	if err != nil {
		return graph.Fragment{}, nil, err
	}

	nodes := gjson.Get(body, "nodes")
	if !nodes.IsArray() {
		return graph.Fragment{}, nil, errNoNodes
	}

	f := graph.Fragment{Nodes: []graph.Node{}, Edges: []graph.Edge{}}
	for _, n := range nodes.Array() {
		f.Nodes = append(f.Nodes, graph.Node{
			ID:   n.Get("id").String(),
			Data: graph.NodeData{Label: firstString(n, "data.label", "label")},
			Position: graph.Position{
				X: n.Get("position.x").Float(),
				Y: n.Get("position.y").Float(),
			},
		})
	}

	var dropped []graph.Edge
	for _, e := range gjson.Get(body, "edges").Array() {
		edge := graph.Edge{
			ID:     e.Get("id").String(),
			Source: e.Get("source").String(),
			Target: e.Get("target").String(),
			Data:   graph.EdgeData{Label: firstString(e, "data.label", "label")},
		}
		if edge.ID == "" && edge.Source != "" && edge.Target != "" {
			edge.ID = fmt.Sprintf("e%s-%s", edge.Source, edge.Target)
		}
		if edge.Validate() != nil {
			dropped = append(dropped, edge)
			continue
		}
		f.Edges = append(f.Edges, edge)
	}

	if err := f.Validate(); err != nil {
		return graph.Fragment{}, nil, fmt.Errorf("invalid fragment: %w", err)
	}
	return f, dropped, nil
}

func extractObject(reply string) (string, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return "", errNoJSONObject
	}
	body := reply[start : end+1]
	if !gjson.Valid(body) {
		return "", fmt.Errorf("%w: malformed JSON", errNoJSONObject)
	}
	return body, nil
}

func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
