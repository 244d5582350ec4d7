package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"topicgraph/domain/graph"
)

const systemPrompt = "You are a knowledge graph generator. You reply with a single JSON object and nothing else."

const fragmentSchema = `{
  "nodes": [{"id": "1", "data": {"label": "..."}, "position": {"x": 0, "y": 0}}],
  "edges": [{"id": "e1-2", "source": "1", "target": "2", "data": {"label": "..."}}]
}`

func buildGeneratePrompt(topic string, background []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a knowledge graph that explains the topic %q.\n", topic)
	b.WriteString("Use 6 to 12 nodes. The first node must be the topic itself. ")
	b.WriteString("Every edge label describes how the source relates to the target.\n")
	if len(background) > 0 {
		b.WriteString("\nBackground from a web search, use it where relevant:\n")
		for _, line := range background {
			b.WriteString("- ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nReturn ONLY a JSON object with exactly this shape:\n")
	b.WriteString(fragmentSchema)
	b.WriteString("\nNode ids and edge ids are strings and must be unique. Every edge source and target must be the id of a node in your answer.")
	return b.String()
}

type promptNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type promptEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

type promptGraph struct {
	Nodes []promptNode `json:"nodes"`
	Edges []promptEdge `json:"edges"`
}

func buildExpandPrompt(full graph.Graph, target graph.Node) (string, error) {
	pg := promptGraph{
		Nodes: make([]promptNode, 0, len(full.Nodes)),
		Edges: make([]promptEdge, 0, len(full.Edges)),
	}
	for _, n := range full.Nodes {
		pg.Nodes = append(pg.Nodes, promptNode{ID: n.ID, Label: n.Label()})
	}
	for _, e := range full.Edges {
		pg.Edges = append(pg.Edges, promptEdge{Source: e.Source, Target: e.Target, Label: e.Label()})
	}
	current, err := json.Marshal(pg)
	if err != nil {
		return "", fmt.Errorf("encode graph context: %w", err)
	}

	var b strings.Builder
	b.WriteString("Here is an existing knowledge graph:\n")
	b.Write(current)
	fmt.Fprintf(&b, "\n\nExpand the node with id %q (label %q) with 3 to 6 new related concepts.\n", target.ID, target.Label())
	b.WriteString("Return ONLY the NEW nodes and the NEW edges, not the existing graph. ")
	b.WriteString("New node ids must not collide with any existing id. ")
	fmt.Fprintf(&b, "Every new node must be connected, directly or through other new nodes, to %q. ", target.ID)
	b.WriteString("Edges may reference existing node ids.\n")
	b.WriteString("Return ONLY a JSON object with exactly this shape:\n")
	b.WriteString(fragmentSchema)
	return b.String(), nil
}
