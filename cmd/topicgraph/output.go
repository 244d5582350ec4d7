package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"topicgraph/application/ports"
	"topicgraph/domain/graph"

	"github.com/fatih/color"
)

var (
	brand  = color.New(color.FgHiGreen, color.Bold)
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	info   = color.New(color.FgCyan)
	bad    = color.New(color.FgRed)
)

// printGraph writes g as JSON or as an indented outline of nodes and edges
func printGraph(w io.Writer, g graph.Graph, asJSON bool) error {
	if asJSON {
		return writeJSON(w, g)
	}

	stats := g.Stats()
	brand.Fprintf(w, "%d nodes, %d edges\n", stats.Nodes, stats.Edges)
	for _, n := range g.Nodes {
		fmt.Fprintf(w, "  %s %-8s %s\n", subtle.Sprint("──"), n.ID, n.Label())
	}
	if len(g.Edges) == 0 {
		return nil
	}

	labels := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		labels[n.ID] = n.Label()
	}
	fmt.Fprintln(w)
	for _, e := range g.Edges {
		fmt.Fprintf(w, "  %s %s %s\n",
			nodeName(labels, e.Source),
			info.Sprintf("─%s→", edgeLabel(e)),
			nodeName(labels, e.Target),
		)
	}
	return nil
}

func printResults(w io.Writer, results []ports.SearchResult) {
	if len(results) == 0 {
		subtle.Fprintln(w, "No matching nodes")
		return
	}

	width := len("LABEL")
	for _, r := range results {
		if len(r.Label) > width {
			width = len(r.Label)
		}
	}
	subtle.Fprintf(w, "  %-*s  %s\n", width, "LABEL", "SCORE")
	subtle.Fprintf(w, "  %s  %s\n", strings.Repeat("─", width), strings.Repeat("─", 6))
	for _, r := range results {
		fmt.Fprintf(w, "  %-*s  %s\n", width, r.Label, scoreColor(r.Score).Sprintf("%.4f", r.Score))
	}
}

func scoreColor(score float64) *color.Color {
	switch {
	case score >= 0.75:
		return good
	case score >= 0.4:
		return info
	default:
		return bad
	}
}

func nodeName(labels map[string]string, id string) string {
	if l, ok := labels[id]; ok && l != "" {
		return l
	}
	return id
}

func edgeLabel(e graph.Edge) string {
	if e.Label() == "" {
		return ""
	}
	return " " + e.Label() + " "
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
