package graph

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrEmptyNodeID   = errors.New("node id is empty")
	ErrEmptyEdgeID   = errors.New("edge id is empty")
	ErrEmptyEndpoint = errors.New("edge endpoint is empty")
	ErrBadPosition   = errors.New("position is not finite")
	ErrDuplicateID   = errors.New("duplicate id")
)

// Validate checks a node record received from outside the process.
func (n Node) Validate() error {
	if strings.TrimSpace(n.ID) == "" {
		return ErrEmptyNodeID
	}
	if !finite(n.Position.X) || !finite(n.Position.Y) {
		return fmt.Errorf("node %q: %w", n.ID, ErrBadPosition)
	}
	return nil
}

// Validate checks an edge record received from outside the process.
func (e Edge) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyEdgeID
	}
	if strings.TrimSpace(e.Source) == "" || strings.TrimSpace(e.Target) == "" {
		return fmt.Errorf("edge %q: %w", e.ID, ErrEmptyEndpoint)
	}
	return nil
}

// Validate checks every record and rejects ids repeated within the graph.
func (g Graph) Validate() error {
	seen := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if err := n.Validate(); err != nil {
			return err
		}
		if _, ok := seen[n.ID]; ok {
			return fmt.Errorf("node %q: %w", n.ID, ErrDuplicateID)
		}
		seen[n.ID] = struct{}{}
	}

	seen = make(map[string]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		if err := e.Validate(); err != nil {
			return err
		}
		if _, ok := seen[e.ID]; ok {
			return fmt.Errorf("edge %q: %w", e.ID, ErrDuplicateID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

// Validate checks every record of the fragment. Repeated ids are tolerated
// here since Merge already resolves them first-write-wins.
func (f Fragment) Validate() error {
	for _, n := range f.Nodes {
		if err := n.Validate(); err != nil {
			return err
		}
	}
	for _, e := range f.Edges {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
