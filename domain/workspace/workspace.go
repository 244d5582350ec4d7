// Package workspace models the working graph of one user session as an
// explicitly versioned value. Each mutation yields a new Workspace with the
// version incremented; repositories persist it with compare-and-swap on the
// version so concurrent writers cannot silently overwrite each other.
package workspace

import (
	"errors"
	"fmt"
	"time"

	"topicgraph/domain/graph"
)

var (
	// ErrVersionConflict is returned when a write is based on a stale version.
	ErrVersionConflict = errors.New("workspace version conflict")
	// ErrNotFound is returned when no workspace exists for an id.
	ErrNotFound = errors.New("workspace not found")
	// ErrNodeNotFound is returned when a mutation targets a missing node.
	ErrNodeNotFound = errors.New("node not found")
)

// Workspace is a versioned working graph.
type Workspace struct {
	ID        string      `json:"id"`
	Topic     string      `json:"topic,omitempty"`
	Version   int64       `json:"version"`
	Graph     graph.Graph `json:"graph"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// New creates an empty workspace at version 1.
func New(id, topic string, now time.Time) Workspace {
	return Workspace{
		ID:        id,
		Topic:     topic,
		Version:   1,
		Graph:     graph.Empty(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply merges a fragment and returns the next version. Dangling edges are
// pruned from the result and returned.
func (w Workspace) Apply(f graph.Fragment, now time.Time) (Workspace, []graph.Edge) {
	merged, dropped := graph.Merge(w.Graph, f).PruneDangling()
	return w.next(merged, now), dropped
}

// DeleteNode removes a node and its edges and returns the next version.
func (w Workspace) DeleteNode(nodeID string, now time.Time) (Workspace, error) {
	g, ok := w.Graph.DeleteNode(nodeID)
	if !ok {
		return w, fmt.Errorf("node %q: %w", nodeID, ErrNodeNotFound)
	}
	return w.next(g, now), nil
}

// WithGraph replaces the graph, typically with a re-layouted copy, and
// returns the next version.
func (w Workspace) WithGraph(g graph.Graph, now time.Time) Workspace {
	return w.next(g, now)
}

func (w Workspace) next(g graph.Graph, now time.Time) Workspace {
	out := w
	out.Graph = g
	out.Version = w.Version + 1
	out.UpdatedAt = now
	return out
}

// CheckVersion returns ErrVersionConflict unless expected is zero (no check)
// or equals the workspace version.
func (w Workspace) CheckVersion(expected int64) error {
	if expected != 0 && expected != w.Version {
		return fmt.Errorf("%w: expected %d, current %d", ErrVersionConflict, expected, w.Version)
	}
	return nil
}
