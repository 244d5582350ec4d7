// Package memory provides in-process implementations of the graph store and
// workspace repository. They back local development and tests, and are the
// default when no database is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"topicgraph/application/ports"
	"topicgraph/domain/graph"
	"topicgraph/pkg/vector"
)

type storedNode struct {
	label     string
	embedding []float32
	seq       int
}

// GraphStore keeps nodes and relationships in maps
type GraphStore struct {
	mu    sync.RWMutex
	nodes map[string]storedNode
	edges map[string]graph.Edge
	order []string
	seq   int
}

// NewGraphStore creates an empty store
func NewGraphStore() *GraphStore {
	return &GraphStore{
		nodes: make(map[string]storedNode),
		edges: make(map[string]graph.Edge),
	}
}

var _ ports.GraphStore = (*GraphStore)(nil)

// SaveNodes upserts nodes; label and embedding are overwritten
func (s *GraphStore) SaveNodes(_ context.Context, nodes []graph.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range nodes {
		if err := n.Validate(); err != nil {
			return err
		}
		existing, ok := s.nodes[n.ID]
		seq := existing.seq
		if !ok {
			s.seq++
			seq = s.seq
		}
		s.nodes[n.ID] = storedNode{
			label:     n.Label(),
			embedding: append([]float32(nil), n.Embedding...),
			seq:       seq,
		}
	}
	return nil
}

// SaveEdges upserts relationships by id. Edges whose endpoints are not
// stored are skipped.
func (s *GraphStore) SaveEdges(_ context.Context, edges []graph.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range edges {
		if err := e.Validate(); err != nil {
			return err
		}
		_, srcOK := s.nodes[e.Source]
		_, tgtOK := s.nodes[e.Target]
		if !srcOK || !tgtOK {
			continue
		}
		if _, ok := s.edges[e.ID]; !ok {
			s.order = append(s.order, e.ID)
		}
		s.edges[e.ID] = graph.NewEdge(e.ID, e.Source, e.Target, e.Label())
	}
	return nil
}

// LoadAll returns every node in insertion order with its edges
func (s *GraphStore) LoadAll(_ context.Context) (graph.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.nodes))
	for id := range s.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return s.nodes[ids[i]].seq < s.nodes[ids[j]].seq })

	g := graph.Empty()
	for _, id := range ids {
		g.Nodes = append(g.Nodes, graph.NewNode(id, s.nodes[id].label))
	}
	for _, id := range s.order {
		g.Edges = append(g.Edges, s.edges[id])
	}
	return g, nil
}

// Search scores every stored embedding against vector
func (s *GraphStore) Search(_ context.Context, query []float32, limit int) ([]ports.SearchResult, error) {
	s.mu.RLock()
	candidates := make([]vector.Candidate, 0, len(s.nodes))
	for id, n := range s.nodes {
		candidates = append(candidates, vector.Candidate{ID: id, Label: n.label, Embedding: n.embedding})
	}
	s.mu.RUnlock()

	return vector.TopK(query, candidates, limit), nil
}

// Ping always succeeds
func (s *GraphStore) Ping(context.Context) error { return nil }

// Close is a no-op
func (s *GraphStore) Close(context.Context) error { return nil }
