package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"topicgraph/application/ports"
	"topicgraph/domain/events"
	"topicgraph/domain/graph"
)

type stubLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	prompts []string
}

func (s *stubLLM) Complete(_ context.Context, prompt string, _ ports.CompletionOptions) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

func (s *stubLLM) IsAvailable(context.Context) bool { return s.err == nil }
func (s *stubLLM) Name() string                     { return "stub" }

func (s *stubLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubWeb struct {
	lines []string
	err   error
}

func (s stubWeb) Search(context.Context, string, int) ([]string, error) { return s.lines, s.err }

// keywordEmbedder maps text onto two axes, "light" and "mass", so tests can
// reason about similarity without a model.
type keywordEmbedder struct {
	failOn string
}

func (e keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.failOn != "" && text == e.failOn {
		return nil, errors.New("embedding backend down")
	}
	switch text {
	case "light", "Photosynthesis":
		return []float32{1, 0.1}, nil
	case "Gravity":
		return []float32{0.1, 1}, nil
	}
	return []float32{0.5, 0.5}, nil
}

func (keywordEmbedder) Dimensions() int { return 2 }

type stubStore struct {
	mu        sync.Mutex
	nodes     []graph.Node
	edges     []graph.Edge
	results   []ports.SearchResult
	saveErr   error
	loadGraph graph.Graph
	saved     chan struct{}
}

func (s *stubStore) SaveNodes(_ context.Context, nodes []graph.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.nodes = append(s.nodes, nodes...)
	return nil
}

func (s *stubStore) SaveEdges(_ context.Context, edges []graph.Edge) error {
	s.mu.Lock()
	s.edges = append(s.edges, edges...)
	s.mu.Unlock()
	if s.saved != nil {
		s.saved <- struct{}{}
	}
	return nil
}

func (s *stubStore) LoadAll(context.Context) (graph.Graph, error) { return s.loadGraph.Clone(), nil }

func (s *stubStore) Search(_ context.Context, _ []float32, _ int) ([]ports.SearchResult, error) {
	return append([]ports.SearchResult(nil), s.results...), nil
}

func (s *stubStore) Ping(context.Context) error  { return nil }
func (s *stubStore) Close(context.Context) error { return nil }

func (s *stubStore) savedNodes() []graph.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]graph.Node(nil), s.nodes...)
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (b *recordingBus) Publish(_ context.Context, e events.DomainEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
	return nil
}

func (b *recordingBus) PublishBatch(ctx context.Context, es []events.DomainEvent) error {
	for _, e := range es {
		_ = b.Publish(ctx, e)
	}
	return nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }
