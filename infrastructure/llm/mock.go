package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"sync"

	"topicgraph/application/ports"
	"topicgraph/domain/graph"
)

var (
	generateTopic = regexp.MustCompile(`explains the topic "((?:[^"\\]|\\.)*)"`)
	expandTarget  = regexp.MustCompile(`Expand the node with id "((?:[^"\\]|\\.)*)" \(label "((?:[^"\\]|\\.)*)"\)`)
)

var mockFacets = []string{"History", "Principles", "Applications", "Examples", "Open problems"}

// MockProvider answers without a network. With scripted replies it returns
// them in order, repeating the last one; otherwise it derives a small graph
// from the prompt so the whole pipeline can run offline.
type MockProvider struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   int
}

func NewMockProvider(replies ...string) *MockProvider {
	return &MockProvider{replies: replies}
}

// FailWith makes every subsequent call return err
func (p *MockProvider) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Calls returns how many completions were requested
func (p *MockProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *MockProvider) Complete(ctx context.Context, prompt string, _ ports.CompletionOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	if len(p.replies) > 0 {
		r := p.replies[0]
		if len(p.replies) > 1 {
			p.replies = p.replies[1:]
		}
		return r, nil
	}
	return synthesize(prompt)
}

func (p *MockProvider) IsAvailable(context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err == nil
}

func (p *MockProvider) Name() string { return "mock" }

func synthesize(prompt string) (string, error) {
	var f graph.Fragment
	if m := expandTarget.FindStringSubmatch(prompt); m != nil {
		f = star(unquote(m[1]), unquote(m[2]), false, prefix(prompt))
	} else if m := generateTopic.FindStringSubmatch(prompt); m != nil {
		f = star("1", unquote(m[1]), true, "")
	} else {
		return "", fmt.Errorf("mock provider cannot answer prompt")
	}

	out, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// star builds hub plus one spoke per facet. When includeHub is false the
// hub already exists and only spokes and edges are returned.
func star(hubID, hubLabel string, includeHub bool, idPrefix string) graph.Fragment {
	var f graph.Fragment
	if includeHub {
		f.Nodes = append(f.Nodes, graph.NewNode(hubID, hubLabel))
	}
	for i, facet := range mockFacets {
		id := fmt.Sprintf("%s%d", idPrefix, i+2)
		f.Nodes = append(f.Nodes, graph.NewNode(id, hubLabel+": "+facet))
		f.Edges = append(f.Edges, graph.NewEdge("e"+hubID+"-"+id, hubID, id, "has facet"))
	}
	return f
}

func prefix(prompt string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(prompt))
	return fmt.Sprintf("m%x-", h.Sum32())
}

func unquote(s string) string {
	if u, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return u
	}
	return s
}
