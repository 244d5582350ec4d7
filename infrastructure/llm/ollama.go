package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"topicgraph/application/ports"

	"github.com/ollama/ollama/api"
)

// OllamaProvider runs completions against a local Ollama server
type OllamaProvider struct {
	client *api.Client
	model  string
}

// NewOllamaProvider connects to BaseURL, or to OLLAMA_HOST when it is empty
func NewOllamaProvider(s Settings) (*OllamaProvider, error) {
	client, err := NewOllamaClient(s.BaseURL)
	if err != nil {
		return nil, err
	}
	return &OllamaProvider{client: client, model: s.Model}, nil
}

// NewOllamaClient is shared with the embedding adapter
func NewOllamaClient(baseURL string) (*api.Client, error) {
	if baseURL == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
		return client, nil
	}
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}
	return api.NewClient(u, http.DefaultClient), nil
}

func (p *OllamaProvider) Complete(ctx context.Context, prompt string, opts ports.CompletionOptions) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  p.model,
		Prompt: prompt,
		System: opts.System,
		Stream: &stream,
		Options: map[string]any{
			"temperature": opts.Temperature,
		},
	}
	if opts.MaxTokens > 0 {
		req.Options["num_predict"] = opts.MaxTokens
	}
	if opts.Format == "json" {
		req.Format = json.RawMessage(`"json"`)
	}

	var sb strings.Builder
	err := p.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama completion: %w", err)
	}
	return reply(sb.String())
}

func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	return p.client.Heartbeat(ctx) == nil
}

func (p *OllamaProvider) Name() string { return "ollama" }
