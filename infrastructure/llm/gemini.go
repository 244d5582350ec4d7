package llm

import (
	"context"
	"fmt"

	"topicgraph/application/ports"

	"google.golang.org/genai"
)

// GeminiProvider uses the Gemini API backend of the genai SDK
type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, s Settings) (*GeminiProvider, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrNotConfigured)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: s.Model}, nil
}

func (p *GeminiProvider) Complete(ctx context.Context, prompt string, opts ports.CompletionOptions) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(opts.Temperature)),
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.Format == "json" {
		cfg.ResponseMIMEType = "application/json"
	}
	if opts.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: opts.System}}}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	return reply(resp.Text())
}

func (p *GeminiProvider) IsAvailable(context.Context) bool { return p.client != nil }

func (p *GeminiProvider) Name() string { return "gemini" }
