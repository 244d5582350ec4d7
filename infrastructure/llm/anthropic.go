package llm

import (
	"context"
	"fmt"
	"strings"

	"topicgraph/application/ports"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 2048

// AnthropicProvider uses the Messages API
type AnthropicProvider struct {
	client anthropic.Client
	model  string
	apiKey string
}

func NewAnthropicProvider(s Settings) *AnthropicProvider {
	opts := []option.RequestOption{option.WithAPIKey(s.APIKey)}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
		model:  s.Model,
		apiKey: s.APIKey,
	}
}

// Complete concatenates the text blocks of the reply
func (p *AnthropicProvider) Complete(ctx context.Context, prompt string, opts ports.CompletionOptions) (string, error) {
	if p.apiKey == "" {
		return "", ErrNotConfigured
	}

	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if opts.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: opts.System}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			sb.WriteString(b.Text)
		}
	}
	return reply(sb.String())
}

func (p *AnthropicProvider) IsAvailable(context.Context) bool { return p.apiKey != "" }

func (p *AnthropicProvider) Name() string { return "anthropic" }
