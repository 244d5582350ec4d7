package llm

import (
	"context"
	"fmt"

	"topicgraph/application/ports"

	"github.com/cohesion-org/deepseek-go"
)

type DeepSeekProvider struct {
	client *deepseek.Client
	model  string
	apiKey string
}

func NewDeepSeekProvider(s Settings) *DeepSeekProvider {
	var client *deepseek.Client
	if s.BaseURL != "" {
		client = deepseek.NewClient(s.APIKey, s.BaseURL)
	} else {
		client = deepseek.NewClient(s.APIKey)
	}
	model := s.Model
	if model == "" {
		model = deepseek.DeepSeekChat
	}
	return &DeepSeekProvider{client: client, model: model, apiKey: s.APIKey}
}

func (p *DeepSeekProvider) Complete(ctx context.Context, prompt string, opts ports.CompletionOptions) (string, error) {
	if p.apiKey == "" {
		return "", ErrNotConfigured
	}

	messages := make([]deepseek.ChatCompletionMessage, 0, 2)
	if opts.System != "" {
		messages = append(messages, deepseek.ChatCompletionMessage{Role: deepseek.ChatMessageRoleSystem, Content: opts.System})
	}
	messages = append(messages, deepseek.ChatCompletionMessage{Role: deepseek.ChatMessageRoleUser, Content: prompt})

	resp, err := p.client.CreateChatCompletion(ctx, &deepseek.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("deepseek completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return reply(resp.Choices[0].Message.Content)
}

func (p *DeepSeekProvider) IsAvailable(context.Context) bool { return p.apiKey != "" }

func (p *DeepSeekProvider) Name() string { return "deepseek" }
