package llm

import (
	"context"
	"fmt"

	"topicgraph/application/ports"
	"topicgraph/infrastructure/config"

	"go.uber.org/zap"
)

// NewProvider builds the configured provider wrapped in a GuardedProvider
func NewProvider(ctx context.Context, cfg config.LLM, observer CallObserver, logger *zap.Logger) (*GuardedProvider, error) {
	base, err := newBaseProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("LLM provider configured",
		zap.String("provider", base.Name()),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout),
	)
	return NewGuardedProvider(base, BreakerConfig{
		ConsecutiveFailures: cfg.BreakerFailures,
		Cooldown:            cfg.BreakerCooldown,
		Timeout:             cfg.Timeout,
	}, observer, logger), nil
}

func newBaseProvider(ctx context.Context, cfg config.LLM) (ports.LLMProvider, error) {
	s := Settings{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}

	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIProvider(s), nil
	case "anthropic":
		return NewAnthropicProvider(hosted(s)), nil
	case "gemini":
		return NewGeminiProvider(ctx, hosted(s))
	case "ollama":
		return NewOllamaProvider(hosted(s))
	case "deepseek":
		return NewDeepSeekProvider(hosted(s)), nil
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// hosted drops the LM Studio default base URL so other providers fall back
// to their own endpoints
func hosted(s Settings) Settings {
	if s.BaseURL == config.DefaultLLMBaseURL {
		s.BaseURL = ""
	}
	return s
}
