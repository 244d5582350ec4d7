package embedding

import (
	"fmt"

	"topicgraph/application/ports"
	"topicgraph/infrastructure/config"
	"topicgraph/infrastructure/llm"
)

// New builds the configured embedder
func New(cfg config.Embedding) (ports.Embedder, error) {
	switch cfg.Provider {
	case "", "hash":
		return NewHashEmbedder(cfg.Dimensions), nil
	case "openai":
		return NewOpenAIEmbedder(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Dimensions), nil
	case "ollama":
		client, err := llm.NewOllamaClient(cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return NewOllamaEmbedder(client, cfg.Model, cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
