package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/ollama/ollama/api"
)

type OllamaEmbedder struct {
	client *api.Client
	model  string
	dims   int
}

func NewOllamaEmbedder(client *api.Client, model string, dims int) *OllamaEmbedder {
	return &OllamaEmbedder{client: client, model: model, dims: dims}
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("ollama embedding: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, errors.New("ollama embedding: empty response")
	}
	return resp.Embeddings[0], nil
}

func (e *OllamaEmbedder) Dimensions() int { return e.dims }
