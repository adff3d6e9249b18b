package client

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"policychat/internal/domain/entity"
)

type GeminiEmbedder struct {
	client *genai.Client
	model  string // e.g., "text-embedding-004"
	dim    int    // expected vector dimension
}

func NewGeminiEmbedderFromClient(c *genai.Client, model string, dim int) *GeminiEmbedder {
	return &GeminiEmbedder{
		client: c,
		model:  model,
		dim:    dim,
	}
}

// CreateEmbedding returns the vector for text. A vector of the wrong
// length is a misconfigured embedding model and fails loudly instead of
// contaminating the cache and the document index.
func (e *GeminiEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	res, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrEmbeddingUnavailable, err)
	}
	if len(res.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", entity.ErrEmbeddingUnavailable)
	}
	vector := res.Embeddings[0].Values
	if e.dim > 0 && len(vector) != e.dim {
		return nil, fmt.Errorf("%w: model %s returned %d values, want %d",
			entity.ErrDimensionMismatch, e.model, len(vector), e.dim)
	}
	return vector, nil
}
