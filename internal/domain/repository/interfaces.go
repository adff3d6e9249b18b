package repository

import (
	"context"
	"policychat/internal/domain/entity"
)

// Embedder maps text to a fixed-length vector.
type Embedder interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Retriever runs similarity search over a document-chunk collection.
type Retriever interface {
	Retrieve(ctx context.Context, collection, query string, k int) ([]entity.RetrievedChunk, error)
}

// AnswerCache is the semantic response cache. Lookup scans stored
// entries in insertion order and returns the answer of the first entry
// whose cosine similarity to vector meets the threshold; ok is false
// on a miss (distinct from an empty answer).
type AnswerCache interface {
	Lookup(ctx context.Context, vector []float32, threshold float32) (answer string, ok bool, err error)
	Store(ctx context.Context, queryText, answerText string, vector []float32) error
}

// AnswerProvider generates an answer for a fully built prompt.
type AnswerProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
