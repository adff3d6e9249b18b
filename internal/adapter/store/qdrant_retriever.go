package store

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"policychat/internal/domain/entity"
	"policychat/internal/domain/repository"
)

// QdrantRetriever searches document chunks stored in per-team Qdrant
// collections. It embeds the query itself; the chunk index and the
// semantic cache share an embedding space but not a backing store.
type QdrantRetriever struct {
	client   *qdrant.Client
	embedder repository.Embedder
}

func NewQdrantRetriever(client *qdrant.Client, embedder repository.Embedder) *QdrantRetriever {
	return &QdrantRetriever{
		client:   client,
		embedder: embedder,
	}
}

// InitCollection ensures a cosine-distance collection of the given
// dimension exists.
func (r *QdrantRetriever) InitCollection(ctx context.Context, collection string, dim uint64) error {
	_, err := r.client.GetCollectionInfo(ctx, collection)
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.NotFound {
		return err
	}
	if err := r.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dim,
			Distance: qdrant.Distance_Cosine,
		}),
	}); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", collection, err)
	}
	return nil
}

// Retrieve returns the top-k most similar chunks, possibly none.
func (r *QdrantRetriever) Retrieve(ctx context.Context, collection, query string, k int) ([]entity.RetrievedChunk, error) {
	vector, err := r.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding retrieval query: %w", err)
	}

	res, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}

	chunks := make([]entity.RetrievedChunk, 0, len(res))
	for _, hit := range res {
		payload := hit.Payload
		chunk := entity.RetrievedChunk{
			Text:     payload["text"].GetStringValue(),
			SourceID: payload["source"].GetStringValue(),
			Page:     entity.PageUnknown,
		}
		if p, ok := payload["page"]; ok {
			chunk.Page = int(p.GetIntegerValue())
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}
