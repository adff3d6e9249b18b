package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"policychat/internal/domain/entity"
)

// MemoryCache is an in-process semantic cache for deployments without
// Redis. Entries live in a bounded LRU; since lookups never touch
// recency, eviction is effectively oldest-first and Keys() iterates in
// insertion order, which keeps the first-above-threshold scan
// deterministic.
type MemoryCache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, entity.CacheEntry]
}

func NewMemoryCache(capacity int) (*MemoryCache, error) {
	c, err := lru.New[string, entity.CacheEntry](capacity)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{entries: c}, nil
}

// Lookup returns the answer of the first stored entry whose cosine
// similarity to vector meets the threshold.
func (c *MemoryCache) Lookup(ctx context.Context, vector []float32, threshold float32) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range c.entries.Keys() {
		e, ok := c.entries.Peek(key)
		if !ok {
			continue
		}
		score, err := entity.CosineSimilarity(vector, e.Embedding)
		if err != nil {
			return "", false, err
		}
		if score >= threshold {
			return e.AnswerText, true, nil
		}
	}
	return "", false, nil
}

// Store appends a new entry unconditionally; near-duplicate queries are
// only collapsed at read time. The oldest entry is evicted at capacity.
func (c *MemoryCache) Store(ctx context.Context, queryText, answerText string, vector []float32) error {
	entry := entity.CacheEntry{
		QueryText:  queryText,
		Embedding:  vector,
		AnswerText: answerText,
		CreatedAt:  time.Now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Key mirrors the Redis backend: literal query text plus a unique
	// suffix, so identical questions never overwrite each other.
	c.entries.Add(queryText+"#"+uuid.NewString(), entry)
	return nil
}

// Len reports the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}
