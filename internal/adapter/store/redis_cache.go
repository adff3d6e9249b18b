package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"policychat/internal/domain/entity"
)

// indexKey orders cache keys by insertion so the scan stays deterministic.
const indexKey = "cache:q:index"

// RedisCache is the shared semantic cache backend. Each entry is a JSON
// CacheEntry under a key prefixed with the literal query text
// ("q:<text>:<id>"); collisions on identical text are fine because
// lookup matches by similarity, not by key.
type RedisCache struct {
	client   *redis.Client
	capacity int
	ttl      time.Duration // 0 disables expiry
}

func NewRedisCache(client *redis.Client, capacity int, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client:   client,
		capacity: capacity,
		ttl:      ttl,
	}
}

// Lookup walks stored entries in insertion order and returns the first
// answer whose similarity meets the threshold. Connection failures
// surface as ErrCacheUnavailable so the orchestrator can degrade to a
// forced miss; a dimension mismatch is not swallowed.
func (c *RedisCache) Lookup(ctx context.Context, vector []float32, threshold float32) (string, bool, error) {
	keys, err := c.client.LRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", entity.ErrCacheUnavailable, err)
	}

	for _, key := range keys {
		raw, err := c.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue // expired, index is pruned lazily
		}
		if err != nil {
			return "", false, fmt.Errorf("%w: %v", entity.ErrCacheUnavailable, err)
		}

		var e entity.CacheEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
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

// Store appends a new entry and trims the store to capacity,
// oldest-first. Entries are never mutated in place.
func (c *RedisCache) Store(ctx context.Context, queryText, answerText string, vector []float32) error {
	entry := entity.CacheEntry{
		QueryText:  queryText,
		Embedding:  vector,
		AnswerText: answerText,
		CreatedAt:  time.Now(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	key := "q:" + queryText + ":" + uuid.NewString()
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, data, c.ttl)
	pipe.RPush(ctx, indexKey, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrCacheUnavailable, err)
	}

	// Retention: evict oldest entries beyond capacity. Best effort —
	// the new entry is already stored.
	n, err := c.client.LLen(ctx, indexKey).Result()
	if err != nil {
		return nil
	}
	for n > int64(c.capacity) {
		old, err := c.client.LPop(ctx, indexKey).Result()
		if err != nil {
			break
		}
		c.client.Del(ctx, old)
		n--
	}
	return nil
}
