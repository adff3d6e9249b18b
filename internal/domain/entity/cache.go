package entity

import "time"

// CacheEntry is one stored (question, embedding, answer) triple.
// Entries are immutable once created: the cache only appends or evicts.
// JSON tags define the persistence format used by the Redis backend.
type CacheEntry struct {
	QueryText  string    `json:"query_text"`
	Embedding  []float32 `json:"embedding"`
	AnswerText string    `json:"answer_text"`
	CreatedAt  time.Time `json:"created_at"`
}
