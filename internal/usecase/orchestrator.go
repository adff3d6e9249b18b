package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"policychat/internal/domain/entity"
	"policychat/internal/domain/repository"
)

// User-visible texts for degraded exchanges. The no-docs message and
// the failure apology are deliberately distinct.
const (
	FallbackNoDocs     = "I couldn't find any relevant information in our policies. Please try rephrasing your question or contact HR/IT for assistance."
	FallbackGeneration = "Sorry, something went wrong while answering your question. Please try again in a moment."
)

// Orchestrator resolves one question end to end: semantic cache lookup,
// retrieval, prompt building, generation, cache population. Each
// dependency failure degrades rather than aborting; the one exception
// is a dimension mismatch, which indicates mixed embedding models and
// is propagated to the caller.
type Orchestrator struct {
	embedder  repository.Embedder
	cache     repository.AnswerCache
	retriever repository.Retriever
	provider  repository.AnswerProvider
	threshold float32
	topK      int
	slowAfter time.Duration
}

func NewOrchestrator(emb repository.Embedder, cache repository.AnswerCache, retr repository.Retriever, prov repository.AnswerProvider, threshold float32, topK int, slowAfter time.Duration) *Orchestrator {
	if topK <= 0 {
		topK = 3
	}
	if slowAfter < 0 {
		slowAfter = 2 * time.Second
	}
	return &Orchestrator{
		embedder:  emb,
		cache:     cache,
		retriever: retr,
		provider:  prov,
		threshold: threshold,
		topK:      topK,
		slowAfter: slowAfter,
	}
}

// Ask resolves question for the given session against one of its
// collections. Exactly one User and one Assistant turn are appended per
// call, even when a dependency fails; the assistant turn then carries
// the fallback or apology text. Questions within a session are
// serialized: a new one is not accepted until the previous resolved.
func (o *Orchestrator) Ask(ctx context.Context, sess *Session, collection, question string) (*entity.Exchange, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, entity.ErrEmptyQuestion
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	start := time.Now()
	ex := &entity.Exchange{Question: question}

	// Embedding failure forces a cache miss; retrieval still runs
	// since the retriever embeds on its own.
	vector, err := o.embedder.CreateEmbedding(ctx, question)
	if err != nil {
		if errors.Is(err, entity.ErrDimensionMismatch) {
			return nil, err
		}
		log.Printf("[ORCHESTRATOR] embedding unavailable, forcing cache miss: %v", err)
		vector = nil
	}

	if vector != nil {
		answer, ok, err := o.cache.Lookup(ctx, vector, o.threshold)
		switch {
		case errors.Is(err, entity.ErrDimensionMismatch):
			return nil, err
		case err != nil:
			log.Printf("[CACHE] lookup failed, treating as miss: %v", err)
		case ok:
			ex.Answer = answer
			ex.Cached = true
		}
	}

	if !ex.Cached {
		o.resolveMiss(ctx, ex, collection, question, vector)
	}

	sess.History.Append(entity.ChatTurn{Role: entity.RoleUser, Content: question})
	sess.History.Append(entity.ChatTurn{Role: entity.RoleAssistant, Content: ex.Answer})
	sess.History.TrimToBound()

	ex.Elapsed = time.Since(start)
	if ex.Elapsed > o.slowAfter {
		log.Printf("[ORCHESTRATOR] slow response (%.2fs) for query: %s...", ex.Elapsed.Seconds(), truncate(question, 50))
	}
	return ex, nil
}

// resolveMiss runs the cache-miss path: retrieve, build prompt,
// generate, then populate the cache. The answer is cached only after
// generation succeeded, never speculatively, and cache write failures
// are swallowed.
func (o *Orchestrator) resolveMiss(ctx context.Context, ex *entity.Exchange, collection, question string, vector []float32) {
	chunks, err := o.retriever.Retrieve(ctx, collection, question, o.topK)
	if err != nil {
		log.Printf("[ORCHESTRATOR] retrieval failed: %v", err)
		ex.Answer = FallbackGeneration
		return
	}
	if len(chunks) == 0 {
		ex.Answer = FallbackNoDocs
		return
	}

	prompt := BuildPrompt(question, chunks)
	answer, err := o.provider.Generate(ctx, prompt)
	if err != nil {
		log.Printf("[ORCHESTRATOR] generation failed: %v", err)
		ex.Answer = FallbackGeneration
		return
	}

	ex.Answer = answer
	ex.Sources = chunks

	if vector != nil {
		if err := o.cache.Store(ctx, question, answer, vector); err != nil {
			log.Printf("[CACHE] store failed, answer not cached: %v", err)
		}
	}
}

// truncate shortens s to at most n characters without splitting a
// multi-byte rune.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
