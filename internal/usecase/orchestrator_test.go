package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"policychat/internal/domain/entity"
)

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.vec, nil
}

type mockCache struct {
	entries    []entity.CacheEntry
	lookupErr  error
	storeErr   error
	storeCalls int
}

func (m *mockCache) Lookup(ctx context.Context, vector []float32, threshold float32) (string, bool, error) {
	if m.lookupErr != nil {
		return "", false, m.lookupErr
	}
	for _, e := range m.entries {
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

func (m *mockCache) Store(ctx context.Context, queryText, answerText string, vector []float32) error {
	m.storeCalls++
	if m.storeErr != nil {
		return m.storeErr
	}
	m.entries = append(m.entries, entity.CacheEntry{
		QueryText:  queryText,
		Embedding:  vector,
		AnswerText: answerText,
		CreatedAt:  time.Now(),
	})
	return nil
}

type mockRetriever struct {
	chunks []entity.RetrievedChunk
	err    error
	calls  int
}

func (m *mockRetriever) Retrieve(ctx context.Context, collection, query string, k int) ([]entity.RetrievedChunk, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.chunks, nil
}

type mockProvider struct {
	answer string
	err    error
	calls  int
}

func (m *mockProvider) Generate(ctx context.Context, prompt string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func newTestSession() *Session {
	return &Session{
		Token:       "t",
		Email:       "user@example.com",
		Collections: []string{"default"},
		History:     entity.NewChatSession(3),
	}
}

func newTestOrchestrator(emb *mockEmbedder, cache *mockCache, retr *mockRetriever, prov *mockProvider) *Orchestrator {
	return NewOrchestrator(emb, cache, retr, prov, 0.90, 3, 2*time.Second)
}

func TestAsk_MissRetrieveGenerateAndCache(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1, 0}}
	cache := &mockCache{}
	retr := &mockRetriever{chunks: []entity.RetrievedChunk{
		{Text: "Employees receive 24 leave days.", SourceID: "hr_policy.pdf", Page: 4},
		{Text: "Unused leave lapses.", SourceID: "hr_policy.pdf", Page: 5},
	}}
	prov := &mockProvider{answer: "You get 24 leave days per year."}
	o := newTestOrchestrator(emb, cache, retr, prov)
	sess := newTestSession()

	ex, err := o.Ask(context.Background(), sess, "default", "How many leave days do I get?")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if ex.Cached {
		t.Error("first ask must be a cache miss")
	}
	if ex.Answer != prov.answer {
		t.Errorf("answer = %q, want generated text", ex.Answer)
	}
	if len(ex.Sources) != 2 {
		t.Errorf("sources = %d, want 2", len(ex.Sources))
	}
	if len(cache.entries) != 1 {
		t.Errorf("cache entries = %d, want 1", len(cache.entries))
	}
	if prov.calls != 1 {
		t.Errorf("generation calls = %d, want 1", prov.calls)
	}
}

func TestAsk_RepeatedQuestionHitsCache(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1, 0}}
	cache := &mockCache{}
	retr := &mockRetriever{chunks: []entity.RetrievedChunk{{Text: "ctx", SourceID: "doc"}}}
	prov := &mockProvider{answer: "X"}
	o := newTestOrchestrator(emb, cache, retr, prov)
	sess := newTestSession()

	if _, err := o.Ask(context.Background(), sess, "default", "How many leave days do I get?"); err != nil {
		t.Fatalf("first ask failed: %v", err)
	}
	ex, err := o.Ask(context.Background(), sess, "default", "How many leave days do I get?")
	if err != nil {
		t.Fatalf("second ask failed: %v", err)
	}

	if !ex.Cached {
		t.Error("second identical ask must hit the cache")
	}
	if ex.Answer != "X" {
		t.Errorf("answer = %q, want cached X", ex.Answer)
	}
	if len(ex.Sources) != 0 {
		t.Error("cache hits record no source citations")
	}
	if prov.calls != 1 {
		t.Errorf("generation calls = %d, want 1 (zero on the hit)", prov.calls)
	}
	if retr.calls != 1 {
		t.Errorf("retrieval calls = %d, want 1 (zero on the hit)", retr.calls)
	}
}

func TestAsk_NoDocumentsShortCircuits(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1, 0}}
	cache := &mockCache{}
	retr := &mockRetriever{} // zero chunks
	prov := &mockProvider{answer: "should never run"}
	o := newTestOrchestrator(emb, cache, retr, prov)
	sess := newTestSession()

	ex, err := o.Ask(context.Background(), sess, "default", "anything about X?")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if ex.Answer != FallbackNoDocs {
		t.Errorf("answer = %q, want the fixed no-docs fallback", ex.Answer)
	}
	if prov.calls != 0 {
		t.Error("generation must not run when retrieval is empty")
	}
	if cache.storeCalls != 0 {
		t.Error("cache must not be written for the fallback answer")
	}
	if len(ex.Sources) != 0 {
		t.Error("no source citations for the fallback answer")
	}
}

func TestAsk_GenerationFailureRecordsApology(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1, 0}}
	cache := &mockCache{}
	retr := &mockRetriever{chunks: []entity.RetrievedChunk{{Text: "ctx", SourceID: "doc"}}}
	prov := &mockProvider{err: entity.ErrGenerationFailure}
	o := newTestOrchestrator(emb, cache, retr, prov)
	sess := newTestSession()

	ex, err := o.Ask(context.Background(), sess, "default", "question")
	if err != nil {
		t.Fatalf("ask must not fail on generation errors: %v", err)
	}
	if ex.Answer != FallbackGeneration {
		t.Errorf("answer = %q, want the apology text", ex.Answer)
	}
	if ex.Answer == FallbackNoDocs {
		t.Error("apology must be distinct from the no-docs fallback")
	}
	if cache.storeCalls != 0 {
		t.Error("cache must not be written after a generation failure")
	}

	turns := sess.History.Turns()
	if len(turns) != 2 {
		t.Fatalf("session turns = %d, want the question/apology pair", len(turns))
	}
	if turns[0].Content != "question" || turns[1].Content != FallbackGeneration {
		t.Errorf("session pair wrong: %+v", turns)
	}
}

func TestAsk_EmbeddingFailureForcesMiss(t *testing.T) {
	emb := &mockEmbedder{err: entity.ErrEmbeddingUnavailable}
	cache := &mockCache{entries: []entity.CacheEntry{{Embedding: []float32{1, 0}, AnswerText: "cached"}}}
	retr := &mockRetriever{chunks: []entity.RetrievedChunk{{Text: "ctx", SourceID: "doc"}}}
	prov := &mockProvider{answer: "fresh"}
	o := newTestOrchestrator(emb, cache, retr, prov)
	sess := newTestSession()

	ex, err := o.Ask(context.Background(), sess, "default", "question")
	if err != nil {
		t.Fatalf("ask must degrade, not fail: %v", err)
	}
	if ex.Cached || ex.Answer != "fresh" {
		t.Errorf("expected forced miss with fresh answer, got %+v", ex)
	}
	if cache.storeCalls != 0 {
		t.Error("nothing to cache without an embedding")
	}
}

func TestAsk_CacheUnavailableDegradesToMiss(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1, 0}}
	cache := &mockCache{lookupErr: entity.ErrCacheUnavailable}
	retr := &mockRetriever{chunks: []entity.RetrievedChunk{{Text: "ctx", SourceID: "doc"}}}
	prov := &mockProvider{answer: "fresh"}
	o := newTestOrchestrator(emb, cache, retr, prov)
	sess := newTestSession()

	ex, err := o.Ask(context.Background(), sess, "default", "question")
	if err != nil {
		t.Fatalf("ask must degrade, not fail: %v", err)
	}
	if ex.Cached || ex.Answer != "fresh" {
		t.Errorf("expected miss path, got %+v", ex)
	}
}

func TestAsk_CacheStoreFailureIsSwallowed(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1, 0}}
	cache := &mockCache{storeErr: entity.ErrCacheUnavailable}
	retr := &mockRetriever{chunks: []entity.RetrievedChunk{{Text: "ctx", SourceID: "doc"}}}
	prov := &mockProvider{answer: "fresh"}
	o := newTestOrchestrator(emb, cache, retr, prov)
	sess := newTestSession()

	ex, err := o.Ask(context.Background(), sess, "default", "question")
	if err != nil {
		t.Fatalf("store failures must never surface: %v", err)
	}
	if ex.Answer != "fresh" {
		t.Errorf("answer = %q, want fresh", ex.Answer)
	}
}

func TestAsk_RetrievalFailureRecordsApology(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1, 0}}
	cache := &mockCache{}
	retr := &mockRetriever{err: errors.New("qdrant down")}
	prov := &mockProvider{answer: "never"}
	o := newTestOrchestrator(emb, cache, retr, prov)
	sess := newTestSession()

	ex, err := o.Ask(context.Background(), sess, "default", "question")
	if err != nil {
		t.Fatalf("ask must degrade, not fail: %v", err)
	}
	if ex.Answer != FallbackGeneration {
		t.Errorf("answer = %q, want apology", ex.Answer)
	}
	if prov.calls != 0 {
		t.Error("generation must not run without retrieval")
	}
}

func TestAsk_EmptyQuestionRejected(t *testing.T) {
	o := newTestOrchestrator(&mockEmbedder{vec: []float32{1}}, &mockCache{}, &mockRetriever{}, &mockProvider{})
	sess := newTestSession()

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := o.Ask(context.Background(), sess, "default", q)
		if !errors.Is(err, entity.ErrEmptyQuestion) {
			t.Errorf("question %q: expected ErrEmptyQuestion, got %v", q, err)
		}
	}
	if sess.History.Len() != 0 {
		t.Error("rejected questions must not touch the session")
	}
}

func TestAsk_DimensionMismatchPropagates(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1, 0}}
	cache := &mockCache{lookupErr: entity.ErrDimensionMismatch}
	o := newTestOrchestrator(emb, cache, &mockRetriever{}, &mockProvider{})
	sess := newTestSession()

	_, err := o.Ask(context.Background(), sess, "default", "question")
	if !errors.Is(err, entity.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch to propagate, got %v", err)
	}
	if sess.History.Len() != 0 {
		t.Error("misconfiguration failures must not record turns")
	}
}

func TestAsk_EveryExchangeAppendsOnePair(t *testing.T) {
	emb := &mockEmbedder{vec: []float32{1, 0}}
	cache := &mockCache{}
	retr := &mockRetriever{chunks: []entity.RetrievedChunk{{Text: "ctx", SourceID: "doc"}}}
	prov := &mockProvider{answer: "answer"}
	o := newTestOrchestrator(emb, cache, retr, prov)
	sess := newTestSession()

	for i := 0; i < 3; i++ {
		if _, err := o.Ask(context.Background(), sess, "default", "question"); err != nil {
			t.Fatalf("ask %d failed: %v", i, err)
		}
		if sess.History.Len() != 2*(i+1) {
			t.Fatalf("after %d asks, turns = %d", i+1, sess.History.Len())
		}
	}
}

func TestTruncate_RuneSafe(t *testing.T) {
	question := strings.Repeat("на", 40) // 80 runes, 160 bytes
	got := truncate(question, 50)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 50 {
		t.Errorf("rune count = %d, want 50", n)
	}
	if short := "short"; truncate(short, 50) != short {
		t.Error("strings under the limit must pass through unchanged")
	}
}
