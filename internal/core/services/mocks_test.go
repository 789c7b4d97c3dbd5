package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/veridian-labs/anker/internal/core/domain"
	"github.com/veridian-labs/anker/internal/core/ports/driven"
)

// --- Mock implementations shared across service tests ---

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	mu        sync.Mutex
	entries   []driven.VectorEntry
	hits      []driven.VectorHit
	searchErr error
	upsertErr error
	deleteErr error
}

func (m *mockVectorIndex) Upsert(_ context.Context, entries []driven.VectorEntry) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *mockVectorIndex) DeleteDocument(_ context.Context, documentID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.DocumentID != documentID {
			kept = append(kept, e)
		}
	}
	m.entries = kept
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

func (m *mockVectorIndex) Close() error {
	return nil
}

// mockSparseIndex implements driven.SparseIndex for testing.
type mockSparseIndex struct {
	mu        sync.Mutex
	indexed   []domain.ParentChunk
	hits      []driven.SparseHit
	searchErr error
	indexErr  error
	deleteErr error
}

func (m *mockSparseIndex) Index(_ context.Context, parent domain.ParentChunk) error {
	if m.indexErr != nil {
		return m.indexErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexed = append(m.indexed, parent)
	return nil
}

func (m *mockSparseIndex) DeleteDocument(_ context.Context, documentID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.indexed[:0]
	for _, p := range m.indexed {
		if p.DocumentID != documentID {
			kept = append(kept, p)
		}
	}
	m.indexed = kept
	return nil
}

func (m *mockSparseIndex) Search(_ context.Context, _ string, limit int) ([]driven.SparseHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if limit > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:limit], nil
}

func (m *mockSparseIndex) Close() error {
	return nil
}

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	embedding []float32
	embedErr  error
	dims      int
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.embedding, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = m.embedding
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return len(m.embedding)
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embedder"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return m.embedErr
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockRerankService implements driven.RerankService for testing.
// Scores are keyed by a substring of the candidate text so each pair
// is scored independently of the rest of the pool.
type mockRerankService struct {
	scores   map[string]float64
	scoreErr error
	// failAfter fails the Nth call onwards when > 0.
	failAfter int
	calls     int
}

func (m *mockRerankService) Score(_ context.Context, _, candidateText string) (float64, error) {
	m.calls++
	if m.scoreErr != nil {
		return 0, m.scoreErr
	}
	if m.failAfter > 0 && m.calls > m.failAfter {
		return 0, errors.New("rerank backend down")
	}
	for key, score := range m.scores {
		if strings.Contains(candidateText, key) {
			return score, nil
		}
	}
	return 0, nil
}

func (m *mockRerankService) ModelName() string {
	return "mock-reranker"
}

func (m *mockRerankService) Ping(_ context.Context) error {
	return m.scoreErr
}

func (m *mockRerankService) Close() error {
	return nil
}

// mockSummarizerService implements driven.SummarizerService for testing.
type mockSummarizerService struct {
	mu      sync.Mutex
	summary string
	err     error
	calls   int
	folded  []domain.Message
	prior   string
}

func (m *mockSummarizerService) Summarize(
	_ context.Context, messages []domain.Message, currentSummary string,
) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.folded = messages
	m.prior = currentSummary
	if m.err != nil {
		return "", m.err
	}
	return m.summary, nil
}

func (m *mockSummarizerService) ModelName() string {
	return "mock-summarizer"
}

func (m *mockSummarizerService) Ping(_ context.Context) error {
	return m.err
}

func (m *mockSummarizerService) Close() error {
	return nil
}

// failingMemoryStore implements driven.MemoryStore and fails every call.
type failingMemoryStore struct{}

func (f *failingMemoryStore) AppendMessage(_ context.Context, _, _, _ string) (*domain.Message, error) {
	return nil, errors.New("store unreachable")
}

func (f *failingMemoryStore) Messages(_ context.Context, _ string, _ int) ([]domain.Message, error) {
	return nil, errors.New("store unreachable")
}

func (f *failingMemoryStore) CountMessages(_ context.Context, _ string) (int, error) {
	return 0, errors.New("store unreachable")
}

func (f *failingMemoryStore) TrimMessages(_ context.Context, _ string, _ int) error {
	return errors.New("store unreachable")
}

func (f *failingMemoryStore) PutRecord(_ context.Context, _ domain.MemoryRecord) error {
	return errors.New("store unreachable")
}

func (f *failingMemoryStore) GetRecord(_ context.Context, _, _, _, _ string) (*domain.MemoryRecord, error) {
	return nil, errors.New("store unreachable")
}

func (f *failingMemoryStore) ListRecords(_ context.Context, _, _ string) ([]domain.MemoryRecord, error) {
	return nil, errors.New("store unreachable")
}

func (f *failingMemoryStore) Close() error {
	return nil
}
