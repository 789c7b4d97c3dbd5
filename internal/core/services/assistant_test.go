package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/anker/internal/adapters/driven/storage/memory"
	"github.com/veridian-labs/anker/internal/core/domain"
	"github.com/veridian-labs/anker/internal/core/ports/driven"
)

// newAssistant wires the full pipeline over in-memory storage.
func newAssistant(
	parentStore driven.ParentStore,
	vector driven.VectorIndex,
	sparse driven.SparseIndex,
	embed driven.EmbeddingService,
	rerank driven.RerankService,
	memStore driven.MemoryStore,
	settings domain.Settings,
) *AssistantService {
	return NewAssistantService(
		NewRetrieverService(parentStore, vector, sparse, embed, settings),
		NewRerankerService(rerank, settings),
		NewAssemblerService(settings),
		NewMemoryService(memStore, nil, settings),
		settings,
	)
}

func TestRetrieveContextEndToEnd(t *testing.T) {
	store := seedParents(t,
		domain.ParentChunk{
			ID: "p1", DocumentID: "savings-guide", Page: 4, Position: 0,
			Text: "Tezaur bonds are government savings instruments for retail investors.",
		},
		domain.ParentChunk{
			ID: "p2", DocumentID: "savings-guide", Page: 9, Position: 1,
			Text: "Deposit accounts accrue interest monthly.",
		},
	)

	// The rare product name never embeds well; the keyword leg carries
	// the match.
	vector := &mockVectorIndex{hits: []driven.VectorHit{
		{ChildID: "c2", ParentID: "p2", Similarity: 0.4},
	}}
	sparse := &mockSparseIndex{hits: []driven.SparseHit{
		{ParentID: "p1", Score: 9.0},
	}}
	embed := &mockEmbeddingService{embedding: []float32{0.1}}
	rerank := &mockRerankService{scores: map[string]float64{
		"Tezaur": 0.95,
		"Deposit": 0.2,
	}}

	memStore := memory.NewMemoryStore()
	svc := newAssistant(store, vector, sparse, embed, rerank, memStore, domain.DefaultSettings())
	ctx := context.Background()

	require.NoError(t, svc.RecordTurn(ctx, "u1", "s1", "user", "tell me about savings"))

	result, err := svc.RetrieveContext(ctx, "u1", "s1", "what are Tezaur bonds")
	require.NoError(t, err)

	assert.False(t, result.Flags.Unavailable)
	assert.False(t, result.Flags.RerankDegraded)
	assert.False(t, result.Flags.MemoryUnavailable)

	// The keyword-only match ranks first after reranking.
	assert.Contains(t, result.Text, "[1] (Source: savings-guide, Page: 4)")
	assert.Contains(t, result.Text, "Tezaur bonds are government savings instruments")
	require.NotEmpty(t, result.Citations)
	assert.Equal(t, "p1", result.Citations[1].ParentID)

	// The recorded turn shows up in the context.
	assert.Contains(t, result.Text, "user: tell me about savings")
}

func TestRetrieveContextValidatesInput(t *testing.T) {
	svc := newAssistant(memory.NewParentStore(), nil, &mockSparseIndex{}, nil, nil,
		memory.NewMemoryStore(), domain.DefaultSettings())
	ctx := context.Background()

	_, err := svc.RetrieveContext(ctx, "", "s1", "query")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.RetrieveContext(ctx, "u1", "", "query")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.RetrieveContext(ctx, "u1", "s1", "   ")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieveContextDegradationsSurfaceAsFlags(t *testing.T) {
	// No rerank service, failing memory store, dense leg absent.
	store := seedParents(t,
		domain.ParentChunk{ID: "p1", DocumentID: "doc-a", Page: 1, Position: 0, Text: "keyword hit"},
	)
	sparse := &mockSparseIndex{hits: []driven.SparseHit{{ParentID: "p1", Score: 1.0}}}

	svc := newAssistant(store, nil, sparse, nil, nil, &failingMemoryStore{}, domain.DefaultSettings())

	result, err := svc.RetrieveContext(context.Background(), "u1", "s1", "keyword")
	require.NoError(t, err)

	assert.True(t, result.Flags.DenseUnavailable)
	assert.True(t, result.Flags.RerankDegraded)
	assert.True(t, result.Flags.MemoryUnavailable)
	assert.False(t, result.Flags.Unavailable)
	assert.Contains(t, result.Text, "keyword hit")
}

func TestRetrieveContextTotalOutageStillAnswers(t *testing.T) {
	vector := &mockVectorIndex{searchErr: errors.New("down")}
	sparse := &mockSparseIndex{searchErr: errors.New("down")}
	embed := &mockEmbeddingService{embedding: []float32{0.1}}

	svc := newAssistant(memory.NewParentStore(), vector, sparse, embed, nil,
		memory.NewMemoryStore(), domain.DefaultSettings())

	result, err := svc.RetrieveContext(context.Background(), "u1", "s1", "anything")
	require.NoError(t, err)
	assert.True(t, result.Flags.Unavailable)
	assert.Empty(t, result.Citations)
}

func TestRecordTurnAndSnapshot(t *testing.T) {
	svc := newAssistant(memory.NewParentStore(), nil, &mockSparseIndex{}, nil, nil,
		memory.NewMemoryStore(), domain.DefaultSettings())
	ctx := context.Background()

	require.NoError(t, svc.RecordTurn(ctx, "u1", "s1", "user", "hello"))
	require.NoError(t, svc.RecordTurn(ctx, "u1", "s1", "assistant", "hi there"))

	err := svc.RecordTurn(ctx, "u1", "s1", "narrator", "nope")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	snap, err := svc.GetMemorySnapshot(ctx, "u1", "s1")
	require.NoError(t, err)
	require.Len(t, snap.Recent, 2)
	assert.Equal(t, "hello", snap.Recent[0].Content)
	assert.Equal(t, "assistant", snap.Recent[1].Role)
}

func TestGetMemorySnapshotUnreachableStore(t *testing.T) {
	svc := newAssistant(memory.NewParentStore(), nil, &mockSparseIndex{}, nil, nil,
		&failingMemoryStore{}, domain.DefaultSettings())

	snap, err := svc.GetMemorySnapshot(context.Background(), "u1", "s1")
	require.NoError(t, err)
	assert.True(t, snap.Stateless)
}
