package dense

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/anker/internal/core/ports/driven"
)

func TestSearchRanksByCosineSimilarity(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []driven.VectorEntry{
		{ChildID: "c1", ParentID: "p1", DocumentID: "d1", Embedding: []float32{1, 0}},
		{ChildID: "c2", ParentID: "p2", DocumentID: "d1", Embedding: []float32{0, 1}},
		{ChildID: "c3", ParentID: "p3", DocumentID: "d1", Embedding: []float32{1, 1}},
	}))

	hits, err := idx.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "c1", hits[0].ChildID)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
	assert.Equal(t, "c3", hits[1].ChildID)
	assert.Equal(t, "c2", hits[2].ChildID)
	assert.InDelta(t, 0.0, hits[2].Similarity, 1e-9)
}

func TestSearchTieBreaksOnChildID(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []driven.VectorEntry{
		{ChildID: "c-b", ParentID: "p1", DocumentID: "d1", Embedding: []float32{1, 0}},
		{ChildID: "c-a", ParentID: "p2", DocumentID: "d1", Embedding: []float32{1, 0}},
	}))

	for i := 0; i < 5; i++ {
		hits, err := idx.Search(ctx, []float32{1, 0}, 2)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		assert.Equal(t, "c-a", hits[0].ChildID)
		assert.Equal(t, "c-b", hits[1].ChildID)
	}
}

func TestUpsertReplacesByChildID(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []driven.VectorEntry{
		{ChildID: "c1", ParentID: "p1", DocumentID: "d1", Embedding: []float32{1, 0}},
	}))
	require.NoError(t, idx.Upsert(ctx, []driven.VectorEntry{
		{ChildID: "c1", ParentID: "p1", DocumentID: "d1", Embedding: []float32{0, 1}},
	}))

	assert.Equal(t, 1, idx.Len())

	hits, err := idx.Search(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
}

func TestDeleteDocumentRemovesEntries(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []driven.VectorEntry{
		{ChildID: "c1", ParentID: "p1", DocumentID: "d1", Embedding: []float32{1, 0}},
		{ChildID: "c2", ParentID: "p2", DocumentID: "d2", Embedding: []float32{0, 1}},
	}))

	require.NoError(t, idx.DeleteDocument(ctx, "d1"))
	assert.Equal(t, 1, idx.Len())

	hits, err := idx.Search(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c2", hits[0].ChildID)
}

func TestDimensionMismatchRejected(t *testing.T) {
	idx := New()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []driven.VectorEntry{
		{ChildID: "c1", ParentID: "p1", DocumentID: "d1", Embedding: []float32{1, 0, 0}},
	}))

	err := idx.Upsert(ctx, []driven.VectorEntry{
		{ChildID: "c2", ParentID: "p2", DocumentID: "d1", Embedding: []float32{1, 0}},
	})
	require.Error(t, err)

	_, err = idx.Search(ctx, []float32{1, 0}, 1)
	require.Error(t, err)
}
