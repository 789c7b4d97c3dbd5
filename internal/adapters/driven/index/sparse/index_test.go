package sparse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/anker/internal/core/domain"
)

func seed(t *testing.T, idx *Index, chunks ...domain.ParentChunk) {
	t.Helper()
	for _, c := range chunks {
		require.NoError(t, idx.Index(context.Background(), c))
	}
}

func TestSearchRanksRareTermsHigher(t *testing.T) {
	idx := New()
	seed(t, idx,
		domain.ParentChunk{ID: "p1", DocumentID: "d1", Text: "savings account interest rates and fees"},
		domain.ParentChunk{ID: "p2", DocumentID: "d1", Text: "Tezaur bonds are government savings instruments"},
		domain.ParentChunk{ID: "p3", DocumentID: "d2", Text: "credit card fees and interest"},
	)

	hits, err := idx.Search(context.Background(), "Tezaur bonds", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "p2", hits[0].ParentID)
	assert.Greater(t, hits[0].Score, 0.0)
}

func TestSearchTermFrequencyMatters(t *testing.T) {
	idx := New()
	seed(t, idx,
		domain.ParentChunk{ID: "p1", DocumentID: "d1", Text: "mortgage mortgage mortgage details and conditions"},
		domain.ParentChunk{ID: "p2", DocumentID: "d1", Text: "mortgage overview plus unrelated filler text"},
	)

	hits, err := idx.Search(context.Background(), "mortgage", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "p1", hits[0].ParentID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	idx := New()
	seed(t, idx,
		domain.ParentChunk{ID: "p1", DocumentID: "d1", Text: "The REPO rate was raised."},
	)

	hits, err := idx.Search(context.Background(), "repo Rate", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestSearchDeterministicAcrossRuns(t *testing.T) {
	idx := New()
	seed(t, idx,
		domain.ParentChunk{ID: "p-b", DocumentID: "d1", Text: "identical wording here"},
		domain.ParentChunk{ID: "p-a", DocumentID: "d1", Text: "identical wording here"},
	)

	for i := 0; i < 5; i++ {
		hits, err := idx.Search(context.Background(), "identical wording", 10)
		require.NoError(t, err)
		require.Len(t, hits, 2)
		// Equal statistics, equal scores, stable ID tie-break.
		assert.Equal(t, "p-a", hits[0].ParentID)
		assert.Equal(t, "p-b", hits[1].ParentID)
		assert.Equal(t, hits[0].Score, hits[1].Score)
	}
}

func TestReindexReplacesStatistics(t *testing.T) {
	idx := New()
	ctx := context.Background()

	seed(t, idx, domain.ParentChunk{ID: "p1", DocumentID: "d1", Text: "old content about deposits"})
	seed(t, idx, domain.ParentChunk{ID: "p1", DocumentID: "d1", Text: "new content about loans"})

	hits, err := idx.Search(ctx, "deposits", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = idx.Search(ctx, "loans", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestDeleteDocumentRemovesParents(t *testing.T) {
	idx := New()
	ctx := context.Background()

	seed(t, idx,
		domain.ParentChunk{ID: "p1", DocumentID: "d1", Text: "alpha beta"},
		domain.ParentChunk{ID: "p2", DocumentID: "d2", Text: "alpha gamma"},
	)

	require.NoError(t, idx.DeleteDocument(ctx, "d1"))

	hits, err := idx.Search(ctx, "alpha", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "p2", hits[0].ParentID)
}

func TestSearchEmptyQueryAndLimit(t *testing.T) {
	idx := New()
	seed(t, idx,
		domain.ParentChunk{ID: "p1", DocumentID: "d1", Text: "alpha beta gamma"},
		domain.ParentChunk{ID: "p2", DocumentID: "d1", Text: "alpha beta"},
		domain.ParentChunk{ID: "p3", DocumentID: "d1", Text: "alpha"},
	)

	hits, err := idx.Search(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = idx.Search(context.Background(), "alpha", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}
