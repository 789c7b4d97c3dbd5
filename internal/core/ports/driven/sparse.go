package driven

import (
	"context"

	"github.com/veridian-labs/anker/internal/core/domain"
)

// SparseIndex provides keyword search over parent chunks.
// Scoring is a deterministic function of the query terms and the indexed
// term statistics; no external network dependency is involved.
type SparseIndex interface {
	// Index adds or updates a parent chunk's term statistics.
	Index(ctx context.Context, parent domain.ParentChunk) error

	// DeleteDocument removes every parent belonging to a document.
	DeleteDocument(ctx context.Context, documentID string) error

	// Search scores parents against the query and returns the top
	// matches ordered by score descending with a stable tie-break on
	// parent ID.
	Search(ctx context.Context, query string, limit int) ([]SparseHit, error)

	// Close releases resources.
	Close() error
}

// SparseHit is a keyword search result.
type SparseHit struct {
	// ParentID is the matched parent chunk.
	ParentID string

	// Score is the keyword relevance score (e.g. BM25).
	Score float64
}
