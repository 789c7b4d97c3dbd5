package driven

import "context"

// VectorEntry is one child-chunk embedding written to the dense index.
type VectorEntry struct {
	// ChildID is the indexed child chunk.
	ChildID string

	// ParentID is the back-reference to the owning parent chunk.
	ParentID string

	// DocumentID is the owning document, used for replace-on-reingest.
	DocumentID string

	// Embedding is the dense vector.
	Embedding []float32
}

// VectorIndex provides dense similarity search over child chunks.
// Writes happen only during ingestion; reads are lock-free and may run
// fully in parallel across queries.
type VectorIndex interface {
	// Upsert inserts or replaces entries by child ID.
	Upsert(ctx context.Context, entries []VectorEntry) error

	// DeleteDocument removes every entry belonging to a document.
	DeleteDocument(ctx context.Context, documentID string) error

	// Search finds the k nearest child chunks to the query vector.
	// Results are ordered by similarity descending with a stable
	// tie-break on child ID.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}

// VectorHit is a dense similarity search result.
type VectorHit struct {
	// ChildID is the matched child chunk.
	ChildID string

	// ParentID is the owning parent chunk.
	ParentID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
