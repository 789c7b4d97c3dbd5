package driven

import (
	"context"

	"github.com/veridian-labs/anker/internal/core/domain"
)

// ParentStore persists documents and their chunk hierarchy.
// It is the parent lookup store of the pipeline: the retriever resolves
// child hits to parent text through it, and the indexer replaces a
// document's chunks atomically on re-ingestion.
type ParentStore interface {
	// ReplaceDocument atomically replaces a document and all its chunks.
	// Prior chunks for the same document ID are deleted in the same
	// transaction, so concurrent readers see either the old version or
	// the new one, never a mix. Returns whether a prior version existed.
	ReplaceDocument(
		ctx context.Context,
		doc *domain.Document,
		parents []domain.ParentChunk,
		children []domain.ChildChunk,
	) (replaced bool, err error)

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all ingested documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// GetParent retrieves a parent chunk by ID.
	GetParent(ctx context.Context, id string) (*domain.ParentChunk, error)

	// ListParents returns all parent chunks for a document, in position
	// order.
	ListParents(ctx context.Context, documentID string) ([]domain.ParentChunk, error)

	// ListChildren returns all child chunks for a parent, in offset
	// order.
	ListChildren(ctx context.Context, parentID string) ([]domain.ChildChunk, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}
