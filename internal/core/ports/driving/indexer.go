package driving

import (
	"context"

	"github.com/veridian-labs/anker/internal/core/domain"
)

// IndexerService ingests documents into the retrieval indexes.
// This is the only input contract with upstream text extraction:
// whoever parses PDFs, DOCX or plain files hands over pages of raw
// text and a document identifier.
type IndexerService interface {
	// Ingest splits, embeds and indexes a document's pages. Ingestion of
	// one document is atomic: concurrent queries see either all of its
	// chunks or none. Re-ingesting an existing document ID replaces the
	// prior version. Unparseable pages are skipped with a warning in the
	// returned stats.
	Ingest(ctx context.Context, documentID string, pages []domain.Page) (*domain.IndexStats, error)

	// Delete removes a document and all its index entries.
	Delete(ctx context.Context, documentID string) error

	// Documents lists the currently ingested documents.
	Documents(ctx context.Context) ([]domain.Document, error)
}
