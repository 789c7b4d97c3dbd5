package domain

import "time"

// Document represents an ingested document with its ordered pages.
// It is the canonical representation after text extraction.
type Document struct {
	// ID is the external identifier supplied at ingestion.
	ID string

	// Title is the human-readable title, if known.
	Title string

	// PageCount is the number of pages ingested for this document.
	PageCount int

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last re-ingested.
	UpdatedAt time.Time
}

// Page is a single page of raw text handed to the indexer by the
// upstream text-extraction collaborator.
type Page struct {
	// Number is the 1-based page number within the document.
	Number int

	// Text is the raw page text. Empty text marks a page the extractor
	// could not parse; the indexer records a warning and moves on.
	Text string
}

// ParentChunk is a contiguous span of a document's text and the unit
// returned to the answering step. It owns zero or more child chunks.
type ParentChunk struct {
	// ID is the unique identifier for the parent chunk.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Text is the chunk content, sliced directly from the page text.
	Text string

	// Page is the page number the chunk starts on.
	Page int

	// Offset is the character offset of the chunk within its page.
	Offset int

	// Position is the ordinal position of the chunk within the document.
	// It is the stable secondary sort key for retrieval ties.
	Position int
}

// ChildChunk is a smaller span carved from exactly one parent chunk and
// the unit indexed for dense similarity search.
//
// Invariant: Text is always a literal substring of the parent's Text.
type ChildChunk struct {
	// ID is the unique identifier for the child chunk.
	ID string

	// ParentID links to the owning ParentChunk.
	ParentID string

	// Text is the child content, sliced directly from the parent text.
	Text string

	// Offset is the character offset of the child within the parent text.
	Offset int

	// Embedding is the dense vector representation, populated during
	// ingestion when an embedding service is available.
	Embedding []float32
}

// IndexStats summarises one ingestion run.
type IndexStats struct {
	// DocumentID is the document that was ingested.
	DocumentID string

	// PagesProcessed is the number of pages successfully chunked.
	PagesProcessed int

	// PagesSkipped is the number of unparseable pages skipped.
	PagesSkipped int

	// ParentChunks is the number of parent chunks written.
	ParentChunks int

	// ChildChunks is the number of child chunks written.
	ChildChunks int

	// Replaced reports whether a prior ingestion of the same document
	// was deleted before this one.
	Replaced bool

	// Warnings holds non-fatal per-page problems encountered.
	Warnings []string
}
