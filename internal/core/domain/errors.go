package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input: an empty
	// query, an empty document, a non-positive budget. This is the only
	// class rejected rather than degraded.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIngestion indicates a page or document failed to parse. Logged
	// and recorded as a warning; ingestion of siblings continues.
	ErrIngestion = errors.New("ingestion failed")

	// ErrRetrievalUnavailable indicates both retrieval legs were
	// unreachable. Surfaced as a flag, never raised to the end user.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrRerankUnavailable indicates the reranking capability is not
	// configured or unreachable. Ranking degrades to fusion order.
	ErrRerankUnavailable = errors.New("rerank unavailable")

	// ErrMemoryUnavailable indicates the memory store is unreachable.
	// All tiers degrade to a stateless single-turn snapshot.
	ErrMemoryUnavailable = errors.New("memory unavailable")

	// ErrSummarization indicates a consolidation attempt failed. The
	// prior summary is retained and retried at the next crossing.
	ErrSummarization = errors.New("summarization failed")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. The dense retrieval leg is disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
