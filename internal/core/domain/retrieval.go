package domain

// RetrievalCandidate is a scored parent chunk produced by the hybrid
// retriever. Candidates are transient and never persisted.
type RetrievalCandidate struct {
	// ParentID is the matched parent chunk.
	ParentID string

	// DocumentID is the owning document, carried for stable tie-breaks
	// and citation tags.
	DocumentID string

	// Position is the parent's ordinal position within its document.
	Position int

	// Text is the parent chunk text.
	Text string

	// Page is the page the parent chunk starts on.
	Page int

	// Score is the fused relevance score, or the rerank score after the
	// rerank pass.
	Score float64

	// Signals records the per-leg contributions that produced Score.
	Signals SourceSignals
}

// SourceSignals holds the raw per-leg scores behind a fused candidate.
type SourceSignals struct {
	// Dense is the best child similarity observed for the parent, or 0
	// if the dense leg did not match it.
	Dense float64

	// Sparse is the keyword score of the parent text, or 0 if the
	// sparse leg did not match it.
	Sparse float64
}

// RetrievalFlags reports degradations encountered on the retrieval path.
// Every flag is recoverable; the answer path always completes.
type RetrievalFlags struct {
	// DenseUnavailable is set when the dense leg was unreachable and the
	// ranking fell back to the sparse leg.
	DenseUnavailable bool

	// SparseUnavailable is set when the sparse leg was unreachable and
	// the ranking fell back to the dense leg.
	SparseUnavailable bool

	// Unavailable is set when both legs were unreachable and the result
	// is empty.
	Unavailable bool

	// RerankDegraded is set when the reranking capability was
	// unreachable and the fusion order was kept.
	RerankDegraded bool

	// MemoryUnavailable is set when the memory store was unreachable and
	// the turn ran stateless.
	MemoryUnavailable bool
}

// Citation attributes a context block to its source location.
type Citation struct {
	// DocumentID is the cited document.
	DocumentID string

	// Page is the page the cited chunk starts on.
	Page int

	// ParentID is the cited parent chunk.
	ParentID string
}

// CitationMap maps context reference numbers (1-based, as they appear in
// the assembled context text) to their sources.
type CitationMap map[int]Citation

// AssembledContext is the bounded context payload handed to the external
// answer-generation step, one per turn.
type AssembledContext struct {
	// Text is the formatted context: memory snapshot first, then the
	// retained retrieval blocks.
	Text string

	// Citations maps reference numbers in Text to sources.
	Citations CitationMap

	// Dropped is the number of retrieval candidates dropped to fit the
	// budget.
	Dropped int

	// Flags carries the degradations hit while building this context.
	Flags RetrievalFlags
}
