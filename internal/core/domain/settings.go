package domain

import "time"

// Settings holds the tunable constants of the pipeline. The defaults are
// the values observed to work well in practice, not hard law; every one
// of them is overridable through the config store.
type Settings struct {
	// ParentChunkSize is the target parent chunk size in characters.
	ParentChunkSize int

	// ParentChunkOverlap is the overlap between neighbouring parents.
	ParentChunkOverlap int

	// ChildChunkSize is the target child chunk size in characters.
	ChildChunkSize int

	// ChildChunkOverlap is the overlap between neighbouring children.
	ChildChunkOverlap int

	// DenseWeight is the dense leg's share of the fused score.
	DenseWeight float64

	// SparseWeight is the sparse leg's share of the fused score.
	SparseWeight float64

	// RerankTopN is the final answer-context size after reranking.
	RerankTopN int

	// PoolSize is the candidate pool handed to the reranker. Kept larger
	// than RerankTopN so the reranker has a real selection problem.
	PoolSize int

	// ContextBudget is the character ceiling for assembled context.
	ContextBudget int

	// MessageThreshold is the short-term message count that triggers
	// consolidation.
	MessageThreshold int

	// RetainWindow is the number of recent messages kept after
	// consolidation trims the short-term window.
	RetainWindow int

	// CapabilityTimeout bounds every external capability call
	// (embedding, rerank scoring, summarization).
	CapabilityTimeout time.Duration
}

// DefaultSettings returns the observed default tuning.
func DefaultSettings() Settings {
	return Settings{
		ParentChunkSize:    2000,
		ParentChunkOverlap: 200,
		ChildChunkSize:     400,
		ChildChunkOverlap:  50,
		DenseWeight:        0.7,
		SparseWeight:       0.3,
		RerankTopN:         5,
		PoolSize:           10,
		ContextBudget:      12000,
		MessageThreshold:   100,
		RetainWindow:       20,
		CapabilityTimeout:  30 * time.Second,
	}
}

// Normalise fills zero values with defaults and repairs inconsistent
// combinations so a partially-populated Settings is always usable.
func (s Settings) Normalise() Settings {
	def := DefaultSettings()
	if s.ParentChunkSize <= 0 {
		s.ParentChunkSize = def.ParentChunkSize
	}
	if s.ParentChunkOverlap < 0 || s.ParentChunkOverlap >= s.ParentChunkSize {
		s.ParentChunkOverlap = s.ParentChunkSize / 10
	}
	if s.ChildChunkSize <= 0 || s.ChildChunkSize > s.ParentChunkSize {
		s.ChildChunkSize = def.ChildChunkSize
	}
	if s.ChildChunkOverlap < 0 || s.ChildChunkOverlap >= s.ChildChunkSize {
		s.ChildChunkOverlap = s.ChildChunkSize / 8
	}
	if s.DenseWeight <= 0 && s.SparseWeight <= 0 {
		s.DenseWeight = def.DenseWeight
		s.SparseWeight = def.SparseWeight
	}
	if s.RerankTopN <= 0 {
		s.RerankTopN = def.RerankTopN
	}
	if s.PoolSize < s.RerankTopN {
		s.PoolSize = s.RerankTopN * 2
	}
	if s.ContextBudget <= 0 {
		s.ContextBudget = def.ContextBudget
	}
	if s.MessageThreshold <= 0 {
		s.MessageThreshold = def.MessageThreshold
	}
	if s.RetainWindow <= 0 {
		s.RetainWindow = def.RetainWindow
	}
	if s.CapabilityTimeout <= 0 {
		s.CapabilityTimeout = def.CapabilityTimeout
	}
	return s
}
