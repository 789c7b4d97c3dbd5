package services

import (
	"context"
	"sort"

	"github.com/veridian-labs/anker/internal/core/domain"
	"github.com/veridian-labs/anker/internal/core/ports/driven"
	"github.com/veridian-labs/anker/internal/logger"
)

// RerankerService narrows the fused candidate pool to the final context
// set using a finer-grained pairwise relevance model.
type RerankerService struct {
	rerankService driven.RerankService
	settings      domain.Settings
}

// NewRerankerService creates a new reranker.
// rerankService is optional (can be nil); without it the pass keeps the
// fusion order and reports the degradation.
func NewRerankerService(rerankService driven.RerankService, settings domain.Settings) *RerankerService {
	return &RerankerService{
		rerankService: rerankService,
		settings:      settings.Normalise(),
	}
}

// Rerank scores each candidate against the query and returns the topN
// best, or the first topN in unchanged order when the scoring
// capability is missing or fails. The second return reports whether the
// pass degraded. Never returns an error to the caller: a broken
// reranker is a ranking-quality problem, not an answer-path problem.
func (s *RerankerService) Rerank(
	ctx context.Context, query string, candidates []domain.RetrievalCandidate, topN int,
) ([]domain.RetrievalCandidate, bool) {
	logger.Section("Reranking")

	if topN <= 0 {
		topN = s.settings.RerankTopN
	}

	if len(candidates) == 0 {
		return []domain.RetrievalCandidate{}, false
	}

	if s.rerankService == nil {
		logger.Warn("%v: no scoring service configured, keeping fusion order", domain.ErrRerankUnavailable)
		return truncate(candidates, topN), true
	}

	logger.Debug("Scoring %d candidates, keeping %d", len(candidates), topN)

	reranked := make([]domain.RetrievalCandidate, len(candidates))
	copy(reranked, candidates)

	for i := range reranked {
		scoreCtx, cancel := context.WithTimeout(ctx, s.settings.CapabilityTimeout)
		score, err := s.rerankService.Score(scoreCtx, query, reranked[i].Text)
		cancel()
		if err != nil {
			// One failed pair means partial scores; mixing scored and
			// unscored candidates would corrupt the order, so the whole
			// pass degrades to fusion order.
			logger.Warn("%v: scoring failed: %v", domain.ErrRerankUnavailable, err)
			return truncate(candidates, topN), true
		}
		reranked[i].Score = score
	}

	// Stable sort so equal rerank scores keep the fusion order.
	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})

	logger.Info("Reranked %d candidates", len(reranked))
	return truncate(reranked, topN), false
}

func truncate(candidates []domain.RetrievalCandidate, n int) []domain.RetrievalCandidate {
	if len(candidates) <= n {
		return candidates
	}
	return candidates[:n]
}
