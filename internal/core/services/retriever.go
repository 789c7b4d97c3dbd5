package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/veridian-labs/anker/internal/core/domain"
	"github.com/veridian-labs/anker/internal/core/ports/driven"
	"github.com/veridian-labs/anker/internal/logger"
)

// legHit holds intermediate leg results before fusion.
type legHit struct {
	parentID string
	score    float64
}

// RetrieverService runs the hybrid retrieval stage: a dense leg over
// child chunks and a sparse leg over parent text, fused into one ranked
// candidate pool.
type RetrieverService struct {
	parentStore      driven.ParentStore
	vectorIndex      driven.VectorIndex
	sparseIndex      driven.SparseIndex
	embeddingService driven.EmbeddingService
	settings         domain.Settings
}

// NewRetrieverService creates a new retriever.
// vectorIndex and embeddingService are optional (can be nil); without
// them the dense leg is disabled and every result carries the
// degradation flag.
func NewRetrieverService(
	parentStore driven.ParentStore,
	vectorIndex driven.VectorIndex,
	sparseIndex driven.SparseIndex,
	embeddingService driven.EmbeddingService,
	settings domain.Settings,
) *RetrieverService {
	return &RetrieverService{
		parentStore:      parentStore,
		vectorIndex:      vectorIndex,
		sparseIndex:      sparseIndex,
		embeddingService: embeddingService,
		settings:         settings.Normalise(),
	}
}

// Retrieve runs both legs for the query and returns at most poolSize
// fused candidates plus the degradation flags hit on the way. A leg
// failure never fails the call: one leg down means the other carries
// the ranking alone, both down means an empty pool with the Unavailable
// flag set.
func (s *RetrieverService) Retrieve(
	ctx context.Context, query string, poolSize int,
) ([]domain.RetrievalCandidate, domain.RetrievalFlags, error) {
	logger.Section("Hybrid Retrieval")

	var flags domain.RetrievalFlags

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, flags, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if poolSize <= 0 {
		poolSize = s.settings.PoolSize
	}
	logger.Debug("Query: %q, pool size: %d", query, poolSize)

	// Each leg fetches more than the pool so fusion has real overlap to
	// work with.
	legLimit := poolSize * 3

	var denseHits, sparseHits []legHit
	var denseErr, sparseErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		denseHits, denseErr = s.denseLeg(ctx, query, legLimit)
	}()

	go func() {
		defer wg.Done()
		sparseHits, sparseErr = s.sparseLeg(ctx, query, legLimit)
	}()

	wg.Wait()

	if denseErr != nil {
		logger.Warn("Dense leg unavailable: %v", denseErr)
		flags.DenseUnavailable = true
	}
	if sparseErr != nil {
		logger.Warn("Sparse leg unavailable: %v", sparseErr)
		flags.SparseUnavailable = true
	}
	if denseErr != nil && sparseErr != nil {
		logger.Warn("%v: both legs down, returning empty pool", domain.ErrRetrievalUnavailable)
		flags.Unavailable = true
		return []domain.RetrievalCandidate{}, flags, nil
	}

	logger.Debug("Leg hits: dense=%d, sparse=%d", len(denseHits), len(sparseHits))

	fused := s.fuse(denseHits, sparseHits)

	candidates, err := s.hydrate(ctx, fused)
	if err != nil {
		return nil, flags, fmt.Errorf("hydrate candidates: %w", err)
	}

	sortCandidates(candidates)
	if len(candidates) > poolSize {
		candidates = candidates[:poolSize]
	}

	logger.Info("Retrieval pool: %d candidates", len(candidates))
	return candidates, flags, nil
}

// denseLeg embeds the query, searches child vectors, and keeps the best
// child similarity per parent.
func (s *RetrieverService) denseLeg(ctx context.Context, query string, limit int) ([]legHit, error) {
	if s.vectorIndex == nil || s.embeddingService == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.settings.CapabilityTimeout)
	defer cancel()

	embedding, err := s.embeddingService.Embed(embedCtx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	logger.Debug("Query embedding: %d dimensions", len(embedding))

	hits, err := s.vectorIndex.Search(ctx, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	// Child hits collapse onto parents; a parent is only as relevant as
	// its best child.
	best := make(map[string]float64)
	order := make([]string, 0, len(hits))
	for _, hit := range hits {
		if prev, ok := best[hit.ParentID]; !ok {
			best[hit.ParentID] = hit.Similarity
			order = append(order, hit.ParentID)
		} else if hit.Similarity > prev {
			best[hit.ParentID] = hit.Similarity
		}
	}

	results := make([]legHit, 0, len(order))
	for _, parentID := range order {
		results = append(results, legHit{parentID: parentID, score: best[parentID]})
	}
	return results, nil
}

// sparseLeg scores parent text against the query terms.
func (s *RetrieverService) sparseLeg(ctx context.Context, query string, limit int) ([]legHit, error) {
	if s.sparseIndex == nil {
		return nil, errors.New("sparse index unavailable")
	}

	hits, err := s.sparseIndex.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("sparse search: %w", err)
	}

	results := make([]legHit, 0, len(hits))
	for _, hit := range hits {
		results = append(results, legHit{parentID: hit.ParentID, score: hit.Score})
	}
	return results, nil
}

// fuse min-max normalizes each leg to [0,1] and combines them with the
// configured weights, deduplicating by parent.
func (s *RetrieverService) fuse(dense, sparse []legHit) map[string]domain.SourceSignals {
	denseNorm := normalizeScores(dense)
	sparseNorm := normalizeScores(sparse)

	signals := make(map[string]domain.SourceSignals)
	for parentID, score := range denseNorm {
		sig := signals[parentID]
		sig.Dense = score
		signals[parentID] = sig
	}
	for parentID, score := range sparseNorm {
		sig := signals[parentID]
		sig.Sparse = score
		signals[parentID] = sig
	}
	return signals
}

// fusedScore combines normalized leg signals under the configured
// weights.
func (s *RetrieverService) fusedScore(sig domain.SourceSignals) float64 {
	return s.settings.DenseWeight*sig.Dense + s.settings.SparseWeight*sig.Sparse
}

// normalizeScores min-max scales a leg's scores into [0,1]. A leg whose
// scores are all equal maps everything to 1, so a single-hit leg still
// contributes.
func normalizeScores(hits []legHit) map[string]float64 {
	if len(hits) == 0 {
		return nil
	}

	minScore, maxScore := hits[0].score, hits[0].score
	for _, h := range hits[1:] {
		if h.score < minScore {
			minScore = h.score
		}
		if h.score > maxScore {
			maxScore = h.score
		}
	}

	norm := make(map[string]float64, len(hits))
	span := maxScore - minScore
	for _, h := range hits {
		if span == 0 {
			norm[h.parentID] = 1
		} else {
			norm[h.parentID] = (h.score - minScore) / span
		}
	}
	return norm
}

// hydrate resolves fused parent IDs to full candidates with text and
// citation metadata.
func (s *RetrieverService) hydrate(
	ctx context.Context, signals map[string]domain.SourceSignals,
) ([]domain.RetrievalCandidate, error) {
	candidates := make([]domain.RetrievalCandidate, 0, len(signals))

	for parentID, sig := range signals {
		parent, err := s.parentStore.GetParent(ctx, parentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Index entry outlived its parent, likely a re-ingest
				// race. Skip it.
				logger.Debug("Stale index entry for parent %s, skipping", parentID)
				continue
			}
			return nil, fmt.Errorf("get parent %s: %w", parentID, err)
		}

		candidates = append(candidates, domain.RetrievalCandidate{
			ParentID:   parent.ID,
			DocumentID: parent.DocumentID,
			Position:   parent.Position,
			Text:       parent.Text,
			Page:       parent.Page,
			Score:      s.fusedScore(sig),
			Signals:    sig,
		})
	}

	return candidates, nil
}

// sortCandidates orders by fused score descending with a deterministic
// tie-break on (document ID, position).
func sortCandidates(candidates []domain.RetrievalCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		if candidates[i].DocumentID != candidates[j].DocumentID {
			return candidates[i].DocumentID < candidates[j].DocumentID
		}
		return candidates[i].Position < candidates[j].Position
	})
}
