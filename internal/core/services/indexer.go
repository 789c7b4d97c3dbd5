package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/veridian-labs/anker/internal/core/domain"
	"github.com/veridian-labs/anker/internal/core/ports/driven"
	"github.com/veridian-labs/anker/internal/core/ports/driving"
	"github.com/veridian-labs/anker/internal/logger"
	"github.com/veridian-labs/anker/internal/splitter"
)

// Ensure IndexerService implements the interface.
var _ driving.IndexerService = (*IndexerService)(nil)

// IndexerService ingests documents: it splits pages into the parent and
// child chunk hierarchy, embeds children when an embedding service is
// configured, and writes all three indexes.
type IndexerService struct {
	parentStore      driven.ParentStore
	vectorIndex      driven.VectorIndex
	sparseIndex      driven.SparseIndex
	embeddingService driven.EmbeddingService
	split            *splitter.Splitter
	settings         domain.Settings

	// docLocks serializes ingestion per document ID so two concurrent
	// ingests of the same document cannot interleave their writes.
	mu       sync.Mutex
	docLocks map[string]*sync.Mutex
}

// NewIndexerService creates a new indexer.
// vectorIndex and embeddingService are optional (can be nil); without
// them ingestion only populates the parent store and the sparse index.
func NewIndexerService(
	parentStore driven.ParentStore,
	vectorIndex driven.VectorIndex,
	sparseIndex driven.SparseIndex,
	embeddingService driven.EmbeddingService,
	settings domain.Settings,
) *IndexerService {
	settings = settings.Normalise()
	return &IndexerService{
		parentStore:      parentStore,
		vectorIndex:      vectorIndex,
		sparseIndex:      sparseIndex,
		embeddingService: embeddingService,
		split: splitter.New(
			splitter.WithParentSize(settings.ParentChunkSize),
			splitter.WithParentOverlap(settings.ParentChunkOverlap),
			splitter.WithChildSize(settings.ChildChunkSize),
			splitter.WithChildOverlap(settings.ChildChunkOverlap),
		),
		settings: settings,
		docLocks: make(map[string]*sync.Mutex),
	}
}

func (s *IndexerService) docLock(documentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.docLocks[documentID]
	if !ok {
		lock = &sync.Mutex{}
		s.docLocks[documentID] = lock
	}
	return lock
}

// Ingest processes one document end to end. The parent store write is
// transactional per document: a query running concurrently sees either
// the prior version or the new one. Per-page parse failures are
// recorded as warnings and do not abort the run.
func (s *IndexerService) Ingest(
	ctx context.Context, documentID string, pages []domain.Page,
) (*domain.IndexStats, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return nil, fmt.Errorf("%w: empty document ID", domain.ErrInvalidInput)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: document has no pages", domain.ErrInvalidInput)
	}

	lock := s.docLock(documentID)
	lock.Lock()
	defer lock.Unlock()

	logger.Section("Ingestion")
	logger.Info("Ingesting %s: %d pages", documentID, len(pages))

	parents, children, warnings := s.split.Split(documentID, pages)
	if len(parents) == 0 {
		return nil, fmt.Errorf("%w: no parseable text in any page", domain.ErrIngestion)
	}
	logger.Debug("Chunked: %d parents, %d children", len(parents), len(children))

	stats := &domain.IndexStats{
		DocumentID:     documentID,
		PagesProcessed: len(pages) - len(warnings),
		PagesSkipped:   len(warnings),
		ParentChunks:   len(parents),
		ChildChunks:    len(children),
		Warnings:       warnings,
	}

	embedded := s.embedChildren(ctx, children, stats)

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:        documentID,
		Title:     documentID,
		PageCount: len(pages),
		CreatedAt: now,
		UpdatedAt: now,
	}

	replaced, err := s.parentStore.ReplaceDocument(ctx, doc, parents, children)
	if err != nil {
		return nil, fmt.Errorf("replace document %s: %w", documentID, err)
	}
	stats.Replaced = replaced

	if err := s.updateSparse(ctx, documentID, parents); err != nil {
		return nil, fmt.Errorf("sparse index %s: %w", documentID, err)
	}

	if embedded {
		if err := s.updateVector(ctx, documentID, parents, children); err != nil {
			// The parent store and sparse index already hold the new
			// version; losing the dense leg is a degradation, not a
			// failed ingest.
			logger.Warn("Vector index update failed: %v", err)
			stats.Warnings = append(stats.Warnings, fmt.Sprintf("dense index not updated: %v", err))
		}
	}

	logger.Info("Ingested %s: %d parents, %d children, replaced=%t",
		documentID, stats.ParentChunks, stats.ChildChunks, stats.Replaced)
	return stats, nil
}

// embedChildren fills in child embeddings in place. Returns false when
// the dense leg should be skipped for this run.
func (s *IndexerService) embedChildren(
	ctx context.Context, children []domain.ChildChunk, stats *domain.IndexStats,
) bool {
	if s.embeddingService == nil || s.vectorIndex == nil {
		logger.Debug("No embedding service, dense index skipped")
		return false
	}

	texts := make([]string, len(children))
	for i, c := range children {
		texts[i] = c.Text
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.settings.CapabilityTimeout)
	defer cancel()

	vectors, err := s.embeddingService.EmbedBatch(embedCtx, texts)
	if err != nil {
		logger.Warn("Embedding failed, dense index skipped: %v", err)
		stats.Warnings = append(stats.Warnings, fmt.Sprintf("embedding unavailable: %v", err))
		return false
	}
	if len(vectors) != len(children) {
		logger.Warn("Embedding count mismatch: %d texts, %d vectors", len(texts), len(vectors))
		stats.Warnings = append(stats.Warnings, "embedding count mismatch, dense index skipped")
		return false
	}

	for i := range children {
		children[i].Embedding = vectors[i]
	}
	return true
}

func (s *IndexerService) updateSparse(
	ctx context.Context, documentID string, parents []domain.ParentChunk,
) error {
	if err := s.sparseIndex.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete prior entries: %w", err)
	}
	for _, parent := range parents {
		if err := s.sparseIndex.Index(ctx, parent); err != nil {
			return fmt.Errorf("index parent %s: %w", parent.ID, err)
		}
	}
	return nil
}

func (s *IndexerService) updateVector(
	ctx context.Context, documentID string, parents []domain.ParentChunk, children []domain.ChildChunk,
) error {
	parentDoc := make(map[string]string, len(parents))
	for _, p := range parents {
		parentDoc[p.ID] = p.DocumentID
	}

	entries := make([]driven.VectorEntry, 0, len(children))
	for _, c := range children {
		entries = append(entries, driven.VectorEntry{
			ChildID:    c.ID,
			ParentID:   c.ParentID,
			DocumentID: parentDoc[c.ParentID],
			Embedding:  c.Embedding,
		})
	}

	if err := s.vectorIndex.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete prior entries: %w", err)
	}
	if err := s.vectorIndex.Upsert(ctx, entries); err != nil {
		return fmt.Errorf("upsert entries: %w", err)
	}
	return nil
}

// Delete removes a document from every index.
func (s *IndexerService) Delete(ctx context.Context, documentID string) error {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return fmt.Errorf("%w: empty document ID", domain.ErrInvalidInput)
	}

	lock := s.docLock(documentID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.parentStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	if err := s.sparseIndex.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete sparse entries %s: %w", documentID, err)
	}
	if s.vectorIndex != nil {
		if err := s.vectorIndex.DeleteDocument(ctx, documentID); err != nil {
			return fmt.Errorf("delete vector entries %s: %w", documentID, err)
		}
	}

	logger.Info("Deleted document %s", documentID)
	return nil
}

// Documents lists the currently ingested documents.
func (s *IndexerService) Documents(ctx context.Context) ([]domain.Document, error) {
	return s.parentStore.ListDocuments(ctx)
}
