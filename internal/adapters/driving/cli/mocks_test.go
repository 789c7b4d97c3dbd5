package cli

import (
	"context"

	"github.com/veridian-labs/anker/internal/core/domain"
)

// mockAssistant is a mock implementation of driving.AssistantService.
type mockAssistant struct {
	assembled *domain.AssembledContext
	snapshot  *domain.MemorySnapshot
	err       error

	turns []string
}

func (m *mockAssistant) RetrieveContext(_ context.Context, _, _, _ string) (*domain.AssembledContext, error) {
	return m.assembled, m.err
}

func (m *mockAssistant) RecordTurn(_ context.Context, _, _, role, content string) error {
	if m.err != nil {
		return m.err
	}
	m.turns = append(m.turns, role+": "+content)
	return nil
}

func (m *mockAssistant) GetMemorySnapshot(_ context.Context, _, _ string) (*domain.MemorySnapshot, error) {
	return m.snapshot, m.err
}

// mockIndexer is a mock implementation of driving.IndexerService.
type mockIndexer struct {
	stats     *domain.IndexStats
	documents []domain.Document
	deleted   []string
	err       error
}

func (m *mockIndexer) Ingest(_ context.Context, documentID string, pages []domain.Page) (*domain.IndexStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.stats != nil {
		return m.stats, nil
	}
	return &domain.IndexStats{DocumentID: documentID, PagesProcessed: len(pages)}, nil
}

func (m *mockIndexer) Delete(_ context.Context, documentID string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, documentID)
	return nil
}

func (m *mockIndexer) Documents(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

// setupTestServices installs mock services and returns a cleanup that
// restores the previous wiring.
func setupTestServices(assistant *mockAssistant, indexer *mockIndexer) func() {
	prevAssistant := assistantService
	prevIndexer := indexerService
	if assistant != nil {
		assistantService = assistant
	}
	if indexer != nil {
		indexerService = indexer
	}
	return func() {
		assistantService = prevAssistant
		indexerService = prevIndexer
	}
}
