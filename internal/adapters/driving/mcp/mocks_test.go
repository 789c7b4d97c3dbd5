package mcp

import (
	"context"

	"github.com/veridian-labs/anker/internal/core/domain"
)

// mockAssistantService is a mock implementation of driving.AssistantService.
type mockAssistantService struct {
	assembled *domain.AssembledContext
	snapshot  *domain.MemorySnapshot
	err       error

	recordedRole    string
	recordedContent string
}

func (m *mockAssistantService) RetrieveContext(
	_ context.Context,
	_, _, _ string,
) (*domain.AssembledContext, error) {
	return m.assembled, m.err
}

func (m *mockAssistantService) RecordTurn(
	_ context.Context,
	_, _, role, content string,
) error {
	if m.err != nil {
		return m.err
	}
	m.recordedRole = role
	m.recordedContent = content
	return nil
}

func (m *mockAssistantService) GetMemorySnapshot(
	_ context.Context,
	_, _ string,
) (*domain.MemorySnapshot, error) {
	return m.snapshot, m.err
}

// mockIndexerService is a mock implementation of driving.IndexerService.
type mockIndexerService struct {
	stats     *domain.IndexStats
	documents []domain.Document
	err       error
}

func (m *mockIndexerService) Ingest(
	_ context.Context,
	_ string,
	_ []domain.Page,
) (*domain.IndexStats, error) {
	return m.stats, m.err
}

func (m *mockIndexerService) Delete(_ context.Context, _ string) error {
	return m.err
}

func (m *mockIndexerService) Documents(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}
