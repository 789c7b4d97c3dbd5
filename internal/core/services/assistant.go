package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/veridian-labs/anker/internal/core/domain"
	"github.com/veridian-labs/anker/internal/core/ports/driving"
	"github.com/veridian-labs/anker/internal/logger"
)

// Ensure AssistantService implements the interface.
var _ driving.AssistantService = (*AssistantService)(nil)

// AssistantService is the pipeline facade: one call per turn runs
// retrieval, reranking, the memory snapshot and assembly, and returns
// the bounded context artifact the answering step consumes.
type AssistantService struct {
	retriever *RetrieverService
	reranker  *RerankerService
	assembler *AssemblerService
	memory    *MemoryService
	settings  domain.Settings
}

// NewAssistantService wires the pipeline stages together.
func NewAssistantService(
	retriever *RetrieverService,
	reranker *RerankerService,
	assembler *AssemblerService,
	memory *MemoryService,
	settings domain.Settings,
) *AssistantService {
	return &AssistantService{
		retriever: retriever,
		reranker:  reranker,
		assembler: assembler,
		memory:    memory,
		settings:  settings.Normalise(),
	}
}

// RetrieveContext runs the full per-turn pipeline. Capability outages
// surface as flags on the result; the only error path is invalid input.
func (s *AssistantService) RetrieveContext(
	ctx context.Context, userID, sessionID, query string,
) (*domain.AssembledContext, error) {
	if err := validateScope(userID, sessionID); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	snapshot := s.memory.Snapshot(ctx, userID, sessionID, query)

	pool, flags, err := s.retriever.Retrieve(ctx, query, s.settings.PoolSize)
	if err != nil {
		return nil, err
	}

	ranked, degraded := s.reranker.Rerank(ctx, query, pool, s.settings.RerankTopN)
	flags.RerankDegraded = degraded
	flags.MemoryUnavailable = snapshot.Stateless

	assembled := s.assembler.Assemble(snapshot, ranked, s.settings.ContextBudget)
	assembled.Flags = flags

	logger.Debug("Turn context ready: %d chars, flags=%+v", len(assembled.Text), flags)
	return assembled, nil
}

// RecordTurn appends a turn to the session thread. Consolidation, if
// triggered, happens after this call returns.
func (s *AssistantService) RecordTurn(ctx context.Context, userID, sessionID, role, text string) error {
	if err := validateScope(userID, sessionID); err != nil {
		return err
	}
	return s.memory.Record(ctx, userID, sessionID, role, text)
}

// GetMemorySnapshot returns the current view of all memory tiers.
func (s *AssistantService) GetMemorySnapshot(
	ctx context.Context, userID, sessionID string,
) (*domain.MemorySnapshot, error) {
	if err := validateScope(userID, sessionID); err != nil {
		return nil, err
	}
	return s.memory.Snapshot(ctx, userID, sessionID, ""), nil
}

func validateScope(userID, sessionID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: empty user ID", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: empty session ID", domain.ErrInvalidInput)
	}
	return nil
}
