package driving

import (
	"context"

	"github.com/veridian-labs/anker/internal/core/domain"
)

// AssistantService is the entire surface the external decision-making
// agent needs. The orchestrator decides WHEN to call these operations;
// this core only defines WHAT they do.
type AssistantService interface {
	// RetrieveContext runs the full retrieval pipeline for a query -
	// hybrid retrieval, reranking, memory snapshot, assembly - and
	// returns one bounded context artifact with citation metadata.
	// Degradations are reported through the result flags; the call only
	// errors on invalid input.
	RetrieveContext(ctx context.Context, userID, sessionID, query string) (*domain.AssembledContext, error)

	// RecordTurn appends a conversation turn to the session thread and
	// triggers consolidation when the short-term window crosses the
	// threshold. The triggering turn is never blocked by consolidation.
	RecordTurn(ctx context.Context, userID, sessionID, role, text string) error

	// GetMemorySnapshot returns the current view of all memory tiers for
	// a user and session. An unreachable memory store yields a stateless
	// snapshot, never an error.
	GetMemorySnapshot(ctx context.Context, userID, sessionID string) (*domain.MemorySnapshot, error)
}
