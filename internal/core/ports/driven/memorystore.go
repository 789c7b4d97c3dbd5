package driven

import (
	"context"

	"github.com/veridian-labs/anker/internal/core/domain"
)

// MemoryStore persists the conversation memory tiers.
// Records are addressed by (userID, namespace[, sessionID], key) with
// upsert semantics; messages are an append-only list per session until
// consolidation trims them.
//
// Implementations signal unreachability through errors; the memory
// manager maps those to a stateless snapshot rather than failing the
// turn.
type MemoryStore interface {
	// AppendMessage appends a turn to a session's thread and returns the
	// stored message with its sequence number assigned.
	AppendMessage(ctx context.Context, sessionID, role, content string) (*domain.Message, error)

	// Messages returns a session's messages in append order. A positive
	// limit returns only the most recent limit messages (still oldest
	// first); limit <= 0 returns all.
	Messages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error)

	// CountMessages returns the current thread length for a session.
	CountMessages(ctx context.Context, sessionID string) (int, error)

	// TrimMessages drops all but the most recent keep messages of a
	// session.
	TrimMessages(ctx context.Context, sessionID string, keep int) error

	// PutRecord upserts a memory record: a write with an existing
	// (userID, namespace, sessionID, key) replaces the prior value.
	PutRecord(ctx context.Context, rec domain.MemoryRecord) error

	// GetRecord retrieves a single record, or domain.ErrNotFound.
	GetRecord(ctx context.Context, userID, namespace, sessionID, key string) (*domain.MemoryRecord, error)

	// ListRecords returns all records in a (userID, namespace) scope.
	ListRecords(ctx context.Context, userID, namespace string) ([]domain.MemoryRecord, error)

	// Close releases resources.
	Close() error
}
