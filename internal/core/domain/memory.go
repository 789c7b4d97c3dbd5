package domain

import "time"

// Memory namespaces. Records are scoped by (userID, namespace); the
// summary namespace is further scoped by session.
const (
	NamespaceProfile   = "profile"
	NamespaceKnowledge = "knowledge"
	NamespaceSummary   = "summary"
)

// SummaryKey is the record key of the rolling conversation summary.
// Writing it fully supersedes the prior summary for the session.
const SummaryKey = "current_summary"

// Message is a single turn in a conversation thread.
type Message struct {
	// SessionID is the owning conversation thread.
	SessionID string

	// Seq is the append order within the session, assigned by the store.
	Seq int

	// Role is "user" or "assistant".
	Role string

	// Content is the message text.
	Content string

	// CreatedAt is when the turn was recorded.
	CreatedAt time.Time
}

// MemoryRecord is a small structured fact stored in a memory tier.
type MemoryRecord struct {
	// UserID scopes the record to a user.
	UserID string

	// Namespace is one of the Namespace constants.
	Namespace string

	// SessionID further scopes summary records; empty elsewhere.
	SessionID string

	// Key identifies the record within its namespace; writes upsert.
	Key string

	// Value is the fact content.
	Value string

	// UpdatedAt is when the record was last written.
	UpdatedAt time.Time
}

// MemorySnapshot is the per-turn view of all memory tiers, consumed by
// the context assembler alongside retrieval results.
type MemorySnapshot struct {
	// Summary is the current rolling summary for the session, empty if
	// none has been consolidated yet.
	Summary string

	// Recent holds the short-term window, oldest first. These are never
	// truncated by the assembler's budget policy.
	Recent []Message

	// Profile holds long-term user preference facts.
	Profile []MemoryRecord

	// Knowledge holds extracted domain facts, ranked by relevance to the
	// current query rather than chronologically.
	Knowledge []MemoryRecord

	// Stateless is set when the memory store was unreachable and every
	// tier degraded to empty.
	Stateless bool
}
