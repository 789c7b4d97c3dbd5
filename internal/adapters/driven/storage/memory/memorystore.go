package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/veridian-labs/anker/internal/core/domain"
	"github.com/veridian-labs/anker/internal/core/ports/driven"
)

// Ensure MemoryStore implements the interface.
var _ driven.MemoryStore = (*MemoryStore)(nil)

// recordKey addresses a memory record.
type recordKey struct {
	userID    string
	namespace string
	sessionID string
	key       string
}

// MemoryStore is an in-memory conversation memory store.
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[string][]domain.Message
	seq      map[string]int
	records  map[recordKey]domain.MemoryRecord
}

// NewMemoryStore creates an empty in-memory memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages: make(map[string][]domain.Message),
		seq:      make(map[string]int),
		records:  make(map[recordKey]domain.MemoryRecord),
	}
}

// AppendMessage appends a turn to a session's thread.
func (s *MemoryStore) AppendMessage(
	_ context.Context, sessionID, role, content string,
) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq[sessionID]++
	msg := domain.Message{
		SessionID: sessionID,
		Seq:       s.seq[sessionID],
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	s.messages[sessionID] = append(s.messages[sessionID], msg)
	return &msg, nil
}

// Messages returns a session's messages oldest first.
func (s *MemoryStore) Messages(_ context.Context, sessionID string, limit int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.messages[sessionID]
	if limit > 0 && limit < len(msgs) {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// CountMessages returns the current thread length.
func (s *MemoryStore) CountMessages(_ context.Context, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages[sessionID]), nil
}

// TrimMessages drops all but the most recent keep messages.
func (s *MemoryStore) TrimMessages(_ context.Context, sessionID string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.messages[sessionID]
	if keep < 0 {
		keep = 0
	}
	if len(msgs) > keep {
		trimmed := make([]domain.Message, keep)
		copy(trimmed, msgs[len(msgs)-keep:])
		s.messages[sessionID] = trimmed
	}
	return nil
}

// PutRecord upserts a memory record.
func (s *MemoryStore) PutRecord(_ context.Context, rec domain.MemoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.UpdatedAt = time.Now().UTC()
	s.records[recordKey{rec.UserID, rec.Namespace, rec.SessionID, rec.Key}] = rec
	return nil
}

// GetRecord retrieves a single record.
func (s *MemoryStore) GetRecord(
	_ context.Context, userID, namespace, sessionID, key string,
) (*domain.MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[recordKey{userID, namespace, sessionID, key}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// ListRecords returns all records in a (userID, namespace) scope sorted
// by key.
func (s *MemoryStore) ListRecords(_ context.Context, userID, namespace string) ([]domain.MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.MemoryRecord
	for k, rec := range s.records {
		if k.userID == userID && k.namespace == namespace {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Close releases resources.
func (s *MemoryStore) Close() error {
	return nil
}
