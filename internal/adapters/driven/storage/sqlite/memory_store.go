package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/veridian-labs/anker/internal/core/domain"
	"github.com/veridian-labs/anker/internal/core/ports/driven"
)

// memoryStore implements driven.MemoryStore.
type memoryStore struct {
	store *Store
}

var _ driven.MemoryStore = (*memoryStore)(nil)

// AppendMessage appends a turn to a session's thread with the next
// sequence number.
func (s *memoryStore) AppendMessage(
	ctx context.Context, sessionID, role, content string,
) (*domain.Message, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int
	row := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE session_id = ?", sessionID)
	if err := row.Scan(&seq); err != nil {
		return nil, fmt.Errorf("assigning sequence: %w", err)
	}

	msg := domain.Message{
		SessionID: sessionID,
		Seq:       seq,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (session_id, seq, role, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, msg.SessionID, msg.Seq, msg.Role, msg.Content, msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing message: %w", err)
	}
	return &msg, nil
}

// Messages returns a session's messages oldest first. A positive limit
// returns only the most recent limit messages.
func (s *memoryStore) Messages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	query := `
		SELECT session_id, seq, role, content, created_at
		FROM messages WHERE session_id = ? ORDER BY seq
	`
	args := []any{sessionID}
	if limit > 0 {
		// Most recent limit rows, re-ordered oldest first.
		query = `
			SELECT session_id, seq, role, content, created_at FROM (
				SELECT session_id, seq, role, content, created_at
				FROM messages WHERE session_id = ? ORDER BY seq DESC LIMIT ?
			) ORDER BY seq
		`
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.SessionID, &m.Seq, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// CountMessages returns the current thread length for a session.
func (s *memoryStore) CountMessages(ctx context.Context, sessionID string) (int, error) {
	var count int
	row := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM messages WHERE session_id = ?", sessionID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting messages: %w", err)
	}
	return count, nil
}

// TrimMessages drops all but the most recent keep messages of a session.
func (s *memoryStore) TrimMessages(ctx context.Context, sessionID string, keep int) error {
	if keep < 0 {
		keep = 0
	}
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM messages
		WHERE session_id = ? AND seq NOT IN (
			SELECT seq FROM messages WHERE session_id = ? ORDER BY seq DESC LIMIT ?
		)
	`, sessionID, sessionID, keep)
	if err != nil {
		return fmt.Errorf("trimming messages: %w", err)
	}
	return nil
}

// PutRecord upserts a memory record.
func (s *memoryStore) PutRecord(ctx context.Context, rec domain.MemoryRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO memory_records (user_id, namespace, session_id, key, value, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, namespace, session_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, rec.UserID, rec.Namespace, rec.SessionID, rec.Key, rec.Value, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving memory record: %w", err)
	}
	return nil
}

// GetRecord retrieves a single record.
func (s *memoryStore) GetRecord(
	ctx context.Context, userID, namespace, sessionID, key string,
) (*domain.MemoryRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT user_id, namespace, session_id, key, value, updated_at
		FROM memory_records
		WHERE user_id = ? AND namespace = ? AND session_id = ? AND key = ?
	`, userID, namespace, sessionID, key)

	var rec domain.MemoryRecord
	if err := row.Scan(
		&rec.UserID, &rec.Namespace, &rec.SessionID, &rec.Key, &rec.Value, &rec.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning memory record: %w", err)
	}
	return &rec, nil
}

// ListRecords returns all records in a (userID, namespace) scope ordered
// by key.
func (s *memoryStore) ListRecords(ctx context.Context, userID, namespace string) ([]domain.MemoryRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT user_id, namespace, session_id, key, value, updated_at
		FROM memory_records
		WHERE user_id = ? AND namespace = ? ORDER BY key
	`, userID, namespace)
	if err != nil {
		return nil, fmt.Errorf("listing memory records: %w", err)
	}
	defer rows.Close()

	var records []domain.MemoryRecord
	for rows.Next() {
		var rec domain.MemoryRecord
		if err := rows.Scan(
			&rec.UserID, &rec.Namespace, &rec.SessionID, &rec.Key, &rec.Value, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning memory record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close is a no-op; the unified store owns the connection.
func (s *memoryStore) Close() error {
	return nil
}
