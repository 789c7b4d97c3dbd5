package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/veridian-labs/anker/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/veridian-labs/anker/internal/core/domain"
	"github.com/veridian-labs/anker/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides the parent
// store and the memory store through wrapper types over one database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.anker/data/anker.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".anker", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "anker.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ParentStore returns a ParentStore interface backed by this store.
func (s *Store) ParentStore() driven.ParentStore {
	return &parentStore{store: s}
}

// MemoryStore returns a MemoryStore interface backed by this store.
func (s *Store) MemoryStore() driven.MemoryStore {
	return &memoryStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version,
		); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// float32SliceToBytes serializes an embedding as little-endian float32s.
func float32SliceToBytes(vec []float32) []byte {
	if vec == nil {
		return nil
	}
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// bytesToFloat32Slice deserializes a little-endian float32 embedding.
func bytesToFloat32Slice(buf []byte) []float32 {
	if len(buf) == 0 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

// ==================== Parent Store ====================

// parentStore implements driven.ParentStore.
type parentStore struct {
	store *Store
}

var _ driven.ParentStore = (*parentStore)(nil)

// ReplaceDocument atomically replaces a document and all its chunks.
func (s *parentStore) ReplaceDocument(
	ctx context.Context,
	doc *domain.Document,
	parents []domain.ParentChunk,
	children []domain.ChildChunk,
) (bool, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int
	row := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE id = ?", doc.ID)
	if err := row.Scan(&existing); err != nil {
		return false, fmt.Errorf("checking prior version: %w", err)
	}
	replaced := existing > 0

	if replaced {
		// Cascades to parent and child chunks.
		if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", doc.ID); err != nil {
			return false, fmt.Errorf("deleting prior version: %w", err)
		}
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, title, page_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, doc.ID, doc.Title, doc.PageCount, doc.CreatedAt, doc.UpdatedAt); err != nil {
		return false, fmt.Errorf("inserting document: %w", err)
	}

	for _, p := range parents {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO parent_chunks (id, document_id, content, page, start_offset, position)
			VALUES (?, ?, ?, ?, ?, ?)
		`, p.ID, p.DocumentID, p.Text, p.Page, p.Offset, p.Position); err != nil {
			return false, fmt.Errorf("inserting parent chunk: %w", err)
		}
	}

	for _, c := range children {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO child_chunks (id, parent_id, content, start_offset, embedding)
			VALUES (?, ?, ?, ?, ?)
		`, c.ID, c.ParentID, c.Text, c.Offset, float32SliceToBytes(c.Embedding)); err != nil {
			return false, fmt.Errorf("inserting child chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing document replace: %w", err)
	}
	return replaced, nil
}

// GetDocument retrieves a document by ID.
func (s *parentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, title, page_count, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)
	return scanDocument(row)
}

// ListDocuments returns all ingested documents ordered by ID.
func (s *parentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, title, page_count, created_at, updated_at
		FROM documents ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(
			&doc.ID, &doc.Title, &doc.PageCount, &doc.CreatedAt, &doc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// GetParent retrieves a parent chunk by ID.
func (s *parentStore) GetParent(ctx context.Context, id string) (*domain.ParentChunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, content, page, start_offset, position
		FROM parent_chunks WHERE id = ?
	`, id)

	var p domain.ParentChunk
	if err := row.Scan(&p.ID, &p.DocumentID, &p.Text, &p.Page, &p.Offset, &p.Position); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning parent chunk: %w", err)
	}
	return &p, nil
}

// ListParents returns a document's parent chunks in position order.
func (s *parentStore) ListParents(ctx context.Context, documentID string) ([]domain.ParentChunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, content, page, start_offset, position
		FROM parent_chunks WHERE document_id = ? ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("listing parent chunks: %w", err)
	}
	defer rows.Close()

	var parents []domain.ParentChunk
	for rows.Next() {
		var p domain.ParentChunk
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.Text, &p.Page, &p.Offset, &p.Position); err != nil {
			return nil, fmt.Errorf("scanning parent chunk: %w", err)
		}
		parents = append(parents, p)
	}
	return parents, rows.Err()
}

// ListChildren returns a parent's child chunks in offset order.
func (s *parentStore) ListChildren(ctx context.Context, parentID string) ([]domain.ChildChunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, parent_id, content, start_offset, embedding
		FROM child_chunks WHERE parent_id = ? ORDER BY start_offset
	`, parentID)
	if err != nil {
		return nil, fmt.Errorf("listing child chunks: %w", err)
	}
	defer rows.Close()

	var children []domain.ChildChunk
	for rows.Next() {
		var c domain.ChildChunk
		var embedding []byte
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Text, &c.Offset, &embedding); err != nil {
			return nil, fmt.Errorf("scanning child chunk: %w", err)
		}
		c.Embedding = bytesToFloat32Slice(embedding)
		children = append(children, c)
	}
	return children, rows.Err()
}

// DeleteDocument removes a document and its chunks.
func (s *parentStore) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Close is a no-op; the unified store owns the connection.
func (s *parentStore) Close() error {
	return nil
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	if err := row.Scan(
		&doc.ID, &doc.Title, &doc.PageCount, &doc.CreatedAt, &doc.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	return &doc, nil
}
