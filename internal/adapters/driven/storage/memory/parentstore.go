// Package memory provides in-memory implementations of the storage
// ports. Used for tests and as a zero-setup fallback when no database
// path is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/veridian-labs/anker/internal/core/domain"
	"github.com/veridian-labs/anker/internal/core/ports/driven"
)

// Ensure ParentStore implements the interface.
var _ driven.ParentStore = (*ParentStore)(nil)

// ParentStore is an in-memory document and chunk store.
type ParentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	parents   map[string]domain.ParentChunk
	children  map[string]domain.ChildChunk
}

// NewParentStore creates an empty in-memory parent store.
func NewParentStore() *ParentStore {
	return &ParentStore{
		documents: make(map[string]domain.Document),
		parents:   make(map[string]domain.ParentChunk),
		children:  make(map[string]domain.ChildChunk),
	}
}

// ReplaceDocument atomically replaces a document and all its chunks.
func (s *ParentStore) ReplaceDocument(
	_ context.Context,
	doc *domain.Document,
	parents []domain.ParentChunk,
	children []domain.ChildChunk,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, replaced := s.documents[doc.ID]
	if replaced {
		s.deleteDocumentLocked(doc.ID)
	}

	s.documents[doc.ID] = *doc
	for _, p := range parents {
		s.parents[p.ID] = p
	}
	for _, c := range children {
		s.children[c.ID] = c
	}
	return replaced, nil
}

func (s *ParentStore) deleteDocumentLocked(documentID string) {
	parentIDs := make(map[string]bool)
	for id, p := range s.parents {
		if p.DocumentID == documentID {
			parentIDs[id] = true
			delete(s.parents, id)
		}
	}
	for id, c := range s.children {
		if parentIDs[c.ParentID] {
			delete(s.children, id)
		}
	}
	delete(s.documents, documentID)
}

// GetDocument retrieves a document by ID.
func (s *ParentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns all documents sorted by ID.
func (s *ParentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.documents))
	for _, d := range s.documents {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// GetParent retrieves a parent chunk by ID.
func (s *ParentStore) GetParent(_ context.Context, id string) (*domain.ParentChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.parents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// ListParents returns a document's parents in position order.
func (s *ParentStore) ListParents(_ context.Context, documentID string) ([]domain.ParentChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var parents []domain.ParentChunk
	for _, p := range s.parents {
		if p.DocumentID == documentID {
			parents = append(parents, p)
		}
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i].Position < parents[j].Position })
	return parents, nil
}

// ListChildren returns a parent's children in offset order.
func (s *ParentStore) ListChildren(_ context.Context, parentID string) ([]domain.ChildChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var children []domain.ChildChunk
	for _, c := range s.children {
		if c.ParentID == parentID {
			children = append(children, c)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Offset < children[j].Offset })
	return children, nil
}

// DeleteDocument removes a document and its chunks.
func (s *ParentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	s.deleteDocumentLocked(id)
	return nil
}

// Close releases resources.
func (s *ParentStore) Close() error {
	return nil
}
