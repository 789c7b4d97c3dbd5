package sqlite

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/anker/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "anker-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// sampleDocument builds a document with one parent and two children.
func sampleDocument(id string) (*domain.Document, []domain.ParentChunk, []domain.ChildChunk) {
	doc := &domain.Document{ID: id, Title: id, PageCount: 1}
	parents := []domain.ParentChunk{
		{ID: id + "-p1", DocumentID: id, Text: "parent text for " + id, Page: 1, Offset: 0, Position: 0},
	}
	children := []domain.ChildChunk{
		{ID: id + "-c1", ParentID: id + "-p1", Text: "parent text", Offset: 0, Embedding: []float32{0.1, 0.2}},
		{ID: id + "-c2", ParentID: id + "-p1", Text: "for " + id, Offset: 12},
	}
	return doc, parents, children
}

func TestReplaceDocumentRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	ps := store.ParentStore()

	doc, parents, children := sampleDocument("doc-a")
	replaced, err := ps.ReplaceDocument(ctx, doc, parents, children)
	require.NoError(t, err)
	assert.False(t, replaced)

	got, err := ps.GetDocument(ctx, "doc-a")
	require.NoError(t, err)
	assert.Equal(t, "doc-a", got.ID)
	assert.Equal(t, 1, got.PageCount)
	assert.False(t, got.UpdatedAt.IsZero())

	gotParents, err := ps.ListParents(ctx, "doc-a")
	require.NoError(t, err)
	require.Len(t, gotParents, 1)
	assert.Equal(t, parents[0].Text, gotParents[0].Text)

	gotChildren, err := ps.ListChildren(ctx, "doc-a-p1")
	require.NoError(t, err)
	require.Len(t, gotChildren, 2)
	assert.Equal(t, []float32{0.1, 0.2}, gotChildren[0].Embedding)
	assert.Nil(t, gotChildren[1].Embedding)

	gotParent, err := ps.GetParent(ctx, "doc-a-p1")
	require.NoError(t, err)
	assert.Equal(t, "doc-a", gotParent.DocumentID)
}

func TestReplaceDocumentReplacesPriorChunks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	ps := store.ParentStore()

	doc, parents, children := sampleDocument("doc-a")
	_, err := ps.ReplaceDocument(ctx, doc, parents, children)
	require.NoError(t, err)

	doc2 := &domain.Document{ID: "doc-a", Title: "doc-a", PageCount: 2}
	newParents := []domain.ParentChunk{
		{ID: "doc-a-p2", DocumentID: "doc-a", Text: "second version", Page: 1, Position: 0},
	}
	replaced, err := ps.ReplaceDocument(ctx, doc2, newParents, nil)
	require.NoError(t, err)
	assert.True(t, replaced)

	// Old chunks are gone.
	_, err = ps.GetParent(ctx, "doc-a-p1")
	require.ErrorIs(t, err, domain.ErrNotFound)

	gotParents, err := ps.ListParents(ctx, "doc-a")
	require.NoError(t, err)
	require.Len(t, gotParents, 1)
	assert.Equal(t, "second version", gotParents[0].Text)
}

func TestDeleteDocumentCascades(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	ps := store.ParentStore()

	doc, parents, children := sampleDocument("doc-a")
	_, err := ps.ReplaceDocument(ctx, doc, parents, children)
	require.NoError(t, err)

	require.NoError(t, ps.DeleteDocument(ctx, "doc-a"))

	_, err = ps.GetDocument(ctx, "doc-a")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = ps.GetParent(ctx, "doc-a-p1")
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = ps.DeleteDocument(ctx, "doc-a")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListDocuments(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	ps := store.ParentStore()

	for _, id := range []string{"doc-b", "doc-a"} {
		doc, parents, children := sampleDocument(id)
		_, err := ps.ReplaceDocument(ctx, doc, parents, children)
		require.NoError(t, err)
	}

	docs, err := ps.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "doc-a", docs[0].ID)
	assert.Equal(t, "doc-b", docs[1].ID)
}

func TestMessagesAppendAndWindow(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	ms := store.MemoryStore()

	for i, content := range []string{"one", "two", "three", "four"} {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		msg, err := ms.AppendMessage(ctx, "s1", role, content)
		require.NoError(t, err)
		assert.Equal(t, i+1, msg.Seq)
	}

	count, err := ms.CountMessages(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	all, err := ms.Messages(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "one", all[0].Content)

	// Most recent two, still oldest first.
	recent, err := ms.Messages(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "three", recent[0].Content)
	assert.Equal(t, "four", recent[1].Content)

	// Sessions are isolated.
	other, err := ms.Messages(ctx, "s2", 0)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestTrimMessages(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	ms := store.MemoryStore()

	for _, content := range []string{"one", "two", "three", "four", "five"} {
		_, err := ms.AppendMessage(ctx, "s1", "user", content)
		require.NoError(t, err)
	}

	require.NoError(t, ms.TrimMessages(ctx, "s1", 2))

	msgs, err := ms.Messages(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "four", msgs[0].Content)
	assert.Equal(t, "five", msgs[1].Content)

	// Sequence numbering keeps growing past the trim.
	msg, err := ms.AppendMessage(ctx, "s1", "user", "six")
	require.NoError(t, err)
	assert.Equal(t, 6, msg.Seq)
}

func TestMemoryRecordUpsert(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	ms := store.MemoryStore()

	rec := domain.MemoryRecord{
		UserID:    "u1",
		Namespace: domain.NamespaceProfile,
		Key:       "risk_appetite",
		Value:     "aggressive",
	}
	require.NoError(t, ms.PutRecord(ctx, rec))

	rec.Value = "conservative"
	require.NoError(t, ms.PutRecord(ctx, rec))

	got, err := ms.GetRecord(ctx, "u1", domain.NamespaceProfile, "", "risk_appetite")
	require.NoError(t, err)
	assert.Equal(t, "conservative", got.Value)
	assert.False(t, got.UpdatedAt.IsZero())

	_, err = ms.GetRecord(ctx, "u1", domain.NamespaceProfile, "", "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryRecordSessionScoping(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	ms := store.MemoryStore()

	// Summaries for two sessions of the same user coexist.
	for _, sessionID := range []string{"s1", "s2"} {
		require.NoError(t, ms.PutRecord(ctx, domain.MemoryRecord{
			UserID:    "u1",
			Namespace: domain.NamespaceSummary,
			SessionID: sessionID,
			Key:       domain.SummaryKey,
			Value:     "summary for " + sessionID,
		}))
	}

	got, err := ms.GetRecord(ctx, "u1", domain.NamespaceSummary, "s2", domain.SummaryKey)
	require.NoError(t, err)
	assert.Equal(t, "summary for s2", got.Value)
}

func TestListRecordsScope(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	ms := store.MemoryStore()

	require.NoError(t, ms.PutRecord(ctx, domain.MemoryRecord{
		UserID: "u1", Namespace: domain.NamespaceKnowledge, Key: "b", Value: "fact b",
	}))
	require.NoError(t, ms.PutRecord(ctx, domain.MemoryRecord{
		UserID: "u1", Namespace: domain.NamespaceKnowledge, Key: "a", Value: "fact a",
	}))
	require.NoError(t, ms.PutRecord(ctx, domain.MemoryRecord{
		UserID: "u2", Namespace: domain.NamespaceKnowledge, Key: "c", Value: "other user",
	}))

	records, err := ms.ListRecords(ctx, "u1", domain.NamespaceKnowledge)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].Key)
	assert.Equal(t, "b", records[1].Key)
}
