package textfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/anker/internal/core/domain"
	"github.com/veridian-labs/anker/internal/core/ports/driving"
)

type mockIndexer struct {
	ingested  map[string][]domain.Page
	deleted   []string
	ingestErr error
}

var _ driving.IndexerService = (*mockIndexer)(nil)

func newMockIndexer() *mockIndexer {
	return &mockIndexer{ingested: make(map[string][]domain.Page)}
}

func (m *mockIndexer) Ingest(_ context.Context, documentID string, pages []domain.Page) (*domain.IndexStats, error) {
	if m.ingestErr != nil {
		return nil, m.ingestErr
	}
	m.ingested[documentID] = pages
	return &domain.IndexStats{
		DocumentID:     documentID,
		PagesProcessed: len(pages),
		ParentChunks:   len(pages),
		ChildChunks:    len(pages) * 2,
	}, nil
}

func (m *mockIndexer) Delete(_ context.Context, documentID string) error {
	m.deleted = append(m.deleted, documentID)
	return nil
}

func (m *mockIndexer) Documents(_ context.Context) ([]domain.Document, error) {
	return nil, nil
}

func TestSplitPages(t *testing.T) {
	t.Run("no form feed yields single page", func(t *testing.T) {
		pages := splitPages("just one page of text\n")

		require.Len(t, pages, 1)
		assert.Equal(t, 1, pages[0].Number)
		assert.Equal(t, "just one page of text", pages[0].Text)
	})

	t.Run("form feeds split into numbered pages", func(t *testing.T) {
		pages := splitPages("first page\n\fsecond page\n\fthird page")

		require.Len(t, pages, 3)
		assert.Equal(t, 1, pages[0].Number)
		assert.Equal(t, "first page", pages[0].Text)
		assert.Equal(t, 2, pages[1].Number)
		assert.Equal(t, "second page", pages[1].Text)
		assert.Equal(t, 3, pages[2].Number)
		assert.Equal(t, "third page", pages[2].Text)
	})

	t.Run("empty segment stays an empty page", func(t *testing.T) {
		pages := splitPages("first\n\f\freal third")

		require.Len(t, pages, 3)
		assert.Equal(t, "", pages[1].Text)
	})
}

func TestIsDocumentFile(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"notes.txt", true},
		{"guide.md", true},
		{"guide.markdown", true},
		{"GUIDE.MD", true},
		{"sub/dir/notes.txt", true},
		{"image.png", false},
		{"archive.zip", false},
		{"noext", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isDocumentFile(tt.path))
		})
	}
}

func TestIsHidden(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{".hidden", true},
		{"sub/.git/config", true},
		{".cache/data.txt", true},
		{"notes.txt", false},
		{"sub/dir/notes.txt", false},
		{".", false},
		{"..", false},
		{"file.hidden", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isHidden(tt.path))
		})
	}
}

func TestLoader_LoadAll(t *testing.T) {
	tempDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "bonds.txt"), []byte("Tezaur bonds text"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "guide.md"), []byte("page one\fpage two"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "sub", "notes.txt"), []byte("nested"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(tempDir, ".hidden"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, ".hidden", "skip.txt"), []byte("hidden"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "image.png"), []byte{0x89, 0x50}, 0644))

	indexer := newMockIndexer()
	loader := New(tempDir, indexer)

	loaded, warnings, err := loader.LoadAll(context.Background())

	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 3, loaded)

	// Document IDs are slash-separated paths relative to the root
	assert.Contains(t, indexer.ingested, "bonds.txt")
	assert.Contains(t, indexer.ingested, "guide.md")
	assert.Contains(t, indexer.ingested, "sub/notes.txt")
	assert.NotContains(t, indexer.ingested, ".hidden/skip.txt")
	assert.NotContains(t, indexer.ingested, "image.png")

	// Form feed split survived the round trip
	require.Len(t, indexer.ingested["guide.md"], 2)
	assert.Equal(t, "page one", indexer.ingested["guide.md"][0].Text)
}

func TestLoader_LoadAll_IngestFailureIsWarning(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "broken.txt"), []byte("text"), 0644))

	indexer := newMockIndexer()
	indexer.ingestErr = assert.AnError
	loader := New(tempDir, indexer)

	loaded, warnings, err := loader.LoadAll(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, loaded)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "broken.txt")
}

func TestLoader_HandleEvent(t *testing.T) {
	tests := []struct {
		name         string
		setupFile    bool
		hidden       bool
		nonDocument  bool
		operation    fsnotify.Op
		expectActed  bool
		expectDelete bool
	}{
		{
			name:        "create file re-ingests",
			setupFile:   true,
			operation:   fsnotify.Create,
			expectActed: true,
		},
		{
			name:        "write file re-ingests",
			setupFile:   true,
			operation:   fsnotify.Write,
			expectActed: true,
		},
		{
			name:         "remove file deletes from index",
			operation:    fsnotify.Remove,
			expectActed:  true,
			expectDelete: true,
		},
		{
			name:         "rename file deletes from index",
			operation:    fsnotify.Rename,
			expectActed:  true,
			expectDelete: true,
		},
		{
			name:      "chmod is ignored",
			setupFile: true,
			operation: fsnotify.Chmod,
		},
		{
			name:      "hidden file is ignored",
			setupFile: true,
			hidden:    true,
			operation: fsnotify.Write,
		},
		{
			name:        "non-document file is ignored",
			setupFile:   true,
			nonDocument: true,
			operation:   fsnotify.Write,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()

			name := "doc.txt"
			if tt.hidden {
				name = ".doc.txt"
			}
			if tt.nonDocument {
				name = "doc.png"
			}
			eventPath := filepath.Join(tempDir, name)
			if tt.setupFile {
				require.NoError(t, os.WriteFile(eventPath, []byte("content"), 0644))
			}

			indexer := newMockIndexer()
			loader := New(tempDir, indexer)

			watcher, err := fsnotify.NewWatcher()
			require.NoError(t, err)
			defer watcher.Close()

			acted := loader.handleEvent(context.Background(), watcher, fsnotify.Event{
				Name: eventPath,
				Op:   tt.operation,
			})

			assert.Equal(t, tt.expectActed, acted)
			if tt.expectDelete {
				assert.Equal(t, []string{name}, indexer.deleted)
				assert.Empty(t, indexer.ingested)
			} else if tt.expectActed {
				assert.Contains(t, indexer.ingested, name)
			} else {
				assert.Empty(t, indexer.ingested)
				assert.Empty(t, indexer.deleted)
			}
		})
	}
}

func TestLoader_HandleEvent_DirectoryCreateIsWatched(t *testing.T) {
	tempDir := t.TempDir()
	subDir := filepath.Join(tempDir, "newsub")
	require.NoError(t, os.Mkdir(subDir, 0755))

	indexer := newMockIndexer()
	loader := New(tempDir, indexer)

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	acted := loader.handleEvent(context.Background(), watcher, fsnotify.Event{
		Name: subDir,
		Op:   fsnotify.Create,
	})

	// No index change, but the new directory is now watched
	assert.False(t, acted)
	assert.Contains(t, watcher.WatchList(), subDir)
	assert.Empty(t, indexer.ingested)
}
