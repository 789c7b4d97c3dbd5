// Package textfile loads page-structured plain-text and markdown
// documents from a directory into the indexer. A form feed character
// (\f) marks a page break; files without one are single-page documents.
// The package also watches the directory and re-ingests on change, so
// an external extractor can drop files in and have them indexed.
package textfile

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/veridian-labs/anker/internal/core/domain"
	"github.com/veridian-labs/anker/internal/core/ports/driving"
	"github.com/veridian-labs/anker/internal/logger"
)

// pageBreak separates pages within a document file.
const pageBreak = "\f"

// documentExtensions lists the file extensions treated as documents.
var documentExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// Loader reads documents from a root directory and hands their pages to
// the indexer. The document ID is the file's slash-separated path
// relative to the root, so re-ingesting the same file replaces the
// prior version.
type Loader struct {
	rootPath string
	indexer  driving.IndexerService
}

// New creates a loader rooted at rootPath.
func New(rootPath string, indexer driving.IndexerService) *Loader {
	return &Loader{
		rootPath: rootPath,
		indexer:  indexer,
	}
}

// LoadAll walks the root directory and ingests every document file.
// It returns the number of documents ingested; per-file failures are
// collected as warnings rather than aborting the walk.
func (l *Loader) LoadAll(ctx context.Context) (int, []string, error) {
	var loaded int
	var warnings []string

	err := filepath.WalkDir(l.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, relErr := filepath.Rel(l.rootPath, path)
		if relErr != nil {
			return relErr
		}
		if isHidden(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isDocumentFile(path) {
			return nil
		}

		if err := l.ingestFile(ctx, path); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", path, err))
			return nil
		}
		loaded++
		return nil
	})
	if err != nil {
		return loaded, warnings, fmt.Errorf("walking %s: %w", l.rootPath, err)
	}
	return loaded, warnings, nil
}

// ingestFile reads one file and ingests it under its relative-path ID.
func (l *Loader) ingestFile(ctx context.Context, path string) error {
	id, pages, err := l.readDocument(path)
	if err != nil {
		return err
	}

	stats, err := l.indexer.Ingest(ctx, id, pages)
	if err != nil {
		return err
	}
	logger.Debug("textfile: ingested %s (%d parents, %d children)",
		id, stats.ParentChunks, stats.ChildChunks)
	for _, w := range stats.Warnings {
		logger.Warn("textfile: %s: %s", id, w)
	}
	return nil
}

// readDocument reads a file and splits it into pages.
func (l *Loader) readDocument(path string) (string, []domain.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}

	id, err := l.documentID(path)
	if err != nil {
		return "", nil, err
	}

	return id, splitPages(string(data)), nil
}

// documentID derives the document identifier from the file path:
// the slash-separated path relative to the loader root.
func (l *Loader) documentID(path string) (string, error) {
	rel, err := filepath.Rel(l.rootPath, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// splitPages splits file content on form feed characters into 1-based
// pages. Content without a form feed is a single page.
func splitPages(content string) []domain.Page {
	parts := strings.Split(content, pageBreak)
	pages := make([]domain.Page, len(parts))
	for i, part := range parts {
		pages[i] = domain.Page{
			Number: i + 1,
			Text:   strings.TrimRight(part, "\n"),
		}
	}
	return pages
}

// isDocumentFile reports whether the path has a recognised document
// extension.
func isDocumentFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return documentExtensions[ext]
}

// isHidden reports whether any component of the path starts with a dot.
// The "." and ".." path elements do not count as hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
