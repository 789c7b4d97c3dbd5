package textfile

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/veridian-labs/anker/internal/logger"
)

// Watch observes the root directory recursively and keeps the index in
// step with it: new and modified document files are re-ingested,
// removed and renamed ones are deleted from the index. It blocks until
// the context is cancelled or the watcher fails.
func (l *Loader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addRecursive(watcher, l.rootPath); err != nil {
		return err
	}
	logger.Info("Watching %s for document changes", l.rootPath)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			l.handleEvent(ctx, watcher, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("textfile: watch error: %v", err)
		}
	}
}

// handleEvent maps one filesystem event onto an index operation.
// Reports whether the event resulted in an index change.
func (l *Loader) handleEvent(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	rel, err := filepath.Rel(l.rootPath, event.Name)
	if err != nil || isHidden(rel) {
		return false
	}

	// New subdirectories need their own watch to stay recursive.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addRecursive(watcher, event.Name); err != nil {
				logger.Warn("textfile: watching %s: %v", event.Name, err)
			}
			return false
		}
	}

	if !isDocumentFile(event.Name) {
		return false
	}

	switch {
	case event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Write):
		if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
			return false
		}
		if err := l.ingestFile(ctx, event.Name); err != nil {
			logger.Warn("textfile: re-ingesting %s: %v", event.Name, err)
			return false
		}
		return true

	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		id, err := l.documentID(event.Name)
		if err != nil {
			return false
		}
		if err := l.indexer.Delete(ctx, id); err != nil {
			logger.Warn("textfile: deleting %s: %v", id, err)
			return false
		}
		logger.Debug("textfile: deleted %s", id)
		return true
	}

	return false
}

// addRecursive registers a directory and all its visible subdirectories
// with the watcher.
func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if isHidden(rel) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
