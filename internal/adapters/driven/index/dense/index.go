// Package dense provides an in-process vector index over child-chunk
// embeddings. Search is exhaustive cosine similarity, which keeps
// results exactly reproducible for a given index state at the corpus
// sizes a single assistant instance serves.
package dense

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/veridian-labs/anker/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is an in-memory, exact-scan vector index.
type Index struct {
	mu      sync.RWMutex
	entries map[string]driven.VectorEntry
	dims    int
}

// New creates an empty dense index.
func New() *Index {
	return &Index{entries: make(map[string]driven.VectorEntry)}
}

// Upsert inserts or replaces entries by child ID.
func (idx *Index) Upsert(_ context.Context, entries []driven.VectorEntry) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, e := range entries {
		if len(e.Embedding) == 0 {
			return fmt.Errorf("entry %s has no embedding", e.ChildID)
		}
		if idx.dims == 0 {
			idx.dims = len(e.Embedding)
		} else if len(e.Embedding) != idx.dims {
			return fmt.Errorf("entry %s has %d dimensions, index has %d",
				e.ChildID, len(e.Embedding), idx.dims)
		}
		idx.entries[e.ChildID] = e
	}
	return nil
}

// DeleteDocument removes every entry belonging to a document.
func (idx *Index) DeleteDocument(_ context.Context, documentID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for id, e := range idx.entries {
		if e.DocumentID == documentID {
			delete(idx.entries, id)
		}
	}
	return nil
}

// Search returns the k nearest children by cosine similarity, ordered
// descending with a stable tie-break on child ID.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.dims != 0 && len(query) != idx.dims {
		return nil, fmt.Errorf("query has %d dimensions, index has %d", len(query), idx.dims)
	}

	hits := make([]driven.VectorHit, 0, len(idx.entries))
	for _, e := range idx.entries {
		hits = append(hits, driven.VectorHit{
			ChildID:    e.ChildID,
			ParentID:   e.ParentID,
			Similarity: cosine(query, e.Embedding),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChildID < hits[j].ChildID
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// cosine computes cosine similarity between two equal-length vectors.
func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
