// Package sparse provides an in-process BM25 keyword index over parent
// chunks. Scoring depends only on the query terms and the indexed term
// statistics, so the same query against the same corpus always produces
// the same ranking.
package sparse

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/veridian-labs/anker/internal/core/domain"
	"github.com/veridian-labs/anker/internal/core/ports/driven"
)

// BM25 parameters, the standard Robertson values.
const (
	k1 = 1.2
	b  = 0.75
)

// Ensure Index implements the interface.
var _ driven.SparseIndex = (*Index)(nil)

// indexedParent holds per-parent term statistics.
type indexedParent struct {
	documentID string
	termFreq   map[string]int
	length     int
}

// Index is an in-memory BM25 index.
type Index struct {
	mu          sync.RWMutex
	parents     map[string]*indexedParent
	docFreq     map[string]int
	totalLength int
}

// New creates an empty sparse index.
func New() *Index {
	return &Index{
		parents: make(map[string]*indexedParent),
		docFreq: make(map[string]int),
	}
}

// Index adds or updates a parent chunk's term statistics.
func (idx *Index) Index(_ context.Context, parent domain.ParentChunk) error {
	terms := tokenize(parent.Text)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if prev, ok := idx.parents[parent.ID]; ok {
		idx.removeLocked(parent.ID, prev)
	}

	entry := &indexedParent{
		documentID: parent.DocumentID,
		termFreq:   make(map[string]int),
		length:     len(terms),
	}
	for _, t := range terms {
		entry.termFreq[t]++
	}
	for t := range entry.termFreq {
		idx.docFreq[t]++
	}

	idx.parents[parent.ID] = entry
	idx.totalLength += entry.length
	return nil
}

// DeleteDocument removes every parent belonging to a document.
func (idx *Index) DeleteDocument(_ context.Context, documentID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for id, entry := range idx.parents {
		if entry.documentID == documentID {
			idx.removeLocked(id, entry)
		}
	}
	return nil
}

func (idx *Index) removeLocked(id string, entry *indexedParent) {
	for t := range entry.termFreq {
		idx.docFreq[t]--
		if idx.docFreq[t] <= 0 {
			delete(idx.docFreq, t)
		}
	}
	idx.totalLength -= entry.length
	delete(idx.parents, id)
}

// Search scores every parent against the query and returns the top
// matches. Parents sharing no terms with the query are omitted.
func (idx *Index) Search(_ context.Context, query string, limit int) ([]driven.SparseHit, error) {
	queryTerms := tokenize(query)
	if len(queryTerms) == 0 {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := len(idx.parents)
	if n == 0 {
		return nil, nil
	}
	avgLength := float64(idx.totalLength) / float64(n)

	hits := make([]driven.SparseHit, 0, n)
	for id, entry := range idx.parents {
		score := 0.0
		for _, t := range queryTerms {
			tf := entry.termFreq[t]
			if tf == 0 {
				continue
			}
			df := idx.docFreq[t]
			idf := math.Log(1 + (float64(n)-float64(df)+0.5)/(float64(df)+0.5))
			norm := float64(tf) * (k1 + 1) /
				(float64(tf) + k1*(1-b+b*float64(entry.length)/avgLength))
			score += idf * norm
		}
		if score > 0 {
			hits = append(hits, driven.SparseHit{ParentID: id, Score: score})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ParentID < hits[j].ParentID
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}

// tokenize lowercases and splits on non-alphanumeric runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
