// Package splitter provides boundary-aware parent/child text chunking.
package splitter

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/veridian-labs/anker/internal/core/domain"
)

// Default chunking geometry.
const (
	DefaultParentSize    = 2000
	DefaultParentOverlap = 200
	DefaultChildSize     = 400
	DefaultChildOverlap  = 50
)

// Splitter carves document pages into parent chunks and each parent into
// child chunks. Breaks prefer paragraph, then sentence, then word
// boundaries and never land mid-word. A child chunk's text is always a
// literal slice of its parent's text.
type Splitter struct {
	parentSize    int
	parentOverlap int
	childSize     int
	childOverlap  int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithParentSize sets the target parent chunk size in characters.
func WithParentSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.parentSize = size
		}
	}
}

// WithParentOverlap sets the overlap between neighbouring parents.
func WithParentOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.parentOverlap = overlap
		}
	}
}

// WithChildSize sets the target child chunk size in characters.
func WithChildSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.childSize = size
		}
	}
}

// WithChildOverlap sets the overlap between neighbouring children.
func WithChildOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.childOverlap = overlap
		}
	}
}

// New creates a splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		parentSize:    DefaultParentSize,
		parentOverlap: DefaultParentOverlap,
		childSize:     DefaultChildSize,
		childOverlap:  DefaultChildOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Overlaps must leave forward progress.
	if s.parentOverlap >= s.parentSize {
		s.parentOverlap = s.parentSize / 4
	}
	if s.childOverlap >= s.childSize {
		s.childOverlap = s.childSize / 4
	}

	return s
}

// Split chunks a document's pages. Pages with no usable text are skipped
// and reported in warnings; the remaining pages are still split. Parent
// chunks never straddle a page boundary, so each carries a citable
// (page, offset) location.
func (s *Splitter) Split(
	documentID string, pages []domain.Page,
) (parents []domain.ParentChunk, children []domain.ChildChunk, warnings []string) {
	position := 0

	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			warnings = append(warnings, pageWarning(page.Number))
			continue
		}

		for _, span := range splitSpans(page.Text, s.parentSize, s.parentOverlap) {
			parent := domain.ParentChunk{
				ID:         uuid.New().String(),
				DocumentID: documentID,
				Text:       page.Text[span.start:span.end],
				Page:       page.Number,
				Offset:     span.start,
				Position:   position,
			}
			position++
			parents = append(parents, parent)

			for _, cs := range splitSpans(parent.Text, s.childSize, s.childOverlap) {
				children = append(children, domain.ChildChunk{
					ID:       uuid.New().String(),
					ParentID: parent.ID,
					Text:     parent.Text[cs.start:cs.end],
					Offset:   cs.start,
				})
			}
		}
	}

	return parents, children, warnings
}

func pageWarning(number int) string {
	return fmt.Sprintf("page %d: no parseable text, skipped", number)
}

// span is a half-open [start, end) slice of the source text.
type span struct {
	start int
	end   int
}

// splitSpans walks text producing spans of roughly size characters with
// the given overlap. The end of each span snaps backwards to the best
// available break: paragraph, sentence, then word. Both edges avoid
// the inside of a word where the text offers a boundary, and never
// land inside a UTF-8 rune.
func splitSpans(text string, size, overlap int) []span {
	length := len(text)
	if length == 0 {
		return nil
	}
	if length <= size {
		return []span{{start: 0, end: length}}
	}

	var spans []span
	start := 0

	for start < length {
		end := start + size
		if end >= length {
			end = length
		} else {
			end = snapBreak(text, start, end)
		}

		spans = append(spans, span{start: start, end: end})
		if end == length {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = snapWordStart(text, next)
		if start >= length {
			break
		}
	}

	return spans
}

// Break preference order for snapBreak.
var breakMarkers = []string{"\n\n", "\n", ". ", "! ", "? "}

// snapBreak finds the best break position at or before limit. It scans
// the window between start+size/2 and limit for the strongest marker;
// failing all markers it falls back to the last word boundary. The
// returned position always follows the marker so punctuation stays with
// the preceding span.
func snapBreak(text string, start, limit int) int {
	window := text[start:limit]
	floor := len(window) / 2

	for _, marker := range breakMarkers {
		if idx := strings.LastIndex(window, marker); idx >= floor {
			return start + idx + len(marker)
		}
	}

	// No structural break in the window; back up to whitespace so the
	// span does not cut a word in half. The scan decodes runes so
	// non-ASCII spaces count too.
	for i := limit - 1; i > start+floor; i-- {
		if !utf8.RuneStart(text[i]) {
			continue
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			return i + size
		}
	}

	// No whitespace in the back half either. Accept a mid-word cut but
	// never a mid-rune one.
	for limit > start && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return limit
}

// snapWordStart advances pos past any partial word and whitespace so
// the next span starts on a word boundary. When no boundary exists
// before the end of the text, it keeps pos (snapped to a rune start)
// rather than consuming the remaining text.
func snapWordStart(text string, pos int) int {
	if pos <= 0 {
		return 0
	}
	origin := pos
	// Inside a word: advance to its end.
	for pos < len(text) && !isSpace(text[pos]) && !isSpace(text[pos-1]) {
		pos++
	}
	if pos == len(text) && !isSpace(text[pos-1]) {
		pos = origin
		for pos > 0 && !utf8.RuneStart(text[pos]) {
			pos--
		}
		return pos
	}
	// Skip the whitespace run.
	for pos < len(text) && isSpace(text[pos]) {
		pos++
	}
	return pos
}

// isSpace reports ASCII whitespace only. Treating high bytes as runes
// here would misread UTF-8 continuation bytes (0xA0 decodes as a
// no-break space) and split inside a rune.
func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
