package services

import (
	"fmt"
	"strings"

	"github.com/veridian-labs/anker/internal/core/domain"
	"github.com/veridian-labs/anker/internal/logger"
)

// blockSeparator joins the numbered reference blocks.
const blockSeparator = "\n---\n"

// AssemblerService formats the memory snapshot and the reranked
// retrieval set into one bounded context artifact with citation
// metadata.
type AssemblerService struct {
	settings domain.Settings
}

// NewAssemblerService creates a new assembler.
func NewAssemblerService(settings domain.Settings) *AssemblerService {
	return &AssemblerService{settings: settings.Normalise()}
}

// Assemble builds the context payload. The memory snapshot always goes
// in whole: when the text runs over budget, whole retrieval candidates
// are dropped from the bottom of the ranking until it fits. Recent
// messages are never trimmed and chunk text is never cut mid-block.
func (s *AssemblerService) Assemble(
	snapshot *domain.MemorySnapshot,
	candidates []domain.RetrievalCandidate,
	budget int,
) *domain.AssembledContext {
	logger.Section("Context Assembly")

	if budget <= 0 {
		budget = s.settings.ContextBudget
	}

	memoryPart := formatMemory(snapshot)
	logger.Debug("Memory part: %d chars, budget: %d", len(memoryPart), budget)

	refHeader := "Reference material:\n"
	if memoryPart != "" {
		refHeader = "\n\n" + refHeader
	}

	remaining := budget - len(memoryPart)

	kept := make([]domain.RetrievalCandidate, 0, len(candidates))
	size := 0
	for _, cand := range candidates {
		block := formatReference(len(kept)+1, cand)
		cost := len(block)
		if len(kept) > 0 {
			cost += len(blockSeparator)
		} else {
			cost += len(refHeader)
		}
		if size+cost > remaining {
			// Everything below this candidate ranks lower, so the rest
			// drops with it.
			break
		}
		size += cost
		kept = append(kept, cand)
	}

	dropped := len(candidates) - len(kept)
	if dropped > 0 {
		logger.Info("Dropped %d candidates to fit budget", dropped)
	}

	var b strings.Builder
	b.WriteString(memoryPart)

	citations := make(domain.CitationMap, len(kept))
	if len(kept) > 0 {
		b.WriteString(refHeader)
		for i, cand := range kept {
			if i > 0 {
				b.WriteString(blockSeparator)
			}
			b.WriteString(formatReference(i+1, cand))
			citations[i+1] = domain.Citation{
				DocumentID: cand.DocumentID,
				Page:       cand.Page,
				ParentID:   cand.ParentID,
			}
		}
	}

	logger.Info("Assembled context: %d chars, %d citations", b.Len(), len(citations))

	return &domain.AssembledContext{
		Text:      b.String(),
		Citations: citations,
		Dropped:   dropped,
	}
}

// formatReference renders one numbered, citable chunk block.
func formatReference(n int, cand domain.RetrievalCandidate) string {
	return fmt.Sprintf("[%d] (Source: %s, Page: %d)\n%s", n, cand.DocumentID, cand.Page, cand.Text)
}

// formatMemory renders the memory tiers in fixed order: summary first,
// then profile, knowledge, and the recent turns.
func formatMemory(snapshot *domain.MemorySnapshot) string {
	if snapshot == nil {
		return ""
	}

	var sections []string

	if snapshot.Summary != "" {
		sections = append(sections, "Conversation summary:\n"+snapshot.Summary)
	}

	if len(snapshot.Profile) > 0 {
		var b strings.Builder
		b.WriteString("User profile:")
		for _, rec := range snapshot.Profile {
			b.WriteString("\n- ")
			b.WriteString(rec.Key)
			b.WriteString(": ")
			b.WriteString(rec.Value)
		}
		sections = append(sections, b.String())
	}

	if len(snapshot.Knowledge) > 0 {
		var b strings.Builder
		b.WriteString("Relevant knowledge:")
		for _, rec := range snapshot.Knowledge {
			b.WriteString("\n- ")
			b.WriteString(rec.Value)
		}
		sections = append(sections, b.String())
	}

	if len(snapshot.Recent) > 0 {
		var b strings.Builder
		b.WriteString("Recent conversation:")
		for _, msg := range snapshot.Recent {
			b.WriteString("\n")
			b.WriteString(msg.Role)
			b.WriteString(": ")
			b.WriteString(msg.Content)
		}
		sections = append(sections, b.String())
	}

	return strings.Join(sections, "\n\n")
}
