package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/veridian-labs/anker/internal/core/domain"
	"github.com/veridian-labs/anker/internal/core/ports/driven"
	"github.com/veridian-labs/anker/internal/logger"
)

// MemoryService manages the tiered conversation memory: the short-term
// thread, the long-term profile and knowledge records, and the rolling
// per-session summary.
//
// All operations on one session are serialized through a per-session
// mutex. Consolidation runs in the background after the triggering turn
// returns; it holds the session mutex, so the next operation on that
// session observes the consolidated state.
type MemoryService struct {
	store      driven.MemoryStore
	summarizer driven.SummarizerService
	settings   domain.Settings

	mu       sync.Mutex
	sessions map[string]*sessionState

	// consolidations tracks in-flight background work so tests and
	// shutdown can drain it.
	consolidations sync.WaitGroup
}

// sessionState is the per-session serialization handle. pending tracks
// this session's in-flight consolidation so a snapshot of one session
// never waits on another's.
type sessionState struct {
	mu            sync.Mutex
	consolidating bool
	pending       sync.WaitGroup
}

// NewMemoryService creates a new memory manager.
// store and summarizer are optional (can be nil): without a store every
// snapshot is stateless, without a summarizer consolidation trims
// nothing and the thread keeps growing until one is configured.
func NewMemoryService(
	store driven.MemoryStore,
	summarizer driven.SummarizerService,
	settings domain.Settings,
) *MemoryService {
	return &MemoryService{
		store:      store,
		summarizer: summarizer,
		settings:   settings.Normalise(),
		sessions:   make(map[string]*sessionState),
	}
}

func (s *MemoryService) session(sessionID string) *sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		st = &sessionState{}
		s.sessions[sessionID] = st
	}
	return st
}

// Record appends a turn to the session thread. When the thread length
// crosses the consolidation threshold, consolidation is scheduled in
// the background; this call never waits for it. An unreachable store
// logs the loss and returns nil so the turn itself still completes.
func (s *MemoryService) Record(ctx context.Context, userID, sessionID, role, content string) error {
	role = strings.TrimSpace(role)
	if role != "user" && role != "assistant" {
		return fmt.Errorf("%w: role must be user or assistant, got %q", domain.ErrInvalidInput, role)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: empty message content", domain.ErrInvalidInput)
	}
	if s.store == nil {
		logger.Warn("Memory store not configured, turn not recorded")
		return nil
	}

	st := s.session(sessionID)
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, err := s.store.AppendMessage(ctx, sessionID, role, content); err != nil {
		logger.Warn("Memory store unreachable, turn not recorded: %v", err)
		return nil
	}

	count, err := s.store.CountMessages(ctx, sessionID)
	if err != nil {
		logger.Warn("Message count failed, consolidation check skipped: %v", err)
		return nil
	}

	logger.Debug("Session %s: %d messages (threshold %d)", sessionID, count, s.settings.MessageThreshold)

	if count >= s.settings.MessageThreshold && !st.consolidating {
		st.consolidating = true
		s.consolidations.Add(1)
		st.pending.Add(1)
		go func() {
			defer s.consolidations.Done()
			defer st.pending.Done()
			st.mu.Lock()
			defer st.mu.Unlock()
			defer func() { st.consolidating = false }()

			// The triggering turn has already returned; consolidation
			// runs on its own deadline.
			cctx, cancel := context.WithTimeout(context.Background(), s.settings.CapabilityTimeout)
			defer cancel()

			if err := s.consolidate(cctx, userID, sessionID); err != nil {
				logger.Warn("Consolidation failed, will retry at next crossing: %v", err)
			}
		}()
	}

	return nil
}

// consolidate folds everything older than the retain window into the
// rolling summary, then trims the thread. The summary write and the
// trim only happen after a successful summarization, so a failed
// attempt leaves the thread and the prior summary untouched.
func (s *MemoryService) consolidate(ctx context.Context, userID, sessionID string) error {
	if s.summarizer == nil {
		return fmt.Errorf("%w: no summarizer configured", domain.ErrSummarization)
	}

	logger.Section("Memory Consolidation")

	messages, err := s.store.Messages(ctx, sessionID, 0)
	if err != nil {
		return fmt.Errorf("load thread: %w", err)
	}
	if len(messages) <= s.settings.RetainWindow {
		return nil
	}
	fold := messages[:len(messages)-s.settings.RetainWindow]

	current := ""
	if rec, err := s.store.GetRecord(
		ctx, userID, domain.NamespaceSummary, sessionID, domain.SummaryKey,
	); err == nil {
		current = rec.Value
	}

	logger.Debug("Folding %d messages into summary (%d chars prior)", len(fold), len(current))

	updated, err := s.summarizer.Summarize(ctx, fold, current)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSummarization, err)
	}

	if err := s.store.PutRecord(ctx, domain.MemoryRecord{
		UserID:    userID,
		Namespace: domain.NamespaceSummary,
		SessionID: sessionID,
		Key:       domain.SummaryKey,
		Value:     updated,
	}); err != nil {
		return fmt.Errorf("store summary: %w", err)
	}

	if err := s.store.TrimMessages(ctx, sessionID, s.settings.RetainWindow); err != nil {
		return fmt.Errorf("trim thread: %w", err)
	}

	logger.Info("Consolidated session %s: summary %d chars, thread trimmed to %d",
		sessionID, len(updated), s.settings.RetainWindow)
	return nil
}

// Snapshot returns the current view of every memory tier. Knowledge
// records are ranked by term overlap with the query. An unreachable
// store yields a stateless snapshot, never an error.
func (s *MemoryService) Snapshot(ctx context.Context, userID, sessionID, query string) *domain.MemorySnapshot {
	if s.store == nil {
		return &domain.MemorySnapshot{Stateless: true}
	}

	// A read scheduled after a triggering turn must observe the
	// consolidated state, so this session's in-flight consolidation
	// drains first. Other sessions' work is irrelevant here.
	st := s.session(sessionID)
	st.pending.Wait()
	st.mu.Lock()
	defer st.mu.Unlock()

	recent, err := s.store.Messages(ctx, sessionID, s.settings.RetainWindow)
	if err != nil {
		logger.Warn("Memory store unreachable, running stateless: %v", err)
		return &domain.MemorySnapshot{Stateless: true}
	}

	snapshot := &domain.MemorySnapshot{Recent: recent}

	if rec, err := s.store.GetRecord(
		ctx, userID, domain.NamespaceSummary, sessionID, domain.SummaryKey,
	); err == nil {
		snapshot.Summary = rec.Value
	}

	if profile, err := s.store.ListRecords(ctx, userID, domain.NamespaceProfile); err == nil {
		sort.Slice(profile, func(i, j int) bool { return profile[i].Key < profile[j].Key })
		snapshot.Profile = profile
	}

	if knowledge, err := s.store.ListRecords(ctx, userID, domain.NamespaceKnowledge); err == nil {
		snapshot.Knowledge = rankByRelevance(knowledge, query)
	}

	return snapshot
}

// RememberProfile upserts a long-term user preference fact.
func (s *MemoryService) RememberProfile(ctx context.Context, userID, key, value string) error {
	return s.remember(ctx, userID, domain.NamespaceProfile, key, value)
}

// RememberKnowledge upserts an extracted domain fact.
func (s *MemoryService) RememberKnowledge(ctx context.Context, userID, key, value string) error {
	return s.remember(ctx, userID, domain.NamespaceKnowledge, key, value)
}

func (s *MemoryService) remember(ctx context.Context, userID, namespace, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty record key", domain.ErrInvalidInput)
	}
	if s.store == nil {
		return domain.ErrMemoryUnavailable
	}
	if err := s.store.PutRecord(ctx, domain.MemoryRecord{
		UserID:    userID,
		Namespace: namespace,
		Key:       key,
		Value:     value,
	}); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMemoryUnavailable, err)
	}
	return nil
}

// Wait blocks until all in-flight consolidations finish.
func (s *MemoryService) Wait() {
	s.consolidations.Wait()
}

// rankByRelevance orders records by term overlap with the query,
// highest first, with a stable tie-break on key. Records that share no
// terms with the query still rank, just last.
func rankByRelevance(records []domain.MemoryRecord, query string) []domain.MemoryRecord {
	terms := make(map[string]bool)
	for _, t := range strings.Fields(strings.ToLower(query)) {
		terms[strings.Trim(t, ".,!?;:\"'()")] = true
	}

	type scored struct {
		rec   domain.MemoryRecord
		score int
	}
	ranked := make([]scored, 0, len(records))
	for _, rec := range records {
		score := 0
		for _, t := range strings.Fields(strings.ToLower(rec.Key + " " + rec.Value)) {
			if terms[strings.Trim(t, ".,!?;:\"'()")] {
				score++
			}
		}
		ranked = append(ranked, scored{rec: rec, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].rec.Key < ranked[j].rec.Key
	})

	out := make([]domain.MemoryRecord, len(ranked))
	for i, r := range ranked {
		out[i] = r.rec
	}
	return out
}
