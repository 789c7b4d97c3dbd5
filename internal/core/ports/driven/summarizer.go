package driven

import (
	"context"

	"github.com/veridian-labs/anker/internal/core/domain"
)

// SummarizerService condenses conversation messages into a rolling
// summary. This is an optional service - when nil or failing, the prior
// summary is retained and consolidation is retried at the next
// threshold crossing.
type SummarizerService interface {
	// Summarize folds messages into currentSummary and returns the
	// updated summary of the entire conversation so far.
	Summarize(ctx context.Context, messages []domain.Message, currentSummary string) (string, error)

	// ModelName returns the name of the summarization model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
