package driven

import "context"

// RerankService scores a single (query, candidate text) pair with a
// finer-grained relevance model such as a cross-encoder.
// This is an optional service - when nil or unreachable, ranking stays
// in fusion order and the caller flags the degradation.
//
// Scoring one pair must not depend on any other pair: implementations
// must not apply batch-relative normalization, so the same pair always
// yields the same score regardless of pool size.
type RerankService interface {
	// Score returns the relevance of candidateText to query.
	// Higher is more relevant; the scale only needs to be internally
	// consistent.
	Score(ctx context.Context, query, candidateText string) (float64, error)

	// ModelName returns the name of the relevance model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
