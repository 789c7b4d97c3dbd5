package mcp

import (
	"github.com/veridian-labs/anker/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Assistant runs the retrieval pipeline and memory operations.
	Assistant driving.AssistantService

	// Indexer manages document ingestion.
	Indexer driving.IndexerService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Assistant == nil {
		return ErrMissingAssistantService
	}
	// Indexer is optional; ingestion usually happens through the CLI
	return nil
}
