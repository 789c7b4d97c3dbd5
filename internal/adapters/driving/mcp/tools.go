package mcp

import (
	"context"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/veridian-labs/anker/internal/core/domain"
)

// RetrieveContextInput is the input schema for the retrieve_context tool.
type RetrieveContextInput struct {
	UserID    string `json:"user_id" jsonschema:"the user whose memory scopes the context"`
	SessionID string `json:"session_id" jsonschema:"the conversation session"`
	Query     string `json:"query" jsonschema:"the question to retrieve grounding context for"`
}

// RetrieveContextOutput is the output schema for the retrieve_context tool.
type RetrieveContextOutput struct {
	Context   string           `json:"context"`
	Citations []CitationOutput `json:"citations,omitempty"`
	Dropped   int              `json:"dropped"`
	Flags     FlagsOutput      `json:"flags"`
}

// CitationOutput maps one reference number in the context text to its source.
type CitationOutput struct {
	Ref        int    `json:"ref"`
	DocumentID string `json:"document_id"`
	Page       int    `json:"page"`
	ParentID   string `json:"parent_id"`
}

// FlagsOutput reports degradations hit while building the context.
type FlagsOutput struct {
	DenseUnavailable  bool `json:"dense_unavailable,omitempty"`
	SparseUnavailable bool `json:"sparse_unavailable,omitempty"`
	Unavailable       bool `json:"unavailable,omitempty"`
	RerankDegraded    bool `json:"rerank_degraded,omitempty"`
	MemoryUnavailable bool `json:"memory_unavailable,omitempty"`
}

// RecordTurnInput is the input schema for the record_turn tool.
type RecordTurnInput struct {
	UserID    string `json:"user_id" jsonschema:"the user the turn belongs to"`
	SessionID string `json:"session_id" jsonschema:"the conversation session"`
	Role      string `json:"role" jsonschema:"the speaker, user or assistant"`
	Content   string `json:"content" jsonschema:"the message text"`
}

// RecordTurnOutput is the output schema for the record_turn tool.
type RecordTurnOutput struct {
	Recorded bool `json:"recorded"`
}

// MemorySnapshotInput is the input schema for the get_memory_snapshot tool.
type MemorySnapshotInput struct {
	UserID    string `json:"user_id" jsonschema:"the user whose memory to read"`
	SessionID string `json:"session_id" jsonschema:"the conversation session"`
}

// MemorySnapshotOutput is the output schema for the get_memory_snapshot tool.
type MemorySnapshotOutput struct {
	Summary   string         `json:"summary,omitempty"`
	Recent    []TurnOutput   `json:"recent,omitempty"`
	Profile   []RecordOutput `json:"profile,omitempty"`
	Knowledge []RecordOutput `json:"knowledge,omitempty"`
	Stateless bool           `json:"stateless,omitempty"`
}

// TurnOutput is one recent conversation turn.
type TurnOutput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RecordOutput is one long-term memory fact.
type RecordOutput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve_context",
		Description: "Retrieve grounded, cited context for a question from the indexed documents and conversation memory",
	}, s.handleRetrieveContext)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "record_turn",
		Description: "Record one conversation turn into session memory",
	}, s.handleRecordTurn)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_memory_snapshot",
		Description: "Read the current summary, recent turns and long-term facts for a session",
	}, s.handleMemorySnapshot)
}

// handleRetrieveContext handles the retrieve_context tool invocation.
func (s *Server) handleRetrieveContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveContextInput,
) (*mcp.CallToolResult, RetrieveContextOutput, error) {
	assembled, err := s.ports.Assistant.RetrieveContext(ctx, input.UserID, input.SessionID, input.Query)
	if err != nil {
		return nil, RetrieveContextOutput{}, err
	}

	output := RetrieveContextOutput{
		Context: assembled.Text,
		Dropped: assembled.Dropped,
		Flags: FlagsOutput{
			DenseUnavailable:  assembled.Flags.DenseUnavailable,
			SparseUnavailable: assembled.Flags.SparseUnavailable,
			Unavailable:       assembled.Flags.Unavailable,
			RerankDegraded:    assembled.Flags.RerankDegraded,
			MemoryUnavailable: assembled.Flags.MemoryUnavailable,
		},
	}

	refs := make([]int, 0, len(assembled.Citations))
	for ref := range assembled.Citations {
		refs = append(refs, ref)
	}
	sort.Ints(refs)
	for _, ref := range refs {
		c := assembled.Citations[ref]
		output.Citations = append(output.Citations, CitationOutput{
			Ref:        ref,
			DocumentID: c.DocumentID,
			Page:       c.Page,
			ParentID:   c.ParentID,
		})
	}

	return nil, output, nil
}

// handleRecordTurn handles the record_turn tool invocation.
func (s *Server) handleRecordTurn(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RecordTurnInput,
) (*mcp.CallToolResult, RecordTurnOutput, error) {
	err := s.ports.Assistant.RecordTurn(ctx, input.UserID, input.SessionID, input.Role, input.Content)
	if err != nil {
		return nil, RecordTurnOutput{}, err
	}
	return nil, RecordTurnOutput{Recorded: true}, nil
}

// handleMemorySnapshot handles the get_memory_snapshot tool invocation.
func (s *Server) handleMemorySnapshot(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MemorySnapshotInput,
) (*mcp.CallToolResult, MemorySnapshotOutput, error) {
	snapshot, err := s.ports.Assistant.GetMemorySnapshot(ctx, input.UserID, input.SessionID)
	if err != nil {
		return nil, MemorySnapshotOutput{}, err
	}

	output := MemorySnapshotOutput{
		Summary:   snapshot.Summary,
		Stateless: snapshot.Stateless,
	}
	for _, m := range snapshot.Recent {
		output.Recent = append(output.Recent, TurnOutput{Role: m.Role, Content: m.Content})
	}
	output.Profile = recordOutputs(snapshot.Profile)
	output.Knowledge = recordOutputs(snapshot.Knowledge)

	return nil, output, nil
}

func recordOutputs(records []domain.MemoryRecord) []RecordOutput {
	out := make([]RecordOutput, 0, len(records))
	for _, r := range records {
		out = append(out, RecordOutput{Key: r.Key, Value: r.Value})
	}
	return out
}
