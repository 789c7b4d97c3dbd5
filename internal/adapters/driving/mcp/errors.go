// Package mcp provides an MCP (Model Context Protocol) server adapter
// for Anker. It exposes the assistant contract as tools so an external
// orchestrating agent can drive retrieval and memory over MCP.
package mcp

import "errors"

// ErrMissingAssistantService is returned when the assistant service is not provided.
var ErrMissingAssistantService = errors.New("mcp: assistant service is required")
