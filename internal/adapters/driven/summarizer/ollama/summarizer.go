// Package ollama provides a conversation summarizer adapter using Ollama.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/veridian-labs/anker/internal/core/domain"
	"github.com/veridian-labs/anker/internal/core/ports/driven"
)

// Ensure SummarizerService implements the interface.
var _ driven.SummarizerService = (*SummarizerService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 120 * time.Second
)

// summaryPrompt folds new turns into the running summary. The model is
// asked for a summary of the entire conversation, so the output fully
// supersedes the prior summary rather than appending to it.
const summaryPrompt = `You are a helpful assistant that summarizes conversation history.
Your goal is to create a concise, running summary of the conversation so far.

Current Summary:
%s

New Messages to Summarize:
%s

Please provide an updated, concise summary of the ENTIRE conversation so far.
Focus on key facts, user preferences, names, specific financial instruments discussed, and the overall context.
DO NOT respond to the messages, just summarize the facts.`

// Config holds configuration for the Ollama summarizer.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// SummarizerService condenses conversation messages using Ollama.
type SummarizerService struct {
	client  *http.Client
	baseURL string
	model   string
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	Temperature float64 `json:"temperature"`
}

// generateResponse is the Ollama /api/generate response format.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewSummarizerService creates a new Ollama summarizer.
func NewSummarizerService(cfg Config) *SummarizerService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &SummarizerService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Summarize folds messages into currentSummary and returns the updated
// summary of the whole conversation.
func (s *SummarizerService) Summarize(
	ctx context.Context, messages []domain.Message, currentSummary string,
) (string, error) {
	if len(messages) == 0 {
		return currentSummary, nil
	}

	var lines []string
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		role := "User"
		if m.Role == "assistant" {
			role = "Assistant"
		}
		lines = append(lines, role+": "+m.Content)
	}

	prior := currentSummary
	if prior == "" {
		prior = "No previous summary."
	}
	prompt := fmt.Sprintf(summaryPrompt, prior, strings.Join(lines, "\n"))

	jsonBody, err := json.Marshal(generateRequest{
		Model:   s.model,
		Prompt:  prompt,
		Stream:  false,
		Options: &options{Temperature: 0.1},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
		}
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	summary := strings.TrimSpace(genResp.Response)
	if summary == "" {
		return "", fmt.Errorf("ollama returned an empty summary")
	}
	return summary, nil
}

// ModelName returns the name of the summarization model being used.
func (s *SummarizerService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
func (s *SummarizerService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama: API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (s *SummarizerService) Close() error {
	return nil
}
