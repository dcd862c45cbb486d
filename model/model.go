package model

import (
	"context"
	"fmt"

	"github.com/hupe1980/tripmesh/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input produced by agents.
type Request struct {
	Instructions string            `json:"instructions"` // system prompt
	History      core.Conversation `json:"history"`      // trimmed conversation
	Tools        []ToolDefinition  `json:"tools,omitempty"`
	Stream       bool              `json:"stream,omitempty"`
	ForceJSON    bool              `json:"force_json,omitempty"` // constrain output to a JSON object
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
//
// For partial responses Text is the incremental delta; the final response
// carries the full accumulated text plus any aggregated tool calls.
type Response struct {
	ID           string          `json:"id"`
	Partial      bool            `json:"partial"`
	Text         string          `json:"text"`
	ToolCalls    []core.ToolCall `json:"tool_calls,omitempty"`
	FinishReason string          `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage     `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Canned completions, tool calls and errors are keyed on the content of the
// last turn in the request history.
type MockModel struct {
	info      Info
	responses map[string]string
	toolCalls map[string][]core.ToolCall
	failures  map[string]error
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses: make(map[string]string),
		toolCalls: make(map[string][]core.ToolCall),
		failures:  make(map[string]error),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// AddToolCall registers a tool call emitted alongside the final response for
// an input prompt.
func (m *MockModel) AddToolCall(prompt, name, arguments string) {
	m.toolCalls[prompt] = append(m.toolCalls[prompt], core.ToolCall{
		ID:        core.NewID(),
		Name:      name,
		Arguments: arguments,
	})
}

// AddFailure registers an error returned instead of a completion for an
// input prompt, simulating an unavailable upstream.
func (m *MockModel) AddFailure(prompt string, err error) { m.failures[prompt] = err }

// Generate implements Model; emits optional streaming char chunks then the
// final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)
		if len(req.History) == 0 {
			errCh <- fmt.Errorf("no history provided")
			return
		}
		inputText := req.History[len(req.History)-1].Content
		if err, ok := m.failures[inputText]; ok {
			errCh <- err
			return
		}
		full := m.responses[inputText]
		calls := m.toolCalls[inputText]
		if full == "" && len(calls) == 0 {
			full = fmt.Sprintf("Mock response to: %s", inputText)
		}
		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Text: string(r)}:
				}
			}
		}
		finish := "stop"
		if len(calls) > 0 {
			finish = "tool_calls"
		}
		respCh <- Response{
			Partial:      false,
			Text:         full,
			ToolCalls:    calls,
			FinishReason: finish,
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
