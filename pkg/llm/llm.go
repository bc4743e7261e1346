// Package llm is the boundary to the language model. The rest of the system
// talks to the Provider interface; the concrete client speaks the
// OpenAI-compatible chat completions protocol.
package llm

import (
	"context"
	"encoding/json"

	"github.com/beq-project/beq/pkg/models"
)

// Message is one turn of model-visible conversation context.
type Message struct {
	Role       models.Role `json:"role"`
	Content    string      `json:"content"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
	// ToolCalls is set on assistant messages that requested tool execution,
	// so the request/response pairing survives a history replay.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is a model request to execute one registered tool.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolDefinition describes one callable tool advertised to the model.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// CompletionRequest is one chat completion call.
type CompletionRequest struct {
	SystemPrompt string
	Messages     []Message
	Tools        []ToolDefinition
}

// Completion is the assistant's reply: either free text, tool calls, or both.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
}

// HasToolCalls reports whether the model asked for tool execution.
func (c *Completion) HasToolCalls() bool {
	return len(c.ToolCalls) > 0
}

// Provider generates completions. Implementations must be safe for
// concurrent use.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}
