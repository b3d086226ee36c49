// Package llms talks to an OpenAI-compatible chat-completions API. It is
// deliberately small: one provider, non-streaming, with function calling.
package llms

import "context"

// ChatMessage is a provider-neutral conversation entry. Role follows the
// chat-completions convention: system, user, assistant, tool.
type ChatMessage struct {
	Role       string
	Content    string
	ToolCalls  []*ToolCall
	ToolCallID string
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]interface{}
}

// ToolDefinition describes a callable function advertised to the model.
// Parameters is a JSON Schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

// Provider generates completions. Generate returns the assistant text, any
// tool calls the model requested, and the total tokens consumed.
type Provider interface {
	Generate(ctx context.Context, messages []ChatMessage, tools []ToolDefinition) (string, []*ToolCall, int, error)
	ModelName() string
	Close() error
}
