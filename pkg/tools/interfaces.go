// Package tools defines the tool abstraction exposed to agents and the
// built-in calculator tool.
package tools

import (
	"context"
	"time"
)

type ToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters,omitempty"`
}

type ToolParameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

type ToolResult struct {
	Success       bool          `json:"success"`
	Content       string        `json:"content,omitempty"`
	Error         string        `json:"error,omitempty"`
	ToolName      string        `json:"tool_name"`
	ExecutionTime time.Duration `json:"execution_time,omitempty"`
}

type Tool interface {
	GetInfo() ToolInfo

	Execute(ctx context.Context, args map[string]interface{}) (ToolResult, error)

	GetName() string

	GetDescription() string
}

// JSONSchema renders the parameter list as a JSON Schema object suitable
// for a chat-completions tools block.
func (i ToolInfo) JSONSchema() map[string]interface{} {
	properties := make(map[string]interface{})
	required := []string{}

	for _, p := range i.Parameters {
		properties[p.Name] = map[string]interface{}{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}
