// Package agent implements the agents hosted behind A2A endpoints.
//
// Two implementations exist: LLMAgent drives an OpenAI-compatible model
// through a bounded tool-calling loop, and StaticAgent answers calculator
// questions directly without a model. Both produce completed A2A tasks.
package agent

import (
	"context"

	"github.com/agentwire/crosstalk/pkg/a2a"
)

// Agent handles one incoming A2A message and returns a completed task.
// The returned task carries the agent's answer as a text artifact.
type Agent interface {
	Name() string

	Description() string

	Card(baseURL string) a2a.AgentCard

	HandleMessage(ctx context.Context, message a2a.Message) (*a2a.Task, error)
}
