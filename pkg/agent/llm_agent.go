package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agentwire/crosstalk/pkg/a2a"
	"github.com/agentwire/crosstalk/pkg/llms"
	"github.com/agentwire/crosstalk/pkg/session"
	"github.com/agentwire/crosstalk/pkg/tools"
)

// maxToolIterations bounds the tool-calling loop so a confused model
// cannot spin forever.
const maxToolIterations = 8

// LLMAgent answers messages by driving a chat-completions model through a
// tool-calling loop. Conversation history is kept per context id, so
// follow-up messages within the same context see prior turns.
type LLMAgent struct {
	name        string
	description string
	instruction string
	provider    llms.Provider
	registry    *tools.Registry
	store       *session.Store
	logger      *slog.Logger
}

type LLMAgentOptions struct {
	Name        string
	Description string
	Instruction string
	Provider    llms.Provider
	Registry    *tools.Registry
	Store       *session.Store
	Logger      *slog.Logger
}

func NewLLMAgent(opts LLMAgentOptions) (*LLMAgent, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("agent name is required")
	}
	if opts.Provider == nil {
		return nil, fmt.Errorf("agent %q: LLM provider is required", opts.Name)
	}
	if opts.Store == nil {
		opts.Store = session.NewStore()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &LLMAgent{
		name:        opts.Name,
		description: opts.Description,
		instruction: opts.Instruction,
		provider:    opts.Provider,
		registry:    opts.Registry,
		store:       opts.Store,
		logger:      opts.Logger,
	}, nil
}

func (a *LLMAgent) Name() string { return a.name }

func (a *LLMAgent) Description() string { return a.description }

func (a *LLMAgent) Store() *session.Store { return a.store }

func (a *LLMAgent) Card(baseURL string) a2a.AgentCard {
	card := a2a.AgentCard{
		Name:               a.name,
		Description:        a.description,
		URL:                baseURL,
		Version:            "1.0.0",
		PreferredTransport: "JSONRPC",
		Capabilities:       a2a.AgentCapabilities{},
	}
	if a.registry != nil {
		for _, info := range a.registry.List() {
			card.Skills = append(card.Skills, a2a.AgentSkill{
				ID:          info.Name,
				Name:        info.Name,
				Description: info.Description,
			})
		}
	}
	return card
}

func (a *LLMAgent) HandleMessage(ctx context.Context, message a2a.Message) (*a2a.Task, error) {
	text := a2a.MessageText(message)
	sess := a.store.GetOrCreate(message.ContextID)

	a.logger.Info("Handling message",
		"agent", a.name,
		"contextId", sess.ID(),
		"chars", len(text))

	userMsg := llms.ChatMessage{Role: "user", Content: text}

	// Working copy: system instruction + prior turns + this turn. Only the
	// turns are persisted back to the session.
	working := make([]llms.ChatMessage, 0, len(sess.History())+2)
	if a.instruction != "" {
		working = append(working, llms.ChatMessage{Role: "system", Content: a.instruction})
	}
	working = append(working, sess.History()...)
	working = append(working, userMsg)

	var newTurns []llms.ChatMessage
	newTurns = append(newTurns, userMsg)

	answer, err := a.runToolLoop(ctx, working, &newTurns)
	if err != nil {
		return nil, err
	}

	sess.Append(newTurns...)

	taskID := message.TaskID
	if taskID == "" {
		taskID = uuid.NewString()
	}

	task := &a2a.Task{
		ID:        taskID,
		ContextID: sess.ID(),
		Status: a2a.TaskStatus{
			State:     a2a.TaskStateCompleted,
			Timestamp: time.Now().UTC(),
		},
		Artifacts: []a2a.Artifact{a2a.NewTextArtifact(a.name+"-result", answer)},
		Kind:      "task",
	}
	a.store.SaveTask(task)

	return task, nil
}

func (a *LLMAgent) runToolLoop(ctx context.Context, working []llms.ChatMessage, newTurns *[]llms.ChatMessage) (string, error) {
	toolDefs := a.toolDefinitions()

	for iteration := 0; iteration < maxToolIterations; iteration++ {
		text, toolCalls, _, err := a.provider.Generate(ctx, working, toolDefs)
		if err != nil {
			return "", fmt.Errorf("agent %q: LLM call failed: %w", a.name, err)
		}

		if len(toolCalls) == 0 {
			*newTurns = append(*newTurns, llms.ChatMessage{Role: "assistant", Content: text})
			return text, nil
		}

		assistantMsg := llms.ChatMessage{Role: "assistant", Content: text, ToolCalls: toolCalls}
		working = append(working, assistantMsg)
		*newTurns = append(*newTurns, assistantMsg)

		for _, tc := range toolCalls {
			content := a.executeTool(ctx, tc)

			toolMsg := llms.ChatMessage{Role: "tool", Content: content, ToolCallID: tc.ID}
			working = append(working, toolMsg)
			*newTurns = append(*newTurns, toolMsg)
		}
	}

	return "", fmt.Errorf("agent %q: tool loop exceeded %d iterations", a.name, maxToolIterations)
}

// executeTool runs one requested tool call and renders its outcome for
// the model. A backend can request tools the agent never advertised, so
// a missing registry answers with an error string instead of panicking.
func (a *LLMAgent) executeTool(ctx context.Context, tc *llms.ToolCall) string {
	if a.registry == nil {
		a.logger.Warn("Tool call without a registry",
			"agent", a.name,
			"tool", tc.Name)
		return fmt.Sprintf("Error: tool %q is not available", tc.Name)
	}

	result, _ := a.registry.Execute(ctx, tc.Name, tc.Args)

	content := result.Content
	if content == "" {
		content = result.Error
	}

	a.logger.Debug("Tool executed",
		"agent", a.name,
		"tool", tc.Name,
		"success", result.Success)

	return content
}

func (a *LLMAgent) toolDefinitions() []llms.ToolDefinition {
	if a.registry == nil {
		return nil
	}
	infos := a.registry.List()
	defs := make([]llms.ToolDefinition, len(infos))
	for i, info := range infos {
		defs[i] = llms.ToolDefinition{
			Name:        info.Name,
			Description: info.Description,
			Parameters:  info.JSONSchema(),
		}
	}
	return defs
}
