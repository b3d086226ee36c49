package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agentwire/crosstalk/pkg/a2a"
	"github.com/agentwire/crosstalk/pkg/llms"
	"github.com/agentwire/crosstalk/pkg/session"
	"github.com/agentwire/crosstalk/pkg/tools"
)

// StaticAgent answers by feeding the incoming message text straight to the
// calculator tool, with no model in the loop. Useful for local runs and
// tests where no API key is available.
type StaticAgent struct {
	name        string
	description string
	calculator  *tools.CalculatorTool
	store       *session.Store
	logger      *slog.Logger
}

func NewStaticAgent(name, description string, store *session.Store, logger *slog.Logger) *StaticAgent {
	if store == nil {
		store = session.NewStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StaticAgent{
		name:        name,
		description: description,
		calculator:  tools.NewCalculatorTool(),
		store:       store,
		logger:      logger,
	}
}

func (a *StaticAgent) Name() string { return a.name }

func (a *StaticAgent) Description() string { return a.description }

func (a *StaticAgent) Store() *session.Store { return a.store }

func (a *StaticAgent) Card(baseURL string) a2a.AgentCard {
	info := a.calculator.GetInfo()
	return a2a.AgentCard{
		Name:               a.name,
		Description:        a.description,
		URL:                baseURL,
		Version:            "1.0.0",
		PreferredTransport: "JSONRPC",
		Capabilities:       a2a.AgentCapabilities{},
		Skills: []a2a.AgentSkill{
			{ID: info.Name, Name: info.Name, Description: info.Description},
		},
	}
}

func (a *StaticAgent) HandleMessage(ctx context.Context, message a2a.Message) (*a2a.Task, error) {
	text := a2a.MessageText(message)
	sess := a.store.GetOrCreate(message.ContextID)

	result, _ := a.calculator.Execute(ctx, map[string]interface{}{"expression": text})
	answer := result.Content

	a.logger.Info("Static agent answered",
		"agent", a.name,
		"contextId", sess.ID(),
		"success", result.Success)

	sess.Append(
		llms.ChatMessage{Role: "user", Content: text},
		llms.ChatMessage{Role: "assistant", Content: answer},
	)

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
