// Package relay drives a multi-round conversation between two A2A
// endpoints.
//
// The driver alternates: endpoint A's answer becomes the next user message
// to endpoint B and vice versa. The context id assigned by the first
// endpoint to answer is treated as one logical session spanning both
// agents and is echoed on every subsequent message. Task ids are
// endpoint-local and never cross endpoints.
package relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentwire/crosstalk/pkg/a2a"
	"github.com/agentwire/crosstalk/pkg/observability"
)

// State is the driver's lifecycle state.
type State string

const (
	StateInit    State = "INIT"
	StateSendA   State = "ROUND_SEND_A"
	StateSendB   State = "ROUND_SEND_B"
	StateDone    State = "DONE"
	StateAborted State = "ABORTED"
)

// Sender posts one message/send call. *a2a.Client satisfies this.
type Sender interface {
	SendMessage(ctx context.Context, endpointURL string, message a2a.Message, threadID string) (*a2a.Task, error)
}

// Endpoint identifies one of the two conversation partners.
type Endpoint struct {
	Name string
	URL  string
}

// Turn records one completed message exchange.
type Turn struct {
	Round     int    `json:"round"`
	Endpoint  string `json:"endpoint"`
	Sent      string `json:"sent"`
	Received  string `json:"received"`
	TaskID    string `json:"taskId,omitempty"`
	ContextID string `json:"contextId,omitempty"`
}

// Result is the outcome of one relay run. Err is set only when the run
// aborted.
type Result struct {
	State          State
	RoundsComplete int
	Turns          []Turn
	Err            error
}

type Options struct {
	EndpointA      Endpoint
	EndpointB      Endpoint
	Rounds         int
	InitialMessage string
	RoundDelay     time.Duration
	Client         Sender
	Logger         *slog.Logger
	Metrics        *observability.Metrics
}

// endpointState carries the per-endpoint task id across rounds.
type endpointState struct {
	Endpoint
	sendState State
	taskID    string
}

// Driver runs the relay. It is single-actor: one outstanding call at a
// time, no retries, first failure aborts the run.
type Driver struct {
	a, b           endpointState
	rounds         int
	initialMessage string
	roundDelay     time.Duration
	client         Sender
	logger         *slog.Logger
	metrics        *observability.Metrics

	state State

	// contextID is shared across both endpoints once either assigns one.
	// Until then threadID falls back to a generated shared id.
	contextID      string
	sharedThreadID string
}

func New(opts Options) (*Driver, error) {
	if opts.EndpointA.URL == "" || opts.EndpointB.URL == "" {
		return nil, fmt.Errorf("relay requires two endpoint URLs")
	}
	if opts.Rounds <= 0 {
		return nil, fmt.Errorf("relay requires a positive round count, got %d", opts.Rounds)
	}
	if opts.InitialMessage == "" {
		return nil, fmt.Errorf("relay requires an initial message")
	}
	if opts.EndpointA.Name == "" {
		opts.EndpointA.Name = "agent-a"
	}
	if opts.EndpointB.Name == "" {
		opts.EndpointB.Name = "agent-b"
	}
	if opts.Client == nil {
		opts.Client = a2a.NewClient(nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Driver{
		a:              endpointState{Endpoint: opts.EndpointA, sendState: StateSendA},
		b:              endpointState{Endpoint: opts.EndpointB, sendState: StateSendB},
		rounds:         opts.Rounds,
		initialMessage: opts.InitialMessage,
		roundDelay:     opts.RoundDelay,
		client:         opts.Client,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		state:          StateInit,
	}, nil
}

// State reports the driver's current state.
func (d *Driver) State() State { return d.state }

// Run executes the relay until the round count is reached or a failure
// aborts it. The returned Result always describes what happened; the error
// return mirrors Result.Err for convenience.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	d.sharedThreadID = uuid.NewString()
	d.contextID = ""
	d.a.taskID = ""
	d.b.taskID = ""

	result := &Result{State: StateAborted}
	message := d.initialMessage

	d.logger.Info("Relay starting",
		"endpointA", d.a.URL,
		"endpointB", d.b.URL,
		"rounds", d.rounds,
		"threadId", d.sharedThreadID)

	for round := 1; round <= d.rounds; round++ {
		for _, ep := range []*endpointState{&d.a, &d.b} {
			d.state = ep.sendState

			received, err := d.exchange(ctx, ep, round, message, result)
			if err != nil {
				d.state = StateAborted
				result.State = StateAborted
				result.Err = err
				d.recordRound("aborted")
				d.logger.Error("Relay aborted",
					"round", round,
					"endpoint", ep.Name,
					"error", err)
				return result, err
			}
			message = received
		}

		result.RoundsComplete = round
		d.recordRound("ok")

		if round < d.rounds && d.roundDelay > 0 {
			if err := sleepCtx(ctx, d.roundDelay); err != nil {
				d.state = StateAborted
				result.State = StateAborted
				result.Err = err
				return result, err
			}
		}
	}

	d.state = StateDone
	result.State = StateDone
	d.logger.Info("Relay completed", "rounds", result.RoundsComplete)
	return result, nil
}

// exchange sends message to one endpoint and returns the endpoint's answer.
func (d *Driver) exchange(ctx context.Context, ep *endpointState, round int, text string, result *Result) (string, error) {
	tracer := otel.Tracer("crosstalk/relay")
	ctx, span := tracer.Start(ctx, observability.SpanRelayRound,
		trace.WithAttributes(
			attribute.Int("relay.round", round),
			attribute.String("relay.endpoint", ep.Name),
		),
	)
	defer span.End()

	threadID := d.contextID
	if threadID == "" {
		threadID = d.sharedThreadID
	}
	span.SetAttributes(attribute.String(observability.AttrThreadID, threadID))

	msg := a2a.NewTextMessage(a2a.RoleUser, text)
	msg.ContextID = d.contextID
	msg.TaskID = ep.taskID

	d.logger.Info("Sending message",
		"round", round,
		"endpoint", ep.Name,
		"contextId", d.contextID,
		"taskId", ep.taskID,
		"chars", len(text))

	task, err := d.client.SendMessage(ctx, ep.URL, msg, threadID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("endpoint %s: %w", ep.Name, err)
	}

	received := a2a.ExtractText(task)
	if received == "" {
		err := &a2a.ProtocolError{Message: "task has no text artifact"}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("endpoint %s: %w", ep.Name, err)
	}

	// Ids absent from a response do not clear the last-known values.
	if task.ID != "" {
		ep.taskID = task.ID
	}
	if task.ContextID != "" {
		d.contextID = task.ContextID
		d.sharedThreadID = task.ContextID
	}

	span.SetAttributes(
		attribute.String(observability.AttrContextID, task.ContextID),
		attribute.String(observability.AttrTaskID, task.ID),
	)
	span.SetStatus(codes.Ok, "success")

	d.logger.Info("Received answer",
		"round", round,
		"endpoint", ep.Name,
		"contextId", task.ContextID,
		"taskId", task.ID,
		"chars", len(received))

	result.Turns = append(result.Turns, Turn{
		Round:     round,
		Endpoint:  ep.Name,
		Sent:      text,
		Received:  received,
		TaskID:    task.ID,
		ContextID: task.ContextID,
	})

	return received, nil
}

func (d *Driver) recordRound(outcome string) {
	if d.metrics != nil {
		d.metrics.RecordRelayRound(outcome)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
