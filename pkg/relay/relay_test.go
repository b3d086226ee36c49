package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/agentwire/crosstalk/pkg/a2a"
)

// scripted response for one inbound call.
type mockReply struct {
	status int
	body   string
}

// recordedCall is what the mock endpoint saw on one message/send.
type recordedCall struct {
	threadID string
	message  a2a.Message
}

// mockEndpoint replays scripted replies and records every envelope.
type mockEndpoint struct {
	mu      sync.Mutex
	replies []mockReply
	calls   []recordedCall
	server  *httptest.Server
}

func newMockEndpoint(t *testing.T, replies ...mockReply) *mockEndpoint {
	t.Helper()
	m := &mockEndpoint{replies: replies}
	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()

		var rpcReq a2a.Request
		if err := json.NewDecoder(r.Body).Decode(&rpcReq); err != nil {
			t.Errorf("Mock failed to decode request: %v", err)
		}

		call := recordedCall{}
		if rpcReq.Metadata != nil {
			call.threadID = rpcReq.Metadata.ThreadID
		}
		var params a2a.MessageSendParams
		if err := json.Unmarshal(rpcReq.Params, &params); err != nil {
			t.Errorf("Mock failed to decode params: %v", err)
		}
		call.message = params.Message
		m.calls = append(m.calls, call)

		if len(m.replies) == 0 {
			t.Error("Mock received more calls than scripted replies")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		reply := m.replies[0]
		m.replies = m.replies[1:]

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(reply.status)
		_, _ = w.Write([]byte(reply.body))
	}))
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockEndpoint) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockEndpoint) call(i int) recordedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[i]
}

func taskReply(taskID, contextID, text string) mockReply {
	result := fmt.Sprintf(`{"id": %q, "contextId": %q, "status": {"state": "completed"}, "artifacts": [{"parts": [{"kind": "text", "text": %q}]}]}`,
		taskID, contextID, text)
	return mockReply{
		status: http.StatusOK,
		body:   fmt.Sprintf(`{"jsonrpc": "2.0", "id": 1, "result": %s}`, result),
	}
}

func newDriver(t *testing.T, a, b *mockEndpoint, rounds int) *Driver {
	t.Helper()
	d, err := New(Options{
		EndpointA:      Endpoint{Name: "alpha", URL: a.server.URL},
		EndpointB:      Endpoint{Name: "beta", URL: b.server.URL},
		Rounds:         rounds,
		InitialMessage: "Hello",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d
}

func TestNew_Validation(t *testing.T) {
	base := Options{
		EndpointA:      Endpoint{URL: "http://a"},
		EndpointB:      Endpoint{URL: "http://b"},
		Rounds:         1,
		InitialMessage: "hi",
	}

	if _, err := New(base); err != nil {
		t.Errorf("New() error = %v, want nil", err)
	}

	missingURL := base
	missingURL.EndpointB.URL = ""
	if _, err := New(missingURL); err == nil {
		t.Error("New() without endpoint URL should fail")
	}

	zeroRounds := base
	zeroRounds.Rounds = 0
	if _, err := New(zeroRounds); err == nil {
		t.Error("New() with zero rounds should fail")
	}

	noMessage := base
	noMessage.InitialMessage = ""
	if _, err := New(noMessage); err == nil {
		t.Error("New() without initial message should fail")
	}
}

func TestDriver_ThreadsIdentifiersAcrossRounds(t *testing.T) {
	a := newMockEndpoint(t,
		taskReply("t1", "c1", "Hi back"),
		taskReply("t3", "c1", "Still here"),
	)
	b := newMockEndpoint(t,
		taskReply("t2", "c1", "Hello from beta"),
		taskReply("t4", "c1", "Goodbye"),
	)

	d := newDriver(t, a, b, 2)
	result, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.State != StateDone || d.State() != StateDone {
		t.Errorf("State = %s/%s, want DONE", result.State, d.State())
	}
	if result.RoundsComplete != 2 {
		t.Errorf("RoundsComplete = %d, want 2", result.RoundsComplete)
	}
	if len(result.Turns) != 4 {
		t.Fatalf("Turns = %d, want 4", len(result.Turns))
	}

	// First message to A: no context id yet, thread id is the generated one.
	firstA := a.call(0)
	if firstA.message.ContextID != "" || firstA.message.TaskID != "" {
		t.Errorf("First call to A carried ids: %+v", firstA.message)
	}
	if firstA.threadID == "" {
		t.Error("First call to A should carry the generated thread id")
	}
	if got := a2a.MessageText(firstA.message); got != "Hello" {
		t.Errorf("First message to A = %q, want Hello", got)
	}

	// A answered "Hi back" with context c1: B must receive that text with
	// thread id c1 and the shared context id.
	firstB := b.call(0)
	if got := a2a.MessageText(firstB.message); got != "Hi back" {
		t.Errorf("First message to B = %q, want %q", got, "Hi back")
	}
	if firstB.threadID != "c1" {
		t.Errorf("First call to B thread id = %q, want c1", firstB.threadID)
	}
	if firstB.message.ContextID != "c1" {
		t.Errorf("First call to B context id = %q, want c1", firstB.message.ContextID)
	}

	// Round 2 to A: context id echoed unchanged, task id is A's own t1,
	// never B's t2.
	secondA := a.call(1)
	if secondA.message.ContextID != "c1" {
		t.Errorf("Second call to A context id = %q, want c1", secondA.message.ContextID)
	}
	if secondA.message.TaskID != "t1" {
		t.Errorf("Second call to A task id = %q, want t1", secondA.message.TaskID)
	}
	if got := a2a.MessageText(secondA.message); got != "Hello from beta" {
		t.Errorf("Second message to A = %q, want %q", got, "Hello from beta")
	}

	secondB := b.call(1)
	if secondB.message.TaskID != "t2" {
		t.Errorf("Second call to B task id = %q, want t2", secondB.message.TaskID)
	}
}

func TestDriver_HaltsOnHTTPError(t *testing.T) {
	a := newMockEndpoint(t,
		taskReply("t1", "c1", "Hi back"),
		mockReply{status: http.StatusInternalServerError, body: "boom"},
	)
	b := newMockEndpoint(t,
		taskReply("t2", "c1", "Hello from beta"),
	)

	d := newDriver(t, a, b, 3)
	result, err := d.Run(context.Background())
	if err == nil {
		t.Fatal("Run() error = nil, want transport error")
	}

	var transportErr *a2a.TransportError
	if !errors.As(err, &transportErr) {
		t.Errorf("Run() error = %v, want TransportError", err)
	}
	if result.State != StateAborted || d.State() != StateAborted {
		t.Errorf("State = %s/%s, want ABORTED", result.State, d.State())
	}
	if result.RoundsComplete != 1 {
		t.Errorf("RoundsComplete = %d, want 1", result.RoundsComplete)
	}

	// No further calls after the failure: A saw 2, B saw only 1.
	if a.callCount() != 2 {
		t.Errorf("Calls to A = %d, want 2", a.callCount())
	}
	if b.callCount() != 1 {
		t.Errorf("Calls to B = %d, want 1", b.callCount())
	}
}

func TestDriver_AbortsOnMissingResult(t *testing.T) {
	a := newMockEndpoint(t,
		mockReply{status: http.StatusOK, body: `{"jsonrpc": "2.0", "id": 1}`},
	)
	b := newMockEndpoint(t)

	d := newDriver(t, a, b, 2)
	result, err := d.Run(context.Background())
	if err == nil {
		t.Fatal("Run() error = nil, want protocol error")
	}

	var protoErr *a2a.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Errorf("Run() error = %v, want ProtocolError", err)
	}
	if result.State != StateAborted {
		t.Errorf("State = %s, want ABORTED", result.State)
	}
	if b.callCount() != 0 {
		t.Errorf("Calls to B = %d, want 0", b.callCount())
	}
}

func TestDriver_AbortsOnErrorField(t *testing.T) {
	a := newMockEndpoint(t,
		mockReply{status: http.StatusOK, body: `{"jsonrpc": "2.0", "id": 1, "error": {"code": -32603, "message": "agent exploded"}}`},
	)
	b := newMockEndpoint(t)

	d := newDriver(t, a, b, 1)
	_, err := d.Run(context.Background())
	if err == nil {
		t.Fatal("Run() error = nil, want protocol error")
	}

	var protoErr *a2a.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("Run() error = %v, want ProtocolError", err)
	}
	if protoErr.RPC == nil || protoErr.RPC.Message != "agent exploded" {
		t.Errorf("ProtocolError = %+v, want agent exploded", protoErr)
	}
}

func TestDriver_AbortsOnMissingArtifactText(t *testing.T) {
	a := newMockEndpoint(t,
		mockReply{status: http.StatusOK, body: `{"jsonrpc": "2.0", "id": 1, "result": {"id": "t1", "contextId": "c1", "artifacts": []}}`},
	)
	b := newMockEndpoint(t)

	d := newDriver(t, a, b, 1)
	result, err := d.Run(context.Background())
	if err == nil {
		t.Fatal("Run() error = nil, want protocol error")
	}
	if result.State != StateAborted {
		t.Errorf("State = %s, want ABORTED", result.State)
	}
}

func TestDriver_RetainsIdsWhenResponseOmitsThem(t *testing.T) {
	a := newMockEndpoint(t,
		taskReply("t1", "c1", "first"),
		// second reply omits both ids
		mockReply{status: http.StatusOK, body: `{"jsonrpc": "2.0", "id": 1, "result": {"artifacts": [{"parts": [{"kind": "text", "text": "second"}]}]}}`},
		taskReply("t5", "c1", "third"),
	)
	b := newMockEndpoint(t,
		taskReply("t2", "c1", "beta one"),
		taskReply("t4", "c1", "beta two"),
		taskReply("t6", "c1", "beta three"),
	)

	d := newDriver(t, a, b, 3)
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// Third call to A still carries the values learned in round 1.
	thirdA := a.call(2)
	if thirdA.message.ContextID != "c1" {
		t.Errorf("Third call to A context id = %q, want retained c1", thirdA.message.ContextID)
	}
	if thirdA.message.TaskID != "t1" {
		t.Errorf("Third call to A task id = %q, want retained t1", thirdA.message.TaskID)
	}
}

func TestDriver_FallsBackToSharedThreadID(t *testing.T) {
	// Endpoints that never assign a context id.
	noContext := func(taskID, text string) mockReply {
		return mockReply{
			status: http.StatusOK,
			body: fmt.Sprintf(`{"jsonrpc": "2.0", "id": 1, "result": {"id": %q, "artifacts": [{"parts": [{"kind": "text", "text": %q}]}]}}`,
				taskID, text),
		}
	}

	a := newMockEndpoint(t, noContext("t1", "one"), noContext("t3", "three"))
	b := newMockEndpoint(t, noContext("t2", "two"), noContext("t4", "four"))

	d := newDriver(t, a, b, 2)
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	shared := a.call(0).threadID
	if shared == "" {
		t.Fatal("Shared thread id should be generated")
	}
	for i := 0; i < 2; i++ {
		if a.call(i).threadID != shared {
			t.Errorf("Call %d to A thread id = %q, want %q", i, a.call(i).threadID, shared)
		}
		if b.call(i).threadID != shared {
			t.Errorf("Call %d to B thread id = %q, want %q", i, b.call(i).threadID, shared)
		}
		if a.call(i).message.ContextID != "" {
			t.Errorf("Call %d to A should carry no context id", i)
		}
	}
}

func TestDriver_CancelledContext(t *testing.T) {
	a := newMockEndpoint(t, taskReply("t1", "c1", "one"))
	b := newMockEndpoint(t, taskReply("t2", "c1", "two"))

	d, err := New(Options{
		EndpointA:      Endpoint{URL: a.server.URL},
		EndpointB:      Endpoint{URL: b.server.URL},
		Rounds:         5,
		InitialMessage: "Hello",
		RoundDelay:     10 * time.Second, // cancelled during pacing
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		// Cancel once both first-round calls have happened.
		for b.callCount() == 0 {
			time.Sleep(5 * time.Millisecond)
		}
		cancel()
	}()

	result, err := d.Run(ctx)
	if err == nil {
		t.Fatal("Run() error = nil, want context cancellation")
	}
	if result.State != StateAborted {
		t.Errorf("State = %s, want ABORTED", result.State)
	}
}
