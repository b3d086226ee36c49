// Package a2a implements the Agent-to-Agent (A2A) protocol over
// JSON-RPC 2.0 / HTTP.
// Specification: https://a2a-protocol.org/
package a2a

import "time"

// ============================================================================
// MESSAGE - Conversation Messages (Spec Section 6.4)
// ============================================================================

// Message is one conversational turn. ContextID and TaskID are set on
// follow-up messages only: the first message of a session carries neither,
// and the responding endpoint assigns both.
type Message struct {
	Role      MessageRole `json:"role"`
	Parts     []Part      `json:"parts"`
	MessageID string      `json:"messageId"`
	ContextID string      `json:"contextId,omitempty"`
	TaskID    string      `json:"taskId,omitempty"`
	Kind      string      `json:"kind,omitempty"` // "message"
}

// MessageRole is the sender role of a message.
type MessageRole string

const (
	RoleUser  MessageRole = "user"
	RoleAgent MessageRole = "agent"
)

// Part is a unit of message or artifact content. Only text parts are
// produced here; the kind discriminator keeps the wire format open for
// file and data parts.
type Part struct {
	Kind string `json:"kind"` // "text"
	Text string `json:"text,omitempty"`
}

const PartKindText = "text"

// ============================================================================
// TASK - Unit of Work (Spec Section 6.1)
// ============================================================================

// Task is the result of one message/send: the server-assigned task id,
// the session context id, and the produced artifacts.
type Task struct {
	ID        string     `json:"id"`
	ContextID string     `json:"contextId,omitempty"`
	Status    TaskStatus `json:"status"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
	History   []Message  `json:"history,omitempty"`
	Kind      string     `json:"kind,omitempty"` // "task"
}

// TaskStatus reports the task state.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// TaskState enumerates task lifecycle states (Spec Section 6.3).
type TaskState string

const (
	TaskStateSubmitted TaskState = "submitted"
	TaskStateWorking   TaskState = "working"
	TaskStateCompleted TaskState = "completed"
	TaskStateFailed    TaskState = "failed"
)

// Artifact is a unit of task output (Spec Section 6.7).
type Artifact struct {
	ArtifactID string `json:"artifactId,omitempty"`
	Name       string `json:"name,omitempty"`
	Parts      []Part `json:"parts"`
}

// ============================================================================
// RPC PARAMETERS
// ============================================================================

// MessageSendParams carries the payload of message/send (Spec Section 7.1).
type MessageSendParams struct {
	Message Message `json:"message"`
}

// TaskQueryParams carries the payload of tasks/get (Spec Section 7.3).
type TaskQueryParams struct {
	ID string `json:"id"`
}

// ============================================================================
// AGENT CARD - Discovery (Spec Section 5)
// ============================================================================

// AgentCard advertises an agent's identity and capabilities.
type AgentCard struct {
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	URL                string            `json:"url"`
	Version            string            `json:"version,omitempty"`
	PreferredTransport string            `json:"preferredTransport,omitempty"`
	Capabilities       AgentCapabilities `json:"capabilities"`
	Skills             []AgentSkill      `json:"skills,omitempty"`
}

// AgentCapabilities describes what an agent supports.
type AgentCapabilities struct {
	Streaming         bool `json:"streaming"`
	PushNotifications bool `json:"pushNotifications"`
}

// AgentSkill describes one skill of the agent.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}
