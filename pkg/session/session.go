// Package session keeps per-conversation state for hosted agents.
//
// A session is keyed by the A2A context id. It accumulates the
// chat-completions message history that the agent replays to the model on
// every turn. Completed tasks are retained so tasks/get can serve them.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentwire/crosstalk/pkg/a2a"
	"github.com/agentwire/crosstalk/pkg/llms"
)

// ErrTaskNotFound is returned when a task id is unknown.
var ErrTaskNotFound = errors.New("task not found")

// Session is one conversation. Safe for concurrent use.
type Session struct {
	id string

	mu             sync.RWMutex
	history        []llms.ChatMessage
	createdAt      time.Time
	lastUpdateTime time.Time
}

func (s *Session) ID() string { return s.id }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) LastUpdateTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdateTime
}

// Append adds messages to the conversation history.
func (s *Session) Append(messages ...llms.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, messages...)
	s.lastUpdateTime = time.Now()
}

// History returns a copy of the conversation history.
func (s *Session) History() []llms.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]llms.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// Store is an in-memory session and task store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	tasks    map[string]*a2a.Task
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*Session),
		tasks:    make(map[string]*a2a.Task),
	}
}

// GetOrCreate returns the session for contextID, creating it if needed.
// An empty contextID starts a fresh session with a generated id.
func (s *Store) GetOrCreate(contextID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if contextID == "" {
		contextID = uuid.NewString()
	}
	if session, ok := s.sessions[contextID]; ok {
		return session
	}

	now := time.Now()
	session := &Session{
		id:             contextID,
		createdAt:      now,
		lastUpdateTime: now,
	}
	s.sessions[contextID] = session
	return session
}

func (s *Store) Get(contextID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[contextID]
	return session, ok
}

// SaveTask records a completed task for later retrieval via tasks/get.
func (s *Store) SaveTask(task *a2a.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
}

func (s *Store) Task(taskID string) (*a2a.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
