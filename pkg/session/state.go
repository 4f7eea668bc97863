package session

import (
	"sync"
	"sync/atomic"

	"igcourier/pkg/models"
)

// State is the controller state of one chat session.
type State int

const (
	StateIdle State = iota
	StateAwaitingParameters
	StateDelivering
	StatePausedAwaitingContinue
)

func (s State) String() string {
	switch s {
	case StateAwaitingParameters:
		return "awaiting_parameters"
	case StateDelivering:
		return "delivering"
	case StatePausedAwaitingContinue:
		return "paused_awaiting_continue"
	default:
		return "idle"
	}
}

// Session holds the per-chat state: the active feature, the pending media
// queue, the last-used pagination cursor and the stop flag. One instance
// exists per chat, created on first interaction and never persisted; it is
// lost on process restart.
type Session struct {
	ChatID string

	mu          sync.Mutex
	state       State
	feature     models.Mode
	queue       []models.MediaRef
	cursor      string
	lastCommand string

	stop atomic.Bool

	// flow serializes delivery passes: each command handler for this
	// session runs to completion before the next one starts.
	flow sync.Mutex
}

// State returns the current controller state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Feature returns the active feature mode.
func (s *Session) Feature() models.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feature
}

// SetFeature selects a feature and moves the session to awaiting
// parameters.
func (s *Session) SetFeature(mode models.Mode) {
	s.mu.Lock()
	s.feature = mode
	s.state = StateAwaitingParameters
	s.mu.Unlock()
}

// BeginDelivery installs a freshly extracted queue, records the cursor and
// the command that produced it, clears any previous stop request and moves
// the session to delivering.
func (s *Session) BeginDelivery(refs []models.MediaRef, cursor string, command string) {
	s.mu.Lock()
	s.queue = refs
	s.cursor = cursor
	s.lastCommand = command
	s.state = StateDelivering
	s.mu.Unlock()
	s.stop.Store(false)
}

// Next removes and returns the head of the pending queue. The element is
// removed before its download begins, so an interrupted drain resumes at
// the next undelivered item without re-delivery.
func (s *Session) Next() (models.MediaRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return models.MediaRef{}, false
	}
	ref := s.queue[0]
	s.queue = s.queue[1:]
	return ref, true
}

// Pending returns the number of queued media references.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Cursor returns the last-seen pagination cursor; empty means the final
// page was reached.
func (s *Session) Cursor() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// LastCommand returns the raw command text that started the current
// delivery.
func (s *Session) LastCommand() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCommand
}

// RequestStop raises the cooperative stop flag. It is polled by the batch
// dispatcher between dequeue iterations.
func (s *Session) RequestStop() {
	s.stop.Store(true)
}

// ClearStop lowers the stop flag.
func (s *Session) ClearStop() {
	s.stop.Store(false)
}

// Stopped reports whether a stop has been requested.
func (s *Session) Stopped() bool {
	return s.stop.Load()
}

// Discard drops the pending queue and returns the session to idle.
func (s *Session) Discard() {
	s.mu.Lock()
	s.queue = nil
	s.state = StateIdle
	s.mu.Unlock()
	s.stop.Store(false)
}

// Manager owns the sessions of all chats. Sessions are independent; no
// state is shared across chats.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Get returns the session for a chat, creating it on first interaction.
func (m *Manager) Get(chatID string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[chatID]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[chatID]; ok {
		return s
	}
	s = &Session{ChatID: chatID, state: StateIdle}
	m.sessions[chatID] = s
	return s
}

// Len returns the number of known sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
