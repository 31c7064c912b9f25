package suggestion

import (
	"strings"
	"sync"
)

// Store keeps the latest suggestion state per dashboard session in memory.
// It is thread-safe; each mutation runs the pure reducer under the lock so
// concurrent dispatches serialize as last-write-wins on the session.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]State
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]State)}
}

func normalizeSessionID(id string) string {
	return strings.TrimSpace(id)
}

// Get returns the session's current state, or an empty state for an unknown
// session.
func (s *Store) Get(sessionID string) State {
	key := normalizeSessionID(sessionID)
	if key == "" {
		return NewState()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[key]
	if !ok {
		return NewState()
	}
	return st
}

// Dispatch applies one action to the session and returns the new state.
func (s *Store) Dispatch(sessionID string, action Action) State {
	key := normalizeSessionID(sessionID)
	if key == "" {
		return NewState()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[key]
	if !ok {
		st = NewState()
	}
	st = Reduce(st, action)
	s.sessions[key] = st
	return st
}

// SetGenerating flips the session's generation flag and status message.
func (s *Store) SetGenerating(sessionID string, active bool, status string) {
	s.setFlags(sessionID, func(st *State) {
		st.IsGenerating = active
		st.Status = status
	})
}

// SetAccepting flips the session's acceptance flag and status message.
func (s *Store) SetAccepting(sessionID string, active bool, status string) {
	s.setFlags(sessionID, func(st *State) {
		st.IsAccepting = active
		st.Status = status
	})
}

func (s *Store) setFlags(sessionID string, update func(*State)) {
	key := normalizeSessionID(sessionID)
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[key]
	if !ok {
		st = NewState()
	}
	update(&st)
	s.sessions[key] = st
}
