package session

import (
	"errors"
	"sync"
)

var (
	// ErrExists reports an Add with an ID already registered.
	ErrExists = errors.New("session id already registered")
)

// Store is the concurrent registry of live sessions. It is the only mutable
// state shared across connections; every insertion, lookup, and deletion is
// safe under concurrent connection lifecycles.
//
// Contract: a session is added exactly once when its connection opens and
// removed exactly once when it closes, through any teardown path. Remove is
// idempotent.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty registry.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Add registers a session under its ID.
func (st *Store) Add(s *Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[s.ID]; ok {
		return ErrExists
	}
	st.sessions[s.ID] = s
	return nil
}

// Get looks up a live session.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Remove deletes and returns the session, or nil if it was already removed.
func (st *Store) Remove(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.sessions[id]
	delete(st.sessions, id)
	return s
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// All returns a snapshot of the live sessions in no particular order.
func (st *Store) All() []*Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		out = append(out, s)
	}
	return out
}
