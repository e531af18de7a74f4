package server

import (
	"sync"

	"ttts/internal/game"
)

type liveSession struct {
	session *game.Session
	conns   [2]*Conn
}

// SessionStore indexes running sessions by id. A session leaves the store
// exactly once, during teardown.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]liveSession
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]liveSession)}
}

func (s *SessionStore) Put(session *game.Session, first, second *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = liveSession{session: session, conns: [2]*Conn{first, second}}
}

// Get returns the session and its two connections.
func (s *SessionStore) Get(id string) (*game.Session, [2]*Conn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	live, ok := s.sessions[id]
	return live.session, live.conns, ok
}

// Remove deletes id and reports whether it was present.
func (s *SessionStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// IDs returns a snapshot of the live session ids.
func (s *SessionStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
