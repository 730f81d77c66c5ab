package memory

import (
	"sync"

	"prep-quiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) GetOrCreate(learnerID, displayName string, privileged bool) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[learnerID]; ok {
		return session
	}
	session := app.NewSession(learnerID, displayName, privileged)
	s.sessions[learnerID] = session
	return session
}

func (s *SessionStore) Get(learnerID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[learnerID]
	return session, ok
}

func (s *SessionStore) Delete(learnerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, learnerID)
}
