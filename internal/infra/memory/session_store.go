package memory

import (
	"sync"

	"adaptive-quiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Each learner has at most one active session; Put replaces any prior one.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(learnerID string, session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[learnerID] = session
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
