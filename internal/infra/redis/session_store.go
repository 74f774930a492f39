package redis

import (
	"context"
	"sync"
	"time"

	"adaptive-quiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions hold live mutexes and an evaluator handle, so the session
//     object itself stays in a local in-process map.
//   - Redis marks session liveness per learner, which lets other instances
//     see that a learner has an attempt in flight (and could be extended to
//     share snapshots via pub/sub).
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(learnerID string, session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[learnerID] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(learnerID), session.Quiz().ID, s.ttl).Err()
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
	if _, ok := s.sessions[learnerID]; !ok {
		return
	}
	delete(s.sessions, learnerID)
	_ = s.client.Del(context.Background(), s.key(learnerID)).Err()
}

func (s *SessionStore) key(learnerID string) string {
	return "quiz:session:" + learnerID
}
