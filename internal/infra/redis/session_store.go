package redis

import (
	"context"
	"sync"
	"time"

	"clafootix/internal/app"
	"github.com/google/logger"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions themselves stay in a local map; their countdowns and
//     subscribers are bound to this process.
//   - Redis marks which users have a live session so other instances (or
//     operators) can see where a player is connected.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	node     string
	mu       sync.RWMutex
	sessions map[string]*app.RoundSession
}

func NewSessionStore(client *redis.Client, ttl time.Duration, node string) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		node:     node,
		sessions: make(map[string]*app.RoundSession),
	}
}

func (s *SessionStore) GetOrCreate(userID string, create func(userID string) *app.RoundSession) *app.RoundSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[userID]; ok {
		s.markLive(userID)
		return session
	}
	session := create(userID)
	s.sessions[userID] = session
	s.markLive(userID)
	return session
}

// Get returns the local session and refreshes its liveness marker.
func (s *SessionStore) Get(userID string) (*app.RoundSession, bool) {
	s.mu.RLock()
	session, ok := s.sessions[userID]
	s.mu.RUnlock()
	if ok {
		s.markLive(userID)
	}
	return session, ok
}

func (s *SessionStore) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[userID]; !ok {
		return
	}
	delete(s.sessions, userID)
	_ = s.client.Del(context.Background(), s.key(userID)).Err()
}

func (s *SessionStore) List() []*app.RoundSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.RoundSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out
}

// markLive is best effort; a Redis outage must not block gameplay.
func (s *SessionStore) markLive(userID string) {
	if err := s.client.Set(context.Background(), s.key(userID), s.node, s.ttl).Err(); err != nil {
		logger.Warningf("mark session %s live: %v", userID, err)
	}
}

func (s *SessionStore) key(userID string) string {
	return "round:session:" + userID
}
