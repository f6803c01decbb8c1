package app

import (
	"context"
	"time"

	"clafootix/internal/domain"
)

// SessionRepository abstracts how round sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(userID string, create func(userID string) *RoundSession) *RoundSession
	Get(userID string) (*RoundSession, bool)
	Delete(userID string)
	List() []*RoundSession
}

// RoundService contains the Carrière Infernale use cases, one session per user.
type RoundService struct {
	sessions    SessionRepository
	oracle      Oracle
	distractors *DistractorGenerator
	cfg         RoundConfig
}

func NewRoundService(store SessionRepository, oracle Oracle, cfg RoundConfig) *RoundService {
	return &RoundService{
		sessions:    store,
		oracle:      oracle,
		distractors: NewDistractorGenerator(oracle.Pool),
		cfg:         cfg,
	}
}

func (s *RoundService) newSession(userID string) *RoundSession {
	return NewRoundSession(userID, s.cfg, s.oracle, s.distractors)
}

// ListRounds returns the rounds a user can pick from.
func (s *RoundService) ListRounds(ctx context.Context) ([]domain.RoundSummary, error) {
	return s.oracle.Rounds.ListAvailableRounds(ctx)
}

// Start loads a round for the user, a random active one when questionID is empty.
func (s *RoundService) Start(ctx context.Context, userID, questionID string) (domain.SessionSnapshot, error) {
	session := s.sessions.GetOrCreate(userID, s.newSession)
	if err := session.Load(ctx, questionID); err != nil {
		return session.Snapshot(), err
	}
	return session.Snapshot(), nil
}

// Toggle flips a club in the user's current selection.
func (s *RoundService) Toggle(_ context.Context, userID, entityID string) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	_, err := session.Toggle(entityID)
	return session.Snapshot(), err
}

// Validate submits the user's selection for the current item. When it ends
// the round this returns after the verdict and reward are settled.
func (s *RoundService) Validate(ctx context.Context, userID, itemID string) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	err := session.ValidateCurrent(ctx, itemID)
	return session.Snapshot(), err
}

// RetryReward re-attempts a failed cerises credit for the last completed round.
func (s *RoundService) RetryReward(ctx context.Context, userID string) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	err := session.RetryReward(ctx)
	return session.Snapshot(), err
}

// Abandon returns the user to round selection.
func (s *RoundService) Abandon(_ context.Context, userID string) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	session.Abandon()
	return session.Snapshot(), nil
}

// Snapshot returns the user's session state, creating an idle session if needed.
func (s *RoundService) Snapshot(_ context.Context, userID string) domain.SessionSnapshot {
	return s.sessions.GetOrCreate(userID, s.newSession).Snapshot()
}

// Subscribe returns a channel of session snapshots for a user.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *RoundService) Subscribe(_ context.Context, userID string) (<-chan domain.SessionSnapshot, func()) {
	session := s.sessions.GetOrCreate(userID, s.newSession)
	return session.subscribe()
}

// Leave drops the user's session once nothing is watching or running on it.
func (s *RoundService) Leave(_ context.Context, userID string) {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return
	}
	if session.IsIdle(time.Now()) {
		s.sessions.Delete(userID)
	}
}

// CleanUpInactiveSessions removes idle sessions untouched for maxIdle and
// returns how many were dropped.
func (s *RoundService) CleanUpInactiveSessions(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for _, session := range s.sessions.List() {
		if session.IsIdle(cutoff) {
			s.sessions.Delete(session.UserID())
			removed++
		}
	}
	return removed
}
