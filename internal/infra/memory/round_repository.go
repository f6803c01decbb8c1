package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"clafootix/internal/domain"
	"golang.org/x/sync/singleflight"
)

// RoundLoader fetches round content from a backing store (e.g., Postgres).
type RoundLoader interface {
	LoadRound(ctx context.Context, questionID string) (domain.RoundDefinition, error)
	ListAvailableRounds(ctx context.Context) ([]domain.RoundSummary, error)
}

// RoundRepository caches round definitions with TTL to avoid repeated DB hits.
// Listings are not cached so newly activated rounds show up immediately.
type RoundRepository struct {
	loader RoundLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedRound
}

type cachedRound struct {
	round     domain.RoundDefinition
	expiresAt time.Time
}

func NewRoundRepository(loader RoundLoader, ttl time.Duration) *RoundRepository {
	return &RoundRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedRound),
	}
}

func (r *RoundRepository) LoadRound(ctx context.Context, questionID string) (domain.RoundDefinition, error) {
	if round, ok := r.cached(questionID); ok {
		return round, nil
	}

	result, err, _ := r.sf.Do(questionID, func() (interface{}, error) {
		if round, ok := r.cached(questionID); ok {
			return round, nil
		}

		round, err := r.loader.LoadRound(ctx, questionID)
		if err != nil {
			return domain.RoundDefinition{}, err
		}

		expiresAt := r.clock().Add(r.ttlWithJitter())
		r.mu.Lock()
		r.cache[questionID] = cachedRound{round: round, expiresAt: expiresAt}
		r.mu.Unlock()
		return round, nil
	})
	if err != nil {
		return domain.RoundDefinition{}, err
	}
	return result.(domain.RoundDefinition), nil
}

func (r *RoundRepository) ListAvailableRounds(ctx context.Context) ([]domain.RoundSummary, error) {
	return r.loader.ListAvailableRounds(ctx)
}

func (r *RoundRepository) cached(questionID string) (domain.RoundDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[questionID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.RoundDefinition{}, false
	}
	return entry.round, true
}

func (r *RoundRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
