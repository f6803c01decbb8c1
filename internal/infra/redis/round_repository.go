package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"clafootix/internal/domain"
	"github.com/google/logger"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// RoundLoader fetches round content from a backing store (e.g., Postgres).
type RoundLoader interface {
	LoadRound(ctx context.Context, questionID string) (domain.RoundDefinition, error)
	ListAvailableRounds(ctx context.Context) ([]domain.RoundSummary, error)
}

// RoundRepository caches round definitions in Redis and falls back to a loader on cache miss.
// Rounds are stored as JSON: SET round:{questionID} {json} EX ttl
type RoundRepository struct {
	client *redis.Client
	loader RoundLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRoundRepository(client *redis.Client, loader RoundLoader, ttl time.Duration) *RoundRepository {
	return &RoundRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *RoundRepository) LoadRound(ctx context.Context, questionID string) (domain.RoundDefinition, error) {
	if round, ok := r.cached(ctx, questionID); ok {
		return round, nil
	}

	result, err, _ := r.sf.Do(questionID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if round, ok := r.cached(ctx, questionID); ok {
			return round, nil
		}

		round, err := r.loader.LoadRound(ctx, questionID)
		if err != nil {
			return domain.RoundDefinition{}, err
		}

		data, err := json.Marshal(round)
		if err != nil {
			return domain.RoundDefinition{}, err
		}
		if err := r.client.Set(ctx, r.key(questionID), data, r.ttlWithJitter()).Err(); err != nil {
			logger.Warningf("cache round %s: %v", questionID, err)
		}
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

// Invalidate drops a cached round, e.g. after its content was edited.
func (r *RoundRepository) Invalidate(ctx context.Context, questionID string) error {
	return r.client.Del(ctx, r.key(questionID)).Err()
}

func (r *RoundRepository) cached(ctx context.Context, questionID string) (domain.RoundDefinition, bool) {
	data, err := r.client.Get(ctx, r.key(questionID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warningf("read cached round %s: %v", questionID, err)
		}
		return domain.RoundDefinition{}, false
	}
	var round domain.RoundDefinition
	if err := json.Unmarshal(data, &round); err != nil {
		logger.Warningf("decode cached round %s: %v", questionID, err)
		return domain.RoundDefinition{}, false
	}
	return round, true
}

func (r *RoundRepository) key(questionID string) string {
	return "round:" + questionID
}

func (r *RoundRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
