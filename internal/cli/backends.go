package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"clafootix/internal/app"
	"clafootix/internal/config"
	"clafootix/internal/infra/memory"
	pginfra "clafootix/internal/infra/postgres"
	redisinfra "clafootix/internal/infra/redis"
	"github.com/google/logger"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

type backends struct {
	oracle app.Oracle
	store  app.SessionRepository
	pool   *pgxpool.Pool
	redis  *redis.Client
}

func (b *backends) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}

// buildBackends picks the oracle and session storage from config: Postgres
// for rounds, candidates, validation and rewards when configured, Redis for
// round caching, sessions and (without Postgres) rewards, and the in-process
// sample catalog otherwise.
func buildBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}

	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := b.redis.Ping(ctx).Err(); err != nil {
			b.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		b.pool = pool
	}

	var loader memory.RoundLoader
	if b.pool != nil {
		loader = pginfra.NewRoundLoader(b.pool)
		b.oracle.Pool = pginfra.NewCandidatePool(b.pool)
		b.oracle.Validator = pginfra.NewValidator(b.pool)
		b.oracle.Rewards = pginfra.NewWallet(b.pool)
	} else {
		catalog := memory.NewCatalog(sampleCatalog())
		loader = catalog
		b.oracle.Pool = catalog
		b.oracle.Validator = catalog
		logger.Warning("postgres not configured, serving the sample catalog")
	}

	roundTTL := config.TTLDuration(cfg.Round.TTL, 10*time.Minute)
	if b.redis != nil {
		b.oracle.Rounds = redisinfra.NewRoundRepository(b.redis, loader, roundTTL)
		node, _ := os.Hostname()
		b.store = redisinfra.NewSessionStore(b.redis, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute), node)
	} else {
		b.oracle.Rounds = memory.NewRoundRepository(loader, roundTTL)
		b.store = memory.NewSessionStore()
	}

	if b.oracle.Rewards == nil {
		if b.redis != nil {
			b.oracle.Rewards = redisinfra.NewWallet(b.redis, config.TTLDuration(cfg.Redis.CreditTTL, 24*time.Hour))
		} else {
			b.oracle.Rewards = memory.NewWallet()
		}
	}
	return b, nil
}
