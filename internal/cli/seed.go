package cli

import (
	"fmt"
	"time"

	"clafootix/internal/config"
	"clafootix/internal/domain"
	pginfra "clafootix/internal/infra/postgres"
	redisinfra "clafootix/internal/infra/redis"
	"github.com/google/logger"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewSeedCmd loads the sample catalog into Postgres.
func NewSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample rounds and clubs into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(viper.GetString("config"))
			if err != nil {
				return err
			}
			if err := runMigrations(ctx, cfg); err != nil {
				return err
			}
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return fmt.Errorf("postgres connect: %w", err)
			}
			defer pool.Close()

			loader := pginfra.NewRoundLoader(pool)
			rounds, clubs := sampleCatalog()
			if err := loader.SaveClubs(ctx, clubs); err != nil {
				return err
			}
			for _, round := range rounds {
				if err := loader.SaveRound(ctx, round); err != nil {
					return fmt.Errorf("save round %s: %w", round.ID, err)
				}
			}
			if cfg.Redis.Addr != "" {
				invalidateCachedRounds(cmd, cfg, loader, rounds)
			}
			logger.Infof("seeded %d rounds and %d clubs", len(rounds), len(clubs))
			return nil
		},
	}
}

// invalidateCachedRounds drops stale cache entries so running servers pick up
// the seeded content without waiting for the TTL.
func invalidateCachedRounds(cmd *cobra.Command, cfg config.Config, loader *pginfra.RoundLoader, rounds []domain.RoundDefinition) {
	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer client.Close()
	cache := redisinfra.NewRoundRepository(client, loader, config.TTLDuration(cfg.Round.TTL, 10*time.Minute))
	for _, round := range rounds {
		if err := cache.Invalidate(cmd.Context(), round.ID); err != nil {
			logger.Warningf("invalidate cached round %s: %v", round.ID, err)
		}
	}
}
