package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Wallet credits cerises on profiles.cerises. reward_credits records every
// applied idempotency key so a replayed credit leaves the balance untouched.
type Wallet struct {
	pool *pgxpool.Pool
}

func NewWallet(pool *pgxpool.Pool) *Wallet {
	return &Wallet{pool: pool}
}

func (w *Wallet) CreditReward(ctx context.Context, userID string, amount int, idempotencyKey string) (int, error) {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if idempotencyKey != "" {
		tag, err := tx.Exec(ctx, `
INSERT INTO reward_credits (idempotency_key, user_id, amount) VALUES ($1, $2, $3)
ON CONFLICT (idempotency_key) DO NOTHING`, idempotencyKey, userID, amount)
		if err != nil {
			return 0, fmt.Errorf("record credit: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var balance int
			err := tx.QueryRow(ctx, `SELECT COALESCE((SELECT cerises FROM profiles WHERE user_id=$1), 0)`, userID).Scan(&balance)
			if err != nil {
				return 0, fmt.Errorf("read balance: %w", err)
			}
			return balance, tx.Commit(ctx)
		}
	}

	var balance int
	err = tx.QueryRow(ctx, `
INSERT INTO profiles (user_id, cerises) VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET cerises = profiles.cerises + EXCLUDED.cerises
RETURNING cerises`, userID, amount).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("credit cerises: %w", err)
	}
	return balance, tx.Commit(ctx)
}
