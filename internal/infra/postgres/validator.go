package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"clafootix/internal/domain"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"
)

// noDataFound is the SQLSTATE raised by validate_carriere_infernale for unknown rounds.
const noDataFound = "P0002"

// Validator calls the server-side scoring function installed by the migrations.
type Validator struct {
	pool *pgxpool.Pool
}

func NewValidator(pool *pgxpool.Pool) *Validator {
	return &Validator{pool: pool}
}

func (v *Validator) ValidateRound(ctx context.Context, questionID string, submissions []domain.RoundItemSubmission, remainingTime int) (domain.RoundVerdict, error) {
	if submissions == nil {
		submissions = []domain.RoundItemSubmission{}
	}
	answers, err := json.Marshal(submissions)
	if err != nil {
		return domain.RoundVerdict{}, fmt.Errorf("marshal answers: %w", err)
	}

	var raw []byte
	err = v.pool.QueryRow(ctx,
		`SELECT validate_carriere_infernale($1, $2::jsonb, $3)`, questionID, string(answers), remainingTime,
	).Scan(&raw)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == noDataFound {
			return domain.RoundVerdict{}, domain.ErrRoundNotFound
		}
		return domain.RoundVerdict{}, fmt.Errorf("validate round: %w", err)
	}

	var verdict domain.RoundVerdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return domain.RoundVerdict{}, fmt.Errorf("unmarshal verdict: %w", err)
	}
	return verdict, nil
}
