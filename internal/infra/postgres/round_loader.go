package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"clafootix/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// RoundLoader loads Carrière Infernale rounds from Postgres. Items live in the
// data JSONB column as {"items": [...]}.
type RoundLoader struct {
	pool *pgxpool.Pool
}

func NewRoundLoader(pool *pgxpool.Pool) *RoundLoader {
	return &RoundLoader{pool: pool}
}

type roundData struct {
	Items []domain.RoundItem `json:"items"`
}

func (l *RoundLoader) LoadRound(ctx context.Context, questionID string) (domain.RoundDefinition, error) {
	round := domain.RoundDefinition{ID: questionID}
	var raw []byte
	err := l.pool.QueryRow(ctx,
		`SELECT title, season, active, data FROM rounds WHERE id=$1`, questionID,
	).Scan(&round.Title, &round.Season, &round.Active, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.RoundDefinition{}, domain.ErrRoundNotFound
	}
	if err != nil {
		return domain.RoundDefinition{}, fmt.Errorf("load round: %w", err)
	}
	var data roundData
	if err := json.Unmarshal(raw, &data); err != nil {
		return domain.RoundDefinition{}, fmt.Errorf("unmarshal round: %w", err)
	}
	round.Items = data.Items
	return round, nil
}

func (l *RoundLoader) ListAvailableRounds(ctx context.Context) ([]domain.RoundSummary, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, title, season FROM rounds WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()

	var out []domain.RoundSummary
	for rows.Next() {
		var s domain.RoundSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Season); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SaveRound upserts a round and the clubs it references.
func (l *RoundLoader) SaveRound(ctx context.Context, round domain.RoundDefinition) error {
	data, err := json.Marshal(roundData{Items: round.Items})
	if err != nil {
		return fmt.Errorf("marshal round: %w", err)
	}
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
INSERT INTO rounds (id, title, season, active, data) VALUES ($1, $2, $3, $4, $5::jsonb)
ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, season=EXCLUDED.season, active=EXCLUDED.active, data=EXCLUDED.data`,
		round.ID, round.Title, round.Season, round.Active, string(data))
	if err != nil {
		return fmt.Errorf("save round: %w", err)
	}
	for _, item := range round.Items {
		if err := upsertClubs(ctx, tx, item.CorrectEntities); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// SaveClubs upserts clubs used as distractors.
func (l *RoundLoader) SaveClubs(ctx context.Context, clubs []domain.Entity) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := upsertClubs(ctx, tx, clubs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func upsertClubs(ctx context.Context, tx pgx.Tx, clubs []domain.Entity) error {
	for _, c := range clubs {
		_, err := tx.Exec(ctx, `
INSERT INTO clubs (id, name, image_url, league, country) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, image_url=EXCLUDED.image_url, league=EXCLUDED.league, country=EXCLUDED.country`,
			c.ID, c.Name, c.ImageURL, c.League, c.Country)
		if err != nil {
			return fmt.Errorf("save club %s: %w", c.ID, err)
		}
	}
	return nil
}
