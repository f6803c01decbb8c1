package postgres

import (
	"context"
	"fmt"

	"clafootix/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CandidatePool queries the clubs table for distractors.
type CandidatePool struct {
	pool *pgxpool.Pool
}

func NewCandidatePool(pool *pgxpool.Pool) *CandidatePool {
	return &CandidatePool{pool: pool}
}

// FetchCandidates returns clubs whose league and country pass the filter;
// an empty filter list matches anything. A limit of zero returns every match.
func (p *CandidatePool) FetchCandidates(ctx context.Context, filter domain.CandidateFilter, excludeIDs []string, limit int) ([]domain.Entity, error) {
	rows, err := p.pool.Query(ctx, `
SELECT id, name, image_url, league, country FROM clubs
WHERE (cardinality($1::text[]) = 0 OR league = ANY($1::text[]))
  AND (cardinality($2::text[]) = 0 OR country = ANY($2::text[]))
  AND NOT (id = ANY($3::text[]))
ORDER BY id
LIMIT NULLIF($4::int, 0)`,
		nonNil(filter.Leagues), nonNil(filter.Countries), nonNil(excludeIDs), limit)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	defer rows.Close()

	var out []domain.Entity
	for rows.Next() {
		var e domain.Entity
		if err := rows.Scan(&e.ID, &e.Name, &e.ImageURL, &e.League, &e.Country); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// nonNil keeps pgx from encoding a nil slice as NULL, which would make the
// array predicates above unknown.
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
