package memory

import (
	"context"
	"sort"
	"sync"

	"clafootix/internal/domain"
)

// Catalog is an in-process oracle backed by static rounds and clubs
// (useful for tests/demos). It serves loading, candidate pools and scoring.
type Catalog struct {
	mu     sync.RWMutex
	rounds map[string]domain.RoundDefinition
	clubs  []domain.Entity
}

// NewCatalog indexes rounds and clubs. Correct clubs of every round are added
// to the club list when missing.
func NewCatalog(rounds []domain.RoundDefinition, clubs []domain.Entity) *Catalog {
	c := &Catalog{rounds: make(map[string]domain.RoundDefinition, len(rounds))}
	known := make(map[string]struct{}, len(clubs))
	for _, club := range clubs {
		if _, ok := known[club.ID]; ok {
			continue
		}
		known[club.ID] = struct{}{}
		c.clubs = append(c.clubs, club)
	}
	for _, round := range rounds {
		c.rounds[round.ID] = round
		for _, item := range round.Items {
			for _, club := range item.CorrectEntities {
				if _, ok := known[club.ID]; ok {
					continue
				}
				known[club.ID] = struct{}{}
				c.clubs = append(c.clubs, club)
			}
		}
	}
	return c
}

func (c *Catalog) LoadRound(_ context.Context, questionID string) (domain.RoundDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if round, ok := c.rounds[questionID]; ok {
		return round, nil
	}
	return domain.RoundDefinition{}, domain.ErrRoundNotFound
}

func (c *Catalog) ListAvailableRounds(_ context.Context) ([]domain.RoundSummary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.RoundSummary, 0, len(c.rounds))
	for _, round := range c.rounds {
		if round.Active {
			out = append(out, round.Summary())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// FetchCandidates returns clubs whose league and country pass the filter;
// an empty filter list matches anything. A limit of zero returns every match.
func (c *Catalog) FetchCandidates(_ context.Context, filter domain.CandidateFilter, excludeIDs []string, limit int) ([]domain.Entity, error) {
	exclude := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		exclude[id] = struct{}{}
	}
	leagues := toSet(filter.Leagues)
	countries := toSet(filter.Countries)

	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []domain.Entity
	for _, club := range c.clubs {
		if _, skip := exclude[club.ID]; skip {
			continue
		}
		if len(leagues) > 0 {
			if _, ok := leagues[club.League]; !ok {
				continue
			}
		}
		if len(countries) > 0 {
			if _, ok := countries[club.Country]; !ok {
				continue
			}
		}
		out = append(out, club)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (c *Catalog) ValidateRound(ctx context.Context, questionID string, submissions []domain.RoundItemSubmission, remainingTime int) (domain.RoundVerdict, error) {
	round, err := c.LoadRound(ctx, questionID)
	if err != nil {
		return domain.RoundVerdict{}, err
	}
	return ScoreRound(round, submissions, remainingTime), nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
