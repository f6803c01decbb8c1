package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"clafootix/internal/domain"
	"github.com/google/logger"
)

// DistractorGenerator picks plausible wrong clubs for a round item.
type DistractorGenerator struct {
	pool CandidatePool

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewDistractorGenerator(pool CandidatePool) *DistractorGenerator {
	return NewDistractorGeneratorWithRand(pool, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewDistractorGeneratorWithRand is used by tests for deterministic shuffles.
func NewDistractorGeneratorWithRand(pool CandidatePool, rnd *rand.Rand) *DistractorGenerator {
	return &DistractorGenerator{pool: pool, rnd: rnd}
}

// Generate returns up to count clubs sharing a league (then a country) with the
// correct clubs, never one of the correct clubs. Pool failures are logged and
// degrade to fewer distractors.
func (g *DistractorGenerator) Generate(ctx context.Context, correct []domain.Entity, count int) []domain.Entity {
	if count <= 0 || g.pool == nil {
		return nil
	}

	exclude := make([]string, 0, len(correct)+count)
	seen := make(map[string]struct{}, len(correct)+count)
	leagues := make([]string, 0, len(correct))
	countries := make([]string, 0, len(correct))
	for _, e := range correct {
		exclude = append(exclude, e.ID)
		seen[e.ID] = struct{}{}
		if e.League != "" && !contains(leagues, e.League) {
			leagues = append(leagues, e.League)
		}
		if e.Country != "" && !contains(countries, e.Country) {
			countries = append(countries, e.Country)
		}
	}

	var picked []domain.Entity
	filters := []domain.CandidateFilter{{Leagues: leagues}, {Countries: countries}}
	for _, filter := range filters {
		if len(filter.Leagues) == 0 && len(filter.Countries) == 0 {
			continue
		}
		need := count - len(picked)
		if need <= 0 {
			break
		}
		candidates, err := g.pool.FetchCandidates(ctx, filter, exclude, 0)
		if err != nil {
			logger.Warningf("fetch distractors (leagues=%v countries=%v): %v", filter.Leagues, filter.Countries, err)
			break
		}
		fresh := make([]domain.Entity, 0, len(candidates))
		for _, c := range candidates {
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
			fresh = append(fresh, c)
		}
		g.shuffle(fresh)
		if len(fresh) > need {
			fresh = fresh[:need]
		}
		for _, c := range fresh {
			exclude = append(exclude, c.ID)
		}
		picked = append(picked, fresh...)
	}
	return picked
}

// shuffle permutes entities in place using the generator's source.
func (g *DistractorGenerator) shuffle(entities []domain.Entity) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rnd.Shuffle(len(entities), func(i, j int) {
		entities[i], entities[j] = entities[j], entities[i]
	})
}

func contains(values []string, v string) bool {
	for _, existing := range values {
		if existing == v {
			return true
		}
	}
	return false
}
