package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"clafootix/internal/domain"
)

func TestRoundRepositoryCaches(t *testing.T) {
	loader := &countingLoader{RoundLoader: NewCatalog([]domain.RoundDefinition{sampleRound()}, nil)}
	repo := NewRoundRepository(loader, time.Minute)

	if _, err := repo.LoadRound(context.Background(), "ci-1"); err != nil {
		t.Fatalf("load round: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	round, err := repo.LoadRound(context.Background(), "ci-1")
	if err != nil {
		t.Fatalf("load round 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if len(round.Items) != 2 {
		t.Fatalf("expected cached round with 2 items, got %d", len(round.Items))
	}
}

func TestRoundRepositoryExpires(t *testing.T) {
	loader := &countingLoader{RoundLoader: NewCatalog([]domain.RoundDefinition{sampleRound()}, nil)}
	repo := NewRoundRepository(loader, time.Minute)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.LoadRound(context.Background(), "ci-1")
	now = now.Add(2 * time.Minute)
	_, _ = repo.LoadRound(context.Background(), "ci-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestRoundRepositoryDoesNotCacheMisses(t *testing.T) {
	loader := &countingLoader{RoundLoader: NewCatalog(nil, nil)}
	repo := NewRoundRepository(loader, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := repo.LoadRound(context.Background(), "missing"); !errors.Is(err, domain.ErrRoundNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if loader.calls != 2 {
		t.Fatalf("expected both misses to hit the loader, got %d", loader.calls)
	}
}

type countingLoader struct {
	RoundLoader
	calls int
}

func (l *countingLoader) LoadRound(ctx context.Context, questionID string) (domain.RoundDefinition, error) {
	l.calls++
	return l.RoundLoader.LoadRound(ctx, questionID)
}

func sampleRound() domain.RoundDefinition {
	return domain.RoundDefinition{
		ID:     "ci-1",
		Title:  "Carrière Infernale #1",
		Season: "2024",
		Active: true,
		Items: []domain.RoundItem{
			{
				ID:   "p-zidane",
				Name: "Zinedine Zidane",
				CorrectEntities: []domain.Entity{
					{ID: "c-juve", Name: "Juventus", League: "serie-a", Country: "IT"},
					{ID: "c-real", Name: "Real Madrid", League: "liga", Country: "ES"},
					{ID: "c-bordeaux", Name: "Bordeaux", League: "ligue-1", Country: "FR"},
				},
			},
			{
				ID:   "p-henry",
				Name: "Thierry Henry",
				CorrectEntities: []domain.Entity{
					{ID: "c-monaco", Name: "Monaco", League: "ligue-1", Country: "FR"},
					{ID: "c-juve", Name: "Juventus", League: "serie-a", Country: "IT"},
					{ID: "c-arsenal", Name: "Arsenal", League: "premier-league", Country: "EN"},
				},
			},
		},
	}
}
