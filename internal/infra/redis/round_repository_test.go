package redis

import (
	"context"
	"testing"
	"time"

	"clafootix/internal/domain"
	"clafootix/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRoundRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		RoundLoader: memory.NewCatalog([]domain.RoundDefinition{sampleRound()}, nil),
	}
	repo := NewRoundRepository(client, loader, time.Minute)

	round, err := repo.LoadRound(context.Background(), "ci-1")
	if err != nil {
		t.Fatalf("load round: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("round:ci-1") {
		t.Fatalf("expected round cached under round:ci-1")
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.LoadRound(context.Background(), "ci-1")
	if err != nil {
		t.Fatalf("load cached round: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if cached.Title != round.Title || len(cached.Items) != 1 || len(cached.Items[0].CorrectEntities) != 2 {
		t.Fatalf("cached round differs: %+v", cached)
	}

	if err := repo.Invalidate(context.Background(), "ci-1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.LoadRound(context.Background(), "ci-1")
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestRoundRepositoryListsFromLoader(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewRoundRepository(newClient(mr), memory.NewCatalog([]domain.RoundDefinition{sampleRound()}, nil), time.Minute)
	rounds, err := repo.ListAvailableRounds(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rounds) != 1 || rounds[0].ID != "ci-1" {
		t.Fatalf("unexpected rounds %+v", rounds)
	}
}

type countingLoader struct {
	memory.RoundLoader
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
		Active: true,
		Items: []domain.RoundItem{
			{
				ID:   "p-zidane",
				Name: "Zinedine Zidane",
				CorrectEntities: []domain.Entity{
					{ID: "c-juve", Name: "Juventus", League: "serie-a", Country: "IT"},
					{ID: "c-real", Name: "Real Madrid", League: "liga", Country: "ES"},
				},
			},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
