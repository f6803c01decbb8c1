package app_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"clafootix/internal/app"
	"clafootix/internal/domain"
	"clafootix/internal/infra/memory"
)

var errOracleDown = errors.New("oracle unavailable")

// countingValidator scores with the reference scorer and records every call.
type countingValidator struct {
	mu      sync.Mutex
	catalog *memory.Catalog
	fail    int // number of leading calls that fail
	calls   int
	last    []domain.RoundItemSubmission
	lastRem int
}

func (v *countingValidator) ValidateRound(ctx context.Context, questionID string, submissions []domain.RoundItemSubmission, remainingTime int) (domain.RoundVerdict, error) {
	v.mu.Lock()
	v.calls++
	v.last = submissions
	v.lastRem = remainingTime
	failing := v.calls <= v.fail
	v.mu.Unlock()
	if failing {
		return domain.RoundVerdict{}, errOracleDown
	}
	return v.catalog.ValidateRound(ctx, questionID, submissions, remainingTime)
}

func (v *countingValidator) Calls() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

// flakyWallet fails its first `fail` credits.
type flakyWallet struct {
	mu      sync.Mutex
	fail    int
	calls   int
	wallet  *memory.Wallet
	credits int
}

func (w *flakyWallet) CreditReward(ctx context.Context, userID string, amount int, key string) (int, error) {
	w.mu.Lock()
	w.calls++
	failing := w.calls <= w.fail
	if !failing {
		w.credits++
	}
	w.mu.Unlock()
	if failing {
		return 0, errOracleDown
	}
	return w.wallet.CreditReward(ctx, userID, amount, key)
}

func (w *flakyWallet) Calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

type failingPool struct{}

func (failingPool) FetchCandidates(context.Context, domain.CandidateFilter, []string, int) ([]domain.Entity, error) {
	return nil, errOracleDown
}

type fixture struct {
	catalog   *memory.Catalog
	validator *countingValidator
	wallet    *flakyWallet
	oracle    app.Oracle
}

func newFixture() *fixture {
	catalog := memory.NewCatalog([]domain.RoundDefinition{threeItemRound()}, extraClubs())
	validator := &countingValidator{catalog: catalog}
	wallet := &flakyWallet{wallet: memory.NewWallet()}
	return &fixture{
		catalog:   catalog,
		validator: validator,
		wallet:    wallet,
		oracle: app.Oracle{
			Rounds:    catalog,
			Pool:      catalog,
			Validator: validator,
			Rewards:   wallet,
		},
	}
}

func testConfig() app.RoundConfig {
	cfg := app.DefaultRoundConfig()
	cfg.TickInterval = 0
	cfg.RetryInterval = time.Millisecond
	cfg.ValidateAttempts = 1
	cfg.DistractorCount = 3
	return cfg
}

func (f *fixture) session(cfg app.RoundConfig) *app.RoundSession {
	clock := func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return app.NewRoundSessionWithClock("u1", cfg, f.oracle, app.NewDistractorGenerator(f.oracle.Pool), clock)
}

func threeItemRound() domain.RoundDefinition {
	return domain.RoundDefinition{
		ID:     "ci-1",
		Title:  "Carrière Infernale #1",
		Active: true,
		Items: []domain.RoundItem{
			{
				ID:   "p-zidane",
				Name: "Zinedine Zidane",
				CorrectEntities: []domain.Entity{
					club("c-juve", "serie-a", "IT"), club("c-real", "liga", "ES"), club("c-bordeaux", "ligue-1", "FR"),
				},
			},
			{
				ID:   "p-henry",
				Name: "Thierry Henry",
				CorrectEntities: []domain.Entity{
					club("c-monaco", "ligue-1", "FR"), club("c-juve", "serie-a", "IT"), club("c-arsenal", "premier-league", "EN"),
				},
			},
			{
				ID:   "p-anelka",
				Name: "Nicolas Anelka",
				CorrectEntities: []domain.Entity{
					club("c-psg", "ligue-1", "FR"), club("c-real", "liga", "ES"), club("c-chelsea", "premier-league", "EN"),
				},
			},
		},
	}
}

func extraClubs() []domain.Entity {
	return []domain.Entity{
		club("c-lyon", "ligue-1", "FR"),
		club("c-marseille", "ligue-1", "FR"),
		club("c-milan", "serie-a", "IT"),
		club("c-inter", "serie-a", "IT"),
		club("c-barca", "liga", "ES"),
		club("c-reims", "ligue-2", "FR"),
	}
}

func club(id, league, country string) domain.Entity {
	return domain.Entity{ID: id, Name: id, League: league, Country: country}
}
