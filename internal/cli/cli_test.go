package cli

import (
	"context"
	"testing"
	"time"

	"clafootix/internal/app"
	"clafootix/internal/infra/memory"
)

func TestSampleCatalogServesActiveRounds(t *testing.T) {
	catalog := memory.NewCatalog(sampleCatalog())
	rounds, err := catalog.ListAvailableRounds(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rounds) != 2 {
		t.Fatalf("expected 2 sample rounds, got %d", len(rounds))
	}
	for _, summary := range rounds {
		round, err := catalog.LoadRound(context.Background(), summary.ID)
		if err != nil {
			t.Fatalf("load %s: %v", summary.ID, err)
		}
		for _, item := range round.Items {
			if len(item.CorrectEntities) == 0 {
				t.Fatalf("item %s has no correct clubs", item.ID)
			}
		}
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"start", "migrate", "seed", "rounds"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Fatalf("expected %s subcommand, got %v (%v)", name, sub, err)
		}
	}
}

func TestJanitorToleratesNonPositiveIdle(t *testing.T) {
	catalog := memory.NewCatalog(sampleCatalog())
	service := app.NewRoundService(memory.NewSessionStore(), app.Oracle{Rounds: catalog, Pool: catalog, Validator: catalog}, app.DefaultRoundConfig())

	for _, idle := range []time.Duration{0, -time.Minute} {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		done := make(chan struct{})
		go func() {
			defer close(done)
			runJanitor(ctx, service, idle)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("janitor did not stop for idle %s", idle)
		}
	}
}
