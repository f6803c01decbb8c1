package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"clafootix/internal/app"
	"clafootix/internal/domain"
	"clafootix/internal/infra/memory"
)

func TestServiceRoundFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	service := app.NewRoundService(memory.NewSessionStore(), f.oracle, testConfig())

	snap, err := service.Start(ctx, "u1", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.Phase != domain.PhasePlaying || snap.CurrentItem == nil {
		t.Fatalf("expected playing snapshot, got %+v", snap)
	}
	for _, e := range snap.Candidates {
		if e.ID == "" {
			t.Fatalf("candidate without id")
		}
	}

	for i := 0; i < 3; i++ {
		snap = service.Snapshot(ctx, "u1")
		item := threeItemRound().Items[snap.ItemIndex]
		if _, err := service.Toggle(ctx, "u1", item.CorrectEntities[0].ID); err != nil {
			t.Fatalf("toggle: %v", err)
		}
		if snap, err = service.Validate(ctx, "u1", item.ID); err != nil {
			t.Fatalf("validate item %d: %v", i, err)
		}
	}
	if snap.Phase != domain.PhaseCompleted || !snap.Settled || snap.CorrectCount != 3 {
		t.Fatalf("expected settled round with 3 correct, got %+v", snap)
	}
	if snap.RewardState != domain.RewardDone {
		t.Fatalf("expected reward credited, got %s", snap.RewardState)
	}
	if _, err := service.Validate(ctx, "u1", "p-anelka"); !errors.Is(err, domain.ErrRoundNotPlaying) {
		t.Fatalf("expected not playing after completion, got %v", err)
	}
}

func TestServiceRepeatedValidateIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	service := app.NewRoundService(memory.NewSessionStore(), f.oracle, testConfig())

	if _, err := service.Start(ctx, "u1", "ci-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.Toggle(ctx, "u1", "c-juve"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	first, err := service.Validate(ctx, "u1", "p-zidane")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	again, err := service.Validate(ctx, "u1", "p-zidane")
	if err != nil {
		t.Fatalf("repeated validate: %v", err)
	}
	if again.ItemIndex != 1 || len(again.Submissions) != 1 || again.CorrectCount != first.CorrectCount {
		t.Fatalf("repeated validate altered state: index=%d submissions=%v", again.ItemIndex, again.Submissions)
	}
	if again.Locked {
		t.Fatalf("second item must stay selectable")
	}

	if _, err := service.Validate(ctx, "u1", "p-anelka"); !errors.Is(err, domain.ErrItemMismatch) {
		t.Fatalf("expected item mismatch for a future item, got %v", err)
	}
	if _, err := service.Toggle(ctx, "u1", "c-monaco"); err != nil {
		t.Fatalf("toggle after mismatch: %v", err)
	}
	if snap := service.Snapshot(ctx, "u1"); len(snap.Submissions) != 1 || f.validator.Calls() != 0 {
		t.Fatalf("mismatch must not submit, got %+v", snap.Submissions)
	}
}

func TestServiceUnknownUser(t *testing.T) {
	ctx := context.Background()
	service := app.NewRoundService(memory.NewSessionStore(), newFixture().oracle, testConfig())

	if _, err := service.Validate(ctx, "ghost", "p-zidane"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if _, err := service.Toggle(ctx, "ghost", "c-juve"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if _, err := service.RetryReward(ctx, "ghost"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestServiceSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	service := app.NewRoundService(memory.NewSessionStore(), newFixture().oracle, testConfig())

	ch, cancel := service.Subscribe(ctx, "u1")
	defer cancel()

	initial := <-ch
	if initial.Phase != domain.PhaseSelecting {
		t.Fatalf("expected selecting snapshot first, got %s", initial.Phase)
	}

	if _, err := service.Start(ctx, "u1", "ci-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.After(time.Second)
	for {
		select {
		case snap := <-ch:
			if snap.Phase == domain.PhasePlaying {
				return
			}
		case <-deadline:
			t.Fatalf("no playing snapshot received")
		}
	}
}

func TestServiceSubscriberEndsOnLatestState(t *testing.T) {
	ctx := context.Background()
	for run := 0; run < 50; run++ {
		service := app.NewRoundService(memory.NewSessionStore(), newFixture().oracle, testConfig())
		if _, err := service.Start(ctx, "u1", "ci-1"); err != nil {
			t.Fatalf("start: %v", err)
		}

		toggled := make(chan struct{})
		go func() {
			defer close(toggled)
			for i := 0; i < 21; i++ {
				_, _ = service.Toggle(ctx, "u1", "c-juve")
			}
		}()
		ch, cancel := service.Subscribe(ctx, "u1")
		<-toggled

		var last domain.SessionSnapshot
	drain:
		for {
			select {
			case snap := <-ch:
				last = snap
			case <-time.After(20 * time.Millisecond):
				break drain
			}
		}
		cancel()

		want := service.Snapshot(ctx, "u1")
		if len(last.Selected) != len(want.Selected) {
			t.Fatalf("run %d: subscriber ended on stale selection %v, want %v", run, last.Selected, want.Selected)
		}
	}
}

func TestServiceCleansUpIdleSessions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewSessionStore()
	service := app.NewRoundService(store, newFixture().oracle, testConfig())

	_, _ = service.Start(ctx, "u1", "ci-1")
	_ = service.Snapshot(ctx, "u2")

	if removed := service.CleanUpInactiveSessions(-time.Minute); removed != 1 {
		t.Fatalf("expected only the idle session removed, got %d", removed)
	}
	if _, ok := store.Get("u1"); !ok {
		t.Fatalf("playing session must survive cleanup")
	}

	_, _ = service.Abandon(ctx, "u1")
	service.Leave(ctx, "u1")
	if _, ok := store.Get("u1"); ok {
		t.Fatalf("expected abandoned session to be dropped on leave")
	}
}
