package memory

import (
	"testing"

	"clafootix/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	created := 0
	create := func(userID string) *app.RoundSession {
		created++
		return app.NewRoundSession(userID, app.DefaultRoundConfig(), app.Oracle{}, nil)
	}

	session := store.GetOrCreate("u1", create)
	if session == nil {
		t.Fatalf("expected session")
	}
	if again := store.GetOrCreate("u1", create); again != session || created != 1 {
		t.Fatalf("expected the existing session to be reused, created=%d", created)
	}
	if _, ok := store.Get("u1"); !ok {
		t.Fatalf("expected session present")
	}
	if len(store.List()) != 1 {
		t.Fatalf("expected one listed session")
	}

	store.Delete("u1")
	if _, ok := store.Get("u1"); ok {
		t.Fatalf("expected session removed")
	}
}
