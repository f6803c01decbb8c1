package memory

import (
	"context"
	"sync"
)

// Wallet keeps cerises balances in memory and applies each idempotency key once.
type Wallet struct {
	mu       sync.Mutex
	balances map[string]int
	applied  map[string]struct{}
}

func NewWallet() *Wallet {
	return &Wallet{
		balances: make(map[string]int),
		applied:  make(map[string]struct{}),
	}
}

func (w *Wallet) CreditReward(_ context.Context, userID string, amount int, idempotencyKey string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if idempotencyKey != "" {
		if _, ok := w.applied[idempotencyKey]; ok {
			return w.balances[userID], nil
		}
		w.applied[idempotencyKey] = struct{}{}
	}
	w.balances[userID] += amount
	return w.balances[userID], nil
}

// Balance returns the user's current cerises.
func (w *Wallet) Balance(userID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balances[userID]
}
