package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// creditScript increments the balance only if the idempotency key is new.
// KEYS[1] balance, KEYS[2] credit marker; ARGV[1] amount, ARGV[2] marker ttl seconds.
var creditScript = redis.NewScript(`
if redis.call('SET', KEYS[2], ARGV[1], 'NX', 'EX', ARGV[2]) then
  return redis.call('INCRBY', KEYS[1], ARGV[1])
end
return tonumber(redis.call('GET', KEYS[1]) or '0')
`)

// Wallet stores cerises balances in Redis:
// cerises:balance:{userID} holds the balance, cerises:credit:{key} marks applied credits.
type Wallet struct {
	client    *redis.Client
	markerTTL time.Duration
}

func NewWallet(client *redis.Client, markerTTL time.Duration) *Wallet {
	if markerTTL <= 0 {
		markerTTL = 24 * time.Hour
	}
	// EX takes whole seconds and rejects 0
	if markerTTL < time.Second {
		markerTTL = time.Second
	}
	markerTTL = markerTTL.Round(time.Second)
	return &Wallet{client: client, markerTTL: markerTTL}
}

func (w *Wallet) CreditReward(ctx context.Context, userID string, amount int, idempotencyKey string) (int, error) {
	if idempotencyKey == "" {
		balance, err := w.client.IncrBy(ctx, w.balanceKey(userID), int64(amount)).Result()
		return int(balance), err
	}
	balance, err := creditScript.Run(ctx, w.client,
		[]string{w.balanceKey(userID), "cerises:credit:" + idempotencyKey},
		amount, int(w.markerTTL.Seconds()),
	).Int()
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Balance returns the user's current cerises.
func (w *Wallet) Balance(ctx context.Context, userID string) (int, error) {
	balance, err := w.client.Get(ctx, w.balanceKey(userID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	return balance, err
}

func (w *Wallet) balanceKey(userID string) string {
	return "cerises:balance:" + userID
}
