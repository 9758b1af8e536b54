package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyPrefix = "chat:idem:"
	rateLimitPrefix   = "chat:rl:"
)

// windowHit counts one hit and starts the window on the first one only, so
// hits inside the window never push its end back.
var windowHit = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// Guard protects the action pipeline with redis. Request ids are claimed
// once so client re-emits are dropped, and each user's actions are counted
// in a fixed window that opens with the first hit. A Guard without a client
// allows everything.
type Guard struct {
	Client         *redis.Client
	IdempotencyTTL time.Duration
	RateLimit      int64
	RateWindow     time.Duration
}

func NewGuard(client *redis.Client, idempotencyTTL time.Duration, rateLimit int64, rateWindow time.Duration) *Guard {
	return &Guard{
		Client:         client,
		IdempotencyTTL: idempotencyTTL,
		RateLimit:      rateLimit,
		RateWindow:     rateWindow,
	}
}

// Claim reports whether this is the first time userID sent requestID.
// Requests without an id are always new.
func (g *Guard) Claim(ctx context.Context, userID, requestID string) (bool, error) {
	if g == nil || g.Client == nil || requestID == "" {
		return true, nil
	}
	return g.Client.SetNX(ctx, idempotencyPrefix+userID+":"+requestID, "1", g.IdempotencyTTL).Result()
}

// Release forgets a claimed request id so a failed action can be retried.
func (g *Guard) Release(ctx context.Context, userID, requestID string) error {
	if g == nil || g.Client == nil || requestID == "" {
		return nil
	}
	return g.Client.Del(ctx, idempotencyPrefix+userID+":"+requestID).Err()
}

// Allow counts one hit for key and reports whether it is within the limit.
func (g *Guard) Allow(ctx context.Context, key string) (bool, int64, error) {
	if g == nil || g.Client == nil || g.RateLimit <= 0 {
		return true, 0, nil
	}
	n, err := windowHit.Run(ctx, g.Client, []string{rateLimitPrefix + key}, g.RateWindow.Milliseconds()).Int64()
	if err != nil {
		return false, 0, err
	}
	return n <= g.RateLimit, n, nil
}
