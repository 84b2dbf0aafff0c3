package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// rateLimitKeyPrefix namespaces wallet-service counters so they never collide
// with the settlement or commission caches on a shared redis.
const rateLimitKeyPrefix = "swl:rl:"

// RateLimitStore counts requests per caller in fixed windows backed by Redis.
// The middleware decides what happens on a redis outage; the store only
// reports the counter state.
type RateLimitStore struct {
	client *goredis.Client
}

// NewRateLimitStore creates a Redis-backed rate limit store.
func NewRateLimitStore(client *goredis.Client) *RateLimitStore {
	return &RateLimitStore{client: client}
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}

// Allow records one request against the caller's current window and reports
// whether it fits under limit. Windows are discrete: the key embeds
// time/window, so counters reset on the window boundary rather than sliding.
func (s *RateLimitStore) Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error) {
	windowSecs := int64(window.Seconds())
	windowID := time.Now().Unix() / windowSecs
	counterKey := fmt.Sprintf("%s%s:%d", rateLimitKeyPrefix, key, windowID)

	count, err := s.client.Incr(ctx, counterKey).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit incr: %w", err)
	}

	// First hit in a window owns the expiry. One extra second covers clock
	// skew between the app and redis.
	if count == 1 {
		s.client.Expire(ctx, counterKey, window+time.Second)
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &RateLimitResult{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   (windowID + 1) * windowSecs,
	}, nil
}
