package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

// HealthCheck reports Redis reachability for the deep health endpoint. Redis
// going down degrades the idempotency fast path and rate limiting but the
// ledger keeps working, so the report names it separately from PostgreSQL.
type HealthCheck struct {
	client *goredis.Client
}

// NewHealthCheck creates a Redis health checker.
func NewHealthCheck(client *goredis.Client) *HealthCheck {
	return &HealthCheck{client: client}
}

// Ping issues a redis PING.
func (h *HealthCheck) Ping(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}

// Name identifies this dependency in the health report.
func (h *HealthCheck) Name() string {
	return "redis"
}
