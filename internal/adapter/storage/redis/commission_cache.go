package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// CommissionCache implements ports.CommissionCache using Redis. The platform
// pushes per-supplier rate overrides here; a miss means the supplier is on
// the default rate.
type CommissionCache struct {
	client *goredis.Client
	prefix string
}

// NewCommissionCache creates a new Redis-backed commission rate cache.
func NewCommissionCache(client *goredis.Client) *CommissionCache {
	return &CommissionCache{
		client: client,
		prefix: "commission:",
	}
}

// GetRate retrieves a supplier's commission rate override.
// The second return value is false when no override exists.
func (c *CommissionCache) GetRate(ctx context.Context, supplierID uuid.UUID) (decimal.Decimal, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+supplierID.String()).Result()
	if err != nil {
		if err == goredis.Nil {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("redis commission get: %w", err)
	}

	rate, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse cached commission rate %q: %w", val, err)
	}
	return rate, true, nil
}

// SetRate stores a supplier's commission rate override with TTL.
func (c *CommissionCache) SetRate(ctx context.Context, supplierID uuid.UUID, rate decimal.Decimal, ttl time.Duration) error {
	err := c.client.Set(ctx, c.prefix+supplierID.String(), rate.String(), ttl).Err()
	if err != nil {
		return fmt.Errorf("redis commission set: %w", err)
	}
	return nil
}
