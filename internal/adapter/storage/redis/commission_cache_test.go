package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommissionCache_Miss(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewCommissionCache(client)

	rate, found, err := cache.GetRate(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, rate.IsZero())
}

func TestCommissionCache_SetAndGet(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewCommissionCache(client)
	ctx := context.Background()

	supplierID := uuid.New()
	rate := decimal.RequireFromString("0.15")

	err := cache.SetRate(ctx, supplierID, rate, time.Hour)
	require.NoError(t, err)

	got, found, err := cache.GetRate(ctx, supplierID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, rate.Equal(got))
}

func TestCommissionCache_CorruptValue(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewCommissionCache(client)

	supplierID := uuid.New()
	require.NoError(t, s.Set("commission:"+supplierID.String(), "not-a-number"))

	_, _, err := cache.GetRate(context.Background(), supplierID)
	assert.Error(t, err)
}
