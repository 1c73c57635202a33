package cache

import (
	"context"
	"testing"
	"time"

	"go-eshop/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCartCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCartCache(client), mr
}

func TestRedisCartCache_Miss(t *testing.T) {
	c, _ := setupTestRedis(t)

	_, err := c.Get(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCartCache_SetGet(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	cart := models.NewCart("user-1")
	cart.Items["p1"] = 2
	cart.Items["p2"] = 1
	cart.Version = 4
	require.NoError(t, c.Set(ctx, cart))

	assert.True(t, mr.Exists("cart:user-1"))
	ttl := mr.TTL("cart:user-1")
	assert.GreaterOrEqual(t, ttl, 15*time.Minute)
	assert.Less(t, ttl, 20*time.Minute)

	got, err := c.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"p1": 2, "p2": 1}, got.Items)
	assert.Equal(t, int64(4), got.Version)
}

func TestRedisCartCache_Delete(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, models.NewCart("user-1")))
	require.NoError(t, c.Delete(ctx, "user-1"))
	assert.False(t, mr.Exists("cart:user-1"))

	_, err := c.Get(ctx, "user-1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCartCache_CorruptEntry(t *testing.T) {
	c, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cart:user-1", "{not json"))

	_, err := c.Get(context.Background(), "user-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
