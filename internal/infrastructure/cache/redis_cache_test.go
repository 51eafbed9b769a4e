package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCacheRoundTripAndExpiry(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisCache(client)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "summary:abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "summary:abc", "short", time.Hour))
	got, ok, err := c.Get(ctx, "summary:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "short", got)
	assert.Equal(t, time.Hour, mr.TTL("summary:abc"))

	mr.FastForward(time.Hour + time.Second)
	_, ok, err = c.Get(ctx, "summary:abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheServerDown(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	_, _, err := NewRedisCache(client).Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = Connect(context.Background(), "not a url")
	assert.Error(t, err)
}
