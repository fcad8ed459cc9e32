package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/wikisophy/pkg/adapters/redis"
	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/aretw0/wikisophy/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_Contract(t *testing.T) {
	// Setup miniredis
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	cache := redis.NewFromClient(client)
	ports.RunCacheContract(t, cache)
}

func TestRedisCache_Prefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	ctx := context.Background()

	cache := redis.NewFromClient(client)
	require.NoError(t, cache.Set(ctx, "markup:Cat", []byte("x"), 0))
	assert.True(t, mr.Exists("wikisophy:cache:markup:Cat"))

	custom := redis.NewFromClient(client, redis.WithPrefix("test:"))
	require.NoError(t, custom.Set(ctx, "k", []byte("y"), 0))
	assert.True(t, mr.Exists("test:k"))
}

func TestRedisCache_TTL_Expiration(t *testing.T) {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})

	// Default TTL applies when the caller passes zero.
	cache := redis.NewFromClient(client, redis.WithTTL(time.Second))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "default", []byte("a"), 0))
	require.NoError(t, cache.Set(ctx, "explicit", []byte("b"), 10*time.Second))

	assert.Equal(t, time.Second, mr.TTL("wikisophy:cache:default"))
	assert.Equal(t, 10*time.Second, mr.TTL("wikisophy:cache:explicit"))

	// Fast Forward time in miniredis (for Key Expiration)
	mr.FastForward(2 * time.Second)

	_, err = cache.Get(ctx, "default")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)

	got, err := cache.Get(ctx, "explicit")
	require.NoError(t, err)
	assert.Equal(t, "b", string(got))
}

func TestRedisCache_ServerDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr(), MaxRetries: -1})
	cache := redis.NewFromClient(client)
	mr.Close()

	_, err = cache.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrCacheMiss, "connection errors are not misses")
}
