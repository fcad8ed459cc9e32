package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/wikisophy/pkg/adapters/memory"
	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/aretw0/wikisophy/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_Contract(t *testing.T) {
	cache := memory.NewCache()
	ports.RunCacheContract(t, cache)
}

func TestMemoryCache_Expiration(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}

	cache := memory.NewCache(memory.WithClock(clock))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "short", []byte("a"), time.Second))
	require.NoError(t, cache.Set(ctx, "forever", []byte("b"), 0))

	_, err := cache.Get(ctx, "short")
	require.NoError(t, err)

	advance(2 * time.Second)

	_, err = cache.Get(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
	assert.Equal(t, 1, cache.Len(), "expired entry is evicted on read")

	got, err := cache.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "b", string(got))
}

func TestMemoryCache_Isolation(t *testing.T) {
	cache := memory.NewCache()
	ctx := context.Background()

	value := []byte("original")
	require.NoError(t, cache.Set(ctx, "k", value, 0))
	value[0] = 'X'

	got, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))

	got[0] = 'Y'
	again, _ := cache.Get(ctx, "k")
	assert.Equal(t, "original", string(again))
}
