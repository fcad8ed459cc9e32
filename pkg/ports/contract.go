package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCacheContract runs a suite of tests to verify that a Cache implementation
// adheres to the defined interface contract.
func RunCacheContract(t *testing.T, cache Cache) {
	ctx := context.Background()
	prefix := "contract-test-" + time.Now().Format("20060102150405") + ":"

	t.Run("Set and Get", func(t *testing.T) {
		key := prefix + "markup:Cat"
		err := cache.Set(ctx, key, []byte("<p>The cat is a mammal.</p>"), time.Minute)
		require.NoError(t, err, "Set should not return error")

		got, err := cache.Get(ctx, key)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, "<p>The cat is a mammal.</p>", string(got))
	})

	t.Run("Overwrite", func(t *testing.T) {
		key := prefix + "preview:Cat"
		require.NoError(t, cache.Set(ctx, key, []byte("old"), 0))
		require.NoError(t, cache.Set(ctx, key, []byte("new"), 0))

		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "new", string(got))
	})

	t.Run("Get Missing", func(t *testing.T) {
		_, err := cache.Get(ctx, prefix+"missing")
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	})

	t.Run("Delete", func(t *testing.T) {
		key := prefix + "delete-me"
		require.NoError(t, cache.Set(ctx, key, []byte("x"), 0))

		err := cache.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = cache.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrCacheMiss, "Get after Delete should return ErrCacheMiss")

		assert.NoError(t, cache.Delete(ctx, key), "Deleting twice should be a no-op")
	})

	t.Run("Empty Value", func(t *testing.T) {
		key := prefix + "empty"
		require.NoError(t, cache.Set(ctx, key, []byte{}, 0))

		got, err := cache.Get(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
