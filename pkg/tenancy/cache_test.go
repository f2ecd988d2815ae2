package tenancy_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openequip/dealerkit/pkg/tenancy"
)

func TestInMemoryCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()

		cache := tenancy.NewInMemoryCache()
		defer cache.Close()

		acme := org(3, "acme")
		cache.Set(ctx, "slug:acme", acme, time.Minute)

		got, ok := cache.Get(ctx, "slug:acme")
		require.True(t, ok)
		assert.Equal(t, acme, got)
	})

	t.Run("miss on unknown key", func(t *testing.T) {
		t.Parallel()

		cache := tenancy.NewInMemoryCache()
		defer cache.Close()

		_, ok := cache.Get(ctx, "slug:nope")
		assert.False(t, ok)
	})

	t.Run("expired entries are invisible", func(t *testing.T) {
		t.Parallel()

		cache := tenancy.NewInMemoryCache()
		defer cache.Close()

		cache.Set(ctx, "slug:acme", org(3, "acme"), time.Nanosecond)
		time.Sleep(10 * time.Millisecond)

		_, ok := cache.Get(ctx, "slug:acme")
		assert.False(t, ok)
	})

	t.Run("delete removes entry", func(t *testing.T) {
		t.Parallel()

		cache := tenancy.NewInMemoryCache()
		defer cache.Close()

		cache.Set(ctx, "id:3", org(3, "acme"), time.Minute)
		cache.Delete(ctx, "id:3")

		_, ok := cache.Get(ctx, "id:3")
		assert.False(t, ok)
	})

	t.Run("zero ttl disables storage", func(t *testing.T) {
		t.Parallel()

		cache := tenancy.NewInMemoryCache()
		defer cache.Close()

		cache.Set(ctx, "id:3", org(3, "acme"), 0)
		_, ok := cache.Get(ctx, "id:3")
		assert.False(t, ok)
	})
}

func TestCacheKeys(t *testing.T) {
	t.Parallel()

	full := org(4, "ncpower")
	full.CustomDomain = "ncpower.com"
	assert.ElementsMatch(t,
		[]string{"id:4", "slug:ncpower", "domain:ncpower.com"},
		tenancy.CacheKeys(full))

	bare := &tenancy.Organization{ID: 9}
	assert.Equal(t, []string{"id:9"}, tenancy.CacheKeys(bare))
}
