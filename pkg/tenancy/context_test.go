package tenancy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openequip/dealerkit/pkg/tenancy"
)

func TestContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		tc := &tenancy.Context{Org: org(3, "acme"), OrgID: 3}
		ctx := tenancy.WithContext(context.Background(), tc)

		got, ok := tenancy.FromContext(ctx)
		require.True(t, ok)
		assert.Same(t, tc, got)

		id, ok := tenancy.OrgIDFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, int64(3), id)
	})

	t.Run("missing context", func(t *testing.T) {
		t.Parallel()

		_, ok := tenancy.FromContext(context.Background())
		assert.False(t, ok)

		_, ok = tenancy.OrgIDFromContext(context.Background())
		assert.False(t, ok)
		assert.False(t, tenancy.IsSuperuser(context.Background()))
	})

	t.Run("untenanted context yields no org id", func(t *testing.T) {
		t.Parallel()

		ctx := tenancy.WithContext(context.Background(), &tenancy.Context{Superuser: true})
		_, ok := tenancy.OrgIDFromContext(ctx)
		assert.False(t, ok)
		assert.True(t, tenancy.IsSuperuser(ctx))
	})

	t.Run("must panics without tenant", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			tenancy.MustFromContext(context.Background())
		})
	})

	t.Run("logger extractor", func(t *testing.T) {
		t.Parallel()

		extract := tenancy.LoggerExtractor()

		_, ok := extract(context.Background())
		assert.False(t, ok)

		ctx := tenancy.WithContext(context.Background(), &tenancy.Context{Org: org(5, "x"), OrgID: 5})
		attr, ok := extract(ctx)
		require.True(t, ok)
		assert.Equal(t, "org_id", attr.Key)
		assert.Equal(t, int64(5), attr.Value.Int64())
	})
}
