package bridge_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openequip/dealerkit/modules/bridge"
	"github.com/openequip/dealerkit/pkg/isolation"
	"github.com/openequip/dealerkit/pkg/tenancy"
)

type mockKeyProvider struct {
	orgs map[string]*tenancy.Organization
	err  error

	sawBypass bool
}

func (m *mockKeyProvider) ByBridgeKey(ctx context.Context, key string) (*tenancy.Organization, error) {
	m.sawBypass = isolation.IsBypassed(ctx)
	if m.err != nil {
		return nil, m.err
	}
	org, ok := m.orgs[key]
	if !ok {
		return nil, bridge.ErrUnknownKey
	}
	return org, nil
}

func TestKeyAuth(t *testing.T) {
	t.Parallel()

	dealerOrg := &tenancy.Organization{ID: 7, Name: "Acme Equipment", Slug: "acme", Active: true}

	t.Run("missing key is rejected", func(t *testing.T) {
		t.Parallel()

		provider := &mockKeyProvider{}
		handler := bridge.KeyAuth(provider, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/bridge/inventory", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	})

	t.Run("unknown key is rejected", func(t *testing.T) {
		t.Parallel()

		provider := &mockKeyProvider{orgs: map[string]*tenancy.Organization{}}
		handler := bridge.KeyAuth(provider, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

		req := httptest.NewRequest(http.MethodPost, "/bridge/inventory", nil)
		req.Header.Set(bridge.KeyHeader, "bogus")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("provider failure is a server error", func(t *testing.T) {
		t.Parallel()

		provider := &mockKeyProvider{err: assert.AnError}
		handler := bridge.KeyAuth(provider, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		}))

		req := httptest.NewRequest(http.MethodPost, "/bridge/inventory", nil)
		req.Header.Set(bridge.KeyHeader, "key-1")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("valid key publishes the owning tenant", func(t *testing.T) {
		t.Parallel()

		provider := &mockKeyProvider{orgs: map[string]*tenancy.Organization{"key-1": dealerOrg}}

		var seen *tenancy.Context
		var handlerBypassed bool
		handler := bridge.KeyAuth(provider, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = tenancy.FromContext(r.Context())
			handlerBypassed = isolation.IsBypassed(r.Context())
		}))

		req := httptest.NewRequest(http.MethodPost, "/bridge/inventory", nil)
		req.Header.Set(bridge.KeyHeader, "key-1")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		require.NotNil(t, seen)
		assert.Equal(t, int64(7), seen.OrgID)
		assert.False(t, seen.Superuser, "bridge clients never get superuser privileges")

		// Only the credential lookup runs unscoped.
		assert.True(t, provider.sawBypass)
		assert.False(t, handlerBypassed)
	})
}
