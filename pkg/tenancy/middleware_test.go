package tenancy_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openequip/dealerkit/pkg/tenancy"
)

type mockProvider struct {
	byID     map[int64]*tenancy.Organization
	bySlug   map[string]*tenancy.Organization
	byDomain map[string]*tenancy.Organization
	err      error
}

func newMockProvider(orgs ...*tenancy.Organization) *mockProvider {
	p := &mockProvider{
		byID:     make(map[int64]*tenancy.Organization),
		bySlug:   make(map[string]*tenancy.Organization),
		byDomain: make(map[string]*tenancy.Organization),
	}
	for _, org := range orgs {
		p.add(org)
	}
	return p
}

func (p *mockProvider) add(org *tenancy.Organization) {
	p.byID[org.ID] = org
	if org.Slug != "" {
		p.bySlug[org.Slug] = org
	}
	if org.CustomDomain != "" {
		p.byDomain[org.CustomDomain] = org
	}
}

func (p *mockProvider) ByID(_ context.Context, id int64) (*tenancy.Organization, error) {
	if p.err != nil {
		return nil, p.err
	}
	if org, ok := p.byID[id]; ok {
		return org, nil
	}
	return nil, tenancy.ErrOrganizationNotFound
}

func (p *mockProvider) BySlug(_ context.Context, slug string) (*tenancy.Organization, error) {
	if p.err != nil {
		return nil, p.err
	}
	if org, ok := p.bySlug[slug]; ok {
		return org, nil
	}
	return nil, tenancy.ErrOrganizationNotFound
}

func (p *mockProvider) ByDomain(_ context.Context, domain string) (*tenancy.Organization, error) {
	if p.err != nil {
		return nil, p.err
	}
	if org, ok := p.byDomain[domain]; ok {
		return org, nil
	}
	return nil, tenancy.ErrOrganizationNotFound
}

func (p *mockProvider) First(_ context.Context) (*tenancy.Organization, error) {
	if p.err != nil {
		return nil, p.err
	}
	var first *tenancy.Organization
	for _, org := range p.byID {
		if first == nil || org.ID < first.ID {
			first = org
		}
	}
	if first == nil {
		return nil, tenancy.ErrOrganizationNotFound
	}
	return first, nil
}

type mockSessions struct {
	orgID     int64
	hasOrg    bool
	origin    int64
	hasOrigin bool
	destroyed bool
}

func (m *mockSessions) OrganizationID(*http.Request) (int64, bool) {
	if m.destroyed {
		return 0, false
	}
	return m.orgID, m.hasOrg
}

func (m *mockSessions) ImpersonationOrigin(*http.Request) (int64, bool) {
	if m.destroyed {
		return 0, false
	}
	return m.origin, m.hasOrigin
}

func (m *mockSessions) Destroy(http.ResponseWriter, *http.Request) error {
	m.destroyed = true
	m.hasOrg = false
	m.hasOrigin = false
	return nil
}

func org(id int64, slug string) *tenancy.Organization {
	return &tenancy.Organization{
		ID:        id,
		Name:      slug,
		Slug:      slug,
		Active:    true,
		CreatedAt: time.Now(),
	}
}

func masterOrg() *tenancy.Organization {
	m := org(1, "")
	m.Name = "Master"
	return m
}

// resolve runs one request through the middleware and returns the published
// tenancy context alongside the response.
func resolve(t *testing.T, provider tenancy.Provider, sessions tenancy.SessionState, host, path string, opts ...tenancy.Option) (*tenancy.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var captured *tenancy.Context
	handler := tenancy.Middleware(provider, sessions, opts...)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc, ok := tenancy.FromContext(r.Context())
			require.True(t, ok, "middleware must always publish a tenancy context")
			captured = tc
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Host = host
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return captured, w
}

func TestMiddlewareHostResolution(t *testing.T) {
	t.Parallel()

	t.Run("resolves organization from subdomain slug", func(t *testing.T) {
		t.Parallel()

		kens := org(7, "kens-mowers")
		provider := newMockProvider(masterOrg(), kens)

		tc, w := resolve(t, provider, &mockSessions{}, "kens-mowers.example.com", "/")
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, tc.Org)
		assert.Equal(t, int64(7), tc.OrgID)
		assert.False(t, tc.Superuser)
	})

	t.Run("privileged subdomain wins over slug collision", func(t *testing.T) {
		t.Parallel()

		collider := org(9, "app")
		provider := newMockProvider(masterOrg(), collider)

		tc, w := resolve(t, provider, &mockSessions{}, "app.example.com", "/")
		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, tc.Org)
		assert.Equal(t, int64(1), tc.OrgID)
	})

	t.Run("admin subdomain resolves to master", func(t *testing.T) {
		t.Parallel()

		provider := newMockProvider(masterOrg())

		tc, _ := resolve(t, provider, &mockSessions{}, "admin.example.com", "/")
		require.NotNil(t, tc.Org)
		assert.Equal(t, int64(1), tc.OrgID)
	})

	t.Run("loopback host defaults to master", func(t *testing.T) {
		t.Parallel()

		provider := newMockProvider(masterOrg())

		tc, _ := resolve(t, provider, &mockSessions{}, "localhost:3000", "/")
		require.NotNil(t, tc.Org)
		assert.Equal(t, int64(1), tc.OrgID)
	})

	t.Run("custom domain exact match", func(t *testing.T) {
		t.Parallel()

		nc := org(4, "ncpower")
		nc.CustomDomain = "ncpower.com"
		provider := newMockProvider(masterOrg(), nc)

		tc, _ := resolve(t, provider, &mockSessions{}, "ncpower.com", "/")
		require.NotNil(t, tc.Org)
		assert.Equal(t, int64(4), tc.OrgID)
	})

	t.Run("prefers forwarded host over socket host", func(t *testing.T) {
		t.Parallel()

		acme := org(3, "acme")
		provider := newMockProvider(masterOrg(), acme)

		var captured *tenancy.Context
		handler := tenancy.Middleware(provider, &mockSessions{})(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured, _ = tenancy.FromContext(r.Context())
			}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Host = "internal-lb:8080"
		req.Header.Set("X-Forwarded-Host", "acme.example.com")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		require.NotNil(t, captured)
		assert.Equal(t, int64(3), captured.OrgID)
	})

	t.Run("root domain falls back to master", func(t *testing.T) {
		t.Parallel()

		provider := newMockProvider(masterOrg(), org(2, "beta"))

		tc, _ := resolve(t, provider, &mockSessions{}, "example.com", "/")
		require.NotNil(t, tc.Org)
		assert.Equal(t, int64(1), tc.OrgID)
	})

	t.Run("root domain falls back to first organization when master missing", func(t *testing.T) {
		t.Parallel()

		provider := newMockProvider(org(5, "only"))

		tc, _ := resolve(t, provider, &mockSessions{}, "example.com", "/")
		require.NotNil(t, tc.Org)
		assert.Equal(t, int64(5), tc.OrgID)
	})

	t.Run("publishes null tenant when nothing resolves", func(t *testing.T) {
		t.Parallel()

		provider := newMockProvider() // no organizations at all

		tc, w := resolve(t, provider, &mockSessions{}, "example.com", "/")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, tc.Org)
		assert.Zero(t, tc.OrgID)
	})
}

func TestMiddlewareSessionReconciliation(t *testing.T) {
	t.Parallel()

	t.Run("cross-tenant session is destroyed", func(t *testing.T) {
		t.Parallel()

		acme := org(3, "acme")
		provider := newMockProvider(masterOrg(), acme, org(2, "beta"))
		sessions := &mockSessions{orgID: 2, hasOrg: true}

		tc, w := resolve(t, provider, sessions, "acme.example.com", "/")
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, sessions.destroyed, "session for beta must be cleared on acme's subdomain")
		require.NotNil(t, tc.Org)
		assert.Equal(t, int64(3), tc.OrgID)
		assert.False(t, tc.Superuser)
	})

	t.Run("superuser session survives foreign subdomain", func(t *testing.T) {
		t.Parallel()

		acme := org(3, "acme")
		provider := newMockProvider(masterOrg(), acme)
		sessions := &mockSessions{orgID: 1, hasOrg: true}

		tc, _ := resolve(t, provider, sessions, "acme.example.com", "/")
		assert.False(t, sessions.destroyed)
		require.NotNil(t, tc.Org)
		assert.Equal(t, int64(3), tc.OrgID)
		assert.True(t, tc.Superuser)
	})

	t.Run("impersonating superuser resolves session target on root domain", func(t *testing.T) {
		t.Parallel()

		target := org(7, "target")
		provider := newMockProvider(masterOrg(), target)
		sessions := &mockSessions{orgID: 7, hasOrg: true, origin: 1, hasOrigin: true}

		tc, _ := resolve(t, provider, sessions, "example.com", "/")
		require.NotNil(t, tc.Org)
		assert.Equal(t, int64(7), tc.OrgID)
		assert.True(t, tc.Superuser)
		assert.False(t, sessions.destroyed)
	})

	t.Run("orphan session referencing deleted organization is cleared", func(t *testing.T) {
		t.Parallel()

		provider := newMockProvider(masterOrg())
		sessions := &mockSessions{orgID: 999, hasOrg: true}

		tc, w := resolve(t, provider, sessions, "nonexistent.example.com", "/")
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, sessions.destroyed)
		assert.Nil(t, tc.Org)
	})

	t.Run("session tenant used when host resolves nothing", func(t *testing.T) {
		t.Parallel()

		beta := org(2, "beta")
		provider := newMockProvider(masterOrg(), beta)
		sessions := &mockSessions{orgID: 2, hasOrg: true}

		tc, _ := resolve(t, provider, sessions, "unknown.example.com", "/")
		require.NotNil(t, tc.Org)
		assert.Equal(t, int64(2), tc.OrgID)
		assert.False(t, sessions.destroyed)
	})
}

func TestMiddlewareSuspensionGate(t *testing.T) {
	t.Parallel()

	suspendedOrg := func() *tenancy.Organization {
		o := org(6, "dormant")
		o.Active = false
		return o
	}

	t.Run("suspended tenant gets 503 with retry hint", func(t *testing.T) {
		t.Parallel()

		provider := newMockProvider(masterOrg(), suspendedOrg())

		_, w := resolve(t, provider, &mockSessions{}, "dormant.example.com", "/dashboard")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "3600", w.Header().Get("Retry-After"))
	})

	t.Run("exempt path stays reachable while suspended", func(t *testing.T) {
		t.Parallel()

		provider := newMockProvider(masterOrg(), suspendedOrg())

		tc, w := resolve(t, provider, &mockSessions{}, "dormant.example.com", "/api/v1/units")
		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, tc.Org)
		assert.Equal(t, int64(6), tc.OrgID)
	})

	t.Run("superuser bypasses suspension", func(t *testing.T) {
		t.Parallel()

		provider := newMockProvider(masterOrg(), suspendedOrg())
		sessions := &mockSessions{orgID: 1, hasOrg: true}

		_, w := resolve(t, provider, sessions, "dormant.example.com", "/dashboard")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("custom suspended handler", func(t *testing.T) {
		t.Parallel()

		provider := newMockProvider(masterOrg(), suspendedOrg())
		custom := func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusPaymentRequired)
		}

		_, w := resolve(t, provider, &mockSessions{}, "dormant.example.com", "/",
			tenancy.WithSuspendedHandler(custom))
		assert.Equal(t, http.StatusPaymentRequired, w.Code)
	})
}

func TestMiddlewareOptions(t *testing.T) {
	t.Parallel()

	t.Run("custom master id", func(t *testing.T) {
		t.Parallel()

		master := org(42, "")
		provider := newMockProvider(master)

		tc, _ := resolve(t, provider, &mockSessions{}, "admin.example.com", "/",
			tenancy.WithMasterID(42))
		require.NotNil(t, tc.Org)
		assert.Equal(t, int64(42), tc.OrgID)
	})

	t.Run("custom privileged subdomains", func(t *testing.T) {
		t.Parallel()

		ops := org(8, "ops")
		provider := newMockProvider(masterOrg(), ops)

		// "ops" is no longer a tenant slug once marked privileged.
		tc, _ := resolve(t, provider, &mockSessions{}, "ops.example.com", "/",
			tenancy.WithPrivilegedSubdomains("ops"))
		require.NotNil(t, tc.Org)
		assert.Equal(t, int64(1), tc.OrgID)
	})

	t.Run("provider failure hits error handler", func(t *testing.T) {
		t.Parallel()

		provider := newMockProvider(masterOrg())
		provider.err = assert.AnError

		_, w := resolve(t, provider, &mockSessions{}, "acme.example.com", "/",
			tenancy.WithCacheTTL(0))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestRequireTenant(t *testing.T) {
	t.Parallel()

	t.Run("rejects untenanted request", func(t *testing.T) {
		t.Parallel()

		handler := tenancy.RequireTenant(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run without a tenant")
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(tenancy.WithContext(req.Context(), &tenancy.Context{}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("passes tenanted request", func(t *testing.T) {
		t.Parallel()

		called := false
		handler := tenancy.RequireTenant(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		tc := &tenancy.Context{Org: org(2, "beta"), OrgID: 2}
		req = req.WithContext(tenancy.WithContext(req.Context(), tc))
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.True(t, called)
	})
}

func TestDefaultFallback(t *testing.T) {
	t.Parallel()

	t.Run("prefers master", func(t *testing.T) {
		t.Parallel()

		provider := newMockProvider(masterOrg(), org(2, "beta"))
		got, err := tenancy.DefaultFallback(context.Background(), provider)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ID)
	})

	t.Run("falls back to first by id", func(t *testing.T) {
		t.Parallel()

		provider := newMockProvider(org(3, "gamma"), org(2, "beta"))
		got, err := tenancy.DefaultFallback(context.Background(), provider)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.ID)
	})

	t.Run("reports empty system", func(t *testing.T) {
		t.Parallel()

		provider := newMockProvider()
		_, err := tenancy.DefaultFallback(context.Background(), provider)
		assert.ErrorIs(t, err, tenancy.ErrNoOrganizations)
	})
}
