package tenancy

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

// Middleware resolves the active organization for every inbound request and
// publishes the decision via WithContext before the next handler runs.
//
// Precedence: privileged/slug subdomain, loopback host, custom domain, then
// session (impersonation target or fallback policy). See the package
// documentation for the reconciliation and suspension rules.
func Middleware(provider Provider, sessions SessionState, opts ...Option) func(http.Handler) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var (
				sessionOrg    int64
				hasSession    bool
				originID      int64
				impersonating bool
			)
			if sessions != nil {
				sessionOrg, hasSession = sessions.OrganizationID(r)
				originID, impersonating = sessions.ImpersonationOrigin(r)
			}

			// Master-organization membership grants cross-tenant privileges,
			// whether held directly or retained as an impersonation origin.
			superuser := (hasSession && sessionOrg == cfg.masterID) ||
				(impersonating && originID == cfg.masterID)

			org, err := resolveHost(ctx, cfg, provider, r, sessionOrg, impersonating)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			if org != nil {
				// The hostname is the source of truth. A non-superuser
				// logged into a different organization gets the session
				// destroyed and must re-authenticate on this tenant.
				if hasSession && sessionOrg != org.ID && !superuser {
					cfg.logger.WarnContext(ctx, "cross-tenant session cleared",
						"session_org", sessionOrg, "host_org", org.ID)
					_ = sessions.Destroy(w, r)
				}
			} else if hasSession {
				org, err = lookupByID(ctx, cfg, provider, sessionOrg)
				if err != nil {
					cfg.errorHandler(w, r, err)
					return
				}
				if org == nil {
					// Session references a deleted organization.
					cfg.logger.WarnContext(ctx, "orphan session cleared",
						"session_org", sessionOrg)
					_ = sessions.Destroy(w, r)
				}
			}

			tc := &Context{Superuser: superuser}
			if org != nil {
				tc.Org = org
				tc.OrgID = org.ID
			}
			ctx = WithContext(ctx, tc)

			if org != nil && !org.Active && !superuser && !isExempt(cfg, r.URL.Path) {
				cfg.suspended(w, r.WithContext(ctx))
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTenant rejects requests that resolved to no organization. Mount it
// on routes whose handlers assume an active tenant.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, "Tenant required", http.StatusNotFound)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tc, ok := FromContext(r.Context())
			if !ok || tc.Org == nil {
				errorHandler(w, r, ErrNoTenantInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func resolveHost(ctx context.Context, cfg *config, provider Provider, r *http.Request, sessionOrg int64, impersonating bool) (*Organization, error) {
	host := EffectiveHost(r)

	if isLoopback(host) {
		return lookupByID(ctx, cfg, provider, cfg.masterID)
	}

	if labels := strings.Split(host, "."); len(labels) >= 3 {
		slug := labels[0]
		if _, ok := cfg.privileged[slug]; ok {
			return lookupByID(ctx, cfg, provider, cfg.masterID)
		}
		return lookupBySlug(ctx, cfg, provider, slug)
	}

	org, err := lookupByDomain(ctx, cfg, provider, host)
	if err != nil || org != nil {
		return org, err
	}

	// Root or unmapped domain. An active impersonation means a superuser is
	// browsing here on purpose; trust the session's target organization.
	if impersonating {
		return lookupByID(ctx, cfg, provider, sessionOrg)
	}

	org, err = cfg.fallback(ctx, provider)
	if err != nil {
		if errors.Is(err, ErrNoOrganizations) {
			return nil, nil
		}
		return nil, err
	}
	return org, nil
}

// EffectiveHost returns the request's hostname, preferring the trusted
// forwarded-host header set by the fronting proxy over the socket host.
func EffectiveHost(r *http.Request) string {
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	return strings.ToLower(strings.TrimSuffix(host, "."))
}

func isLoopback(host string) bool {
	return host == "localhost" || strings.HasSuffix(host, ".localhost") ||
		host == "127.0.0.1" || host == "::1"
}

func isExempt(cfg *config, path string) bool {
	for _, prefix := range cfg.exemptPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// The lookup helpers translate ErrOrganizationNotFound into a nil
// organization so resolution branches read as presence checks; only
// infrastructure failures propagate as errors.

func lookupByID(ctx context.Context, cfg *config, provider Provider, id int64) (*Organization, error) {
	return cachedLookup(ctx, cfg, cacheKeyID(id), func(ctx context.Context) (*Organization, error) {
		return provider.ByID(ctx, id)
	})
}

func lookupBySlug(ctx context.Context, cfg *config, provider Provider, slug string) (*Organization, error) {
	return cachedLookup(ctx, cfg, "slug:"+slug, func(ctx context.Context) (*Organization, error) {
		return provider.BySlug(ctx, slug)
	})
}

func lookupByDomain(ctx context.Context, cfg *config, provider Provider, domain string) (*Organization, error) {
	return cachedLookup(ctx, cfg, "domain:"+domain, func(ctx context.Context) (*Organization, error) {
		return provider.ByDomain(ctx, domain)
	})
}

func cachedLookup(ctx context.Context, cfg *config, key string, fetch func(ctx context.Context) (*Organization, error)) (*Organization, error) {
	if cfg.cache != nil {
		if org, ok := cfg.cache.Get(ctx, key); ok {
			return org, nil
		}
	}

	org, err := fetch(ctx)
	if err != nil {
		if errors.Is(err, ErrOrganizationNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if cfg.cache != nil {
		cfg.cache.Set(ctx, key, org, cfg.cacheTTL)
	}
	return org, nil
}
