package tenancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// FallbackPolicy decides the tenant for a root-domain request with no
// session or impersonation to go by. The default resolves the master
// organization and, if that is missing, the first organization by id.
type FallbackPolicy func(ctx context.Context, provider Provider) (*Organization, error)

// ErrorHandler handles infrastructure failures during resolution (provider
// errors, not "organization not found" outcomes).
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type config struct {
	masterID      int64
	privileged    map[string]struct{}
	exemptPaths   []string
	cache         Cache
	cacheTTL      time.Duration
	fallback      FallbackPolicy
	suspended    http.HandlerFunc
	errorHandler ErrorHandler
	logger       *slog.Logger
}

// Option configures the resolution middleware.
type Option func(*config)

// WithMasterID overrides the master organization identifier.
func WithMasterID(id int64) Option {
	return func(c *config) { c.masterID = id }
}

// WithPrivilegedSubdomains replaces the allow-list of operational subdomain
// labels that always resolve to the master organization.
func WithPrivilegedSubdomains(labels ...string) Option {
	return func(c *config) {
		c.privileged = make(map[string]struct{}, len(labels))
		for _, label := range labels {
			c.privileged[label] = struct{}{}
		}
	}
}

// WithExemptPrefixes replaces the path prefixes that stay reachable while an
// organization is suspended.
func WithExemptPrefixes(prefixes ...string) Option {
	return func(c *config) { c.exemptPaths = prefixes }
}

// WithCache sets a custom organization cache implementation.
func WithCache(cache Cache) Option {
	return func(c *config) { c.cache = cache }
}

// WithCacheTTL sets how long resolved organizations are cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *config) { c.cacheTTL = ttl }
}

// WithFallback sets the root-domain fallback policy.
func WithFallback(policy FallbackPolicy) Option {
	return func(c *config) {
		if policy != nil {
			c.fallback = policy
		}
	}
}

// WithSuspendedHandler sets the response for suspended organizations.
func WithSuspendedHandler(h http.HandlerFunc) Option {
	return func(c *config) {
		if h != nil {
			c.suspended = h
		}
	}
}

// WithErrorHandler sets a custom handler for resolution infrastructure
// failures.
func WithErrorHandler(h ErrorHandler) Option {
	return func(c *config) {
		if h != nil {
			c.errorHandler = h
		}
	}
}

// WithLogger sets the logger used for resolution decisions and recoveries.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// SuspendedRetryAfter is the retry hint sent with suspended-tenant
// responses.
const SuspendedRetryAfter = time.Hour

func defaultConfig() *config {
	c := &config{
		masterID:     MasterOrganizationID,
		exemptPaths:  []string{"/api/", "/super_admin/", "/backend/", "/static/", "/auth/"},
		cache:        NewInMemoryCache(),
		cacheTTL:     5 * time.Minute,
		fallback:     DefaultFallback,
		suspended:    defaultSuspendedHandler,
		errorHandler: defaultErrorHandler,
		logger:       slog.Default(),
	}
	WithPrivilegedSubdomains("www", "app", "saas", "mail", "api", "admin")(c)
	return c
}

// DefaultFallback resolves the master organization, falling back to the
// first organization by id when the master is missing. Returns
// ErrNoOrganizations only when the system is completely empty.
func DefaultFallback(ctx context.Context, provider Provider) (*Organization, error) {
	org, err := provider.ByID(ctx, MasterOrganizationID)
	if err == nil {
		return org, nil
	}
	if !errors.Is(err, ErrOrganizationNotFound) {
		return nil, err
	}
	org, err = provider.First(ctx)
	if err != nil {
		if errors.Is(err, ErrOrganizationNotFound) {
			return nil, ErrNoOrganizations
		}
		return nil, err
	}
	return org, nil
}

func defaultSuspendedHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", int(SuspendedRetryAfter.Seconds())))
	http.Error(w, "Service temporarily suspended", http.StatusServiceUnavailable)
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
