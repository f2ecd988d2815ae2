package tenancy

import (
	"context"
	"net/http"
	"time"
)

// MasterOrganizationID is the default identifier of the distinguished
// organization whose members operate with cross-tenant privileges.
// Overridable per middleware via WithMasterID.
const MasterOrganizationID int64 = 1

// Organization is a customer account, the unit of data isolation.
type Organization struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug,omitempty"`
	CustomDomain string    `json:"custom_domain,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Provider loads organizations from a data source. All lookups return
// ErrOrganizationNotFound when nothing matches.
type Provider interface {
	// ByID retrieves an organization by its identifier.
	ByID(ctx context.Context, id int64) (*Organization, error)

	// BySlug retrieves an organization by its subdomain slug.
	BySlug(ctx context.Context, slug string) (*Organization, error)

	// ByDomain retrieves an organization by its mapped custom domain.
	ByDomain(ctx context.Context, domain string) (*Organization, error)

	// First retrieves the oldest organization by id. Used only by the
	// default fallback policy when the master organization is missing.
	First(ctx context.Context) (*Organization, error)
}

// SessionState is what the resolver needs from the auth subsystem: the two
// stored organization ids and the ability to clear the session outright.
type SessionState interface {
	// OrganizationID returns the organization the logged-in principal
	// belongs to, or is currently impersonating. ok is false when there is
	// no authenticated session.
	OrganizationID(r *http.Request) (id int64, ok bool)

	// ImpersonationOrigin returns the organization a superuser started
	// impersonating from. ok is false when no impersonation is active.
	ImpersonationOrigin(r *http.Request) (id int64, ok bool)

	// Destroy clears the session and logs the principal out.
	Destroy(w http.ResponseWriter, r *http.Request) error
}
