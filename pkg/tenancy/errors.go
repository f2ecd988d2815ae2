package tenancy

import "errors"

var (
	// ErrOrganizationNotFound is returned by providers when no organization
	// matches the lookup.
	ErrOrganizationNotFound = errors.New("organization not found")

	// ErrNoTenantInContext is returned when a handler requires a tenant but
	// the request resolved to none.
	ErrNoTenantInContext = errors.New("no tenant in context")

	// ErrNoOrganizations is returned by the fallback policy when the system
	// has no organizations at all.
	ErrNoOrganizations = errors.New("no organizations exist")
)
