package isolation

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/openequip/dealerkit/pkg/tenancy"
)

// Interceptor inspects and rewrites a statement before execution. The store
// runs every registered interceptor in order on every statement.
type Interceptor interface {
	BeforeExecute(ctx context.Context, stmt *Statement) error
}

// InterceptorFunc adapts a function to the Interceptor interface.
type InterceptorFunc func(ctx context.Context, stmt *Statement) error

// BeforeExecute calls the function.
func (f InterceptorFunc) BeforeExecute(ctx context.Context, stmt *Statement) error {
	return f(ctx, stmt)
}

// TenantFilter returns the interceptor that scopes statements to the active
// organization published by pkg/tenancy.
//
// A statement passes through unmodified when any of these hold:
//   - the context carries no tenant, or an untenanted one (org id 0)
//   - the caller is a superuser
//   - the bypass scope is active on the context
//
// Otherwise every tenant-scoped entity the statement touches (primary table
// and joins alike) gets an "<table>.organization_id = <active org>" predicate
// on selects, updates and deletes. Entities without the tenant-scoped trait
// are considered global lookup tables and are never filtered.
func TenantFilter() Interceptor {
	return InterceptorFunc(func(ctx context.Context, stmt *Statement) error {
		tc, ok := tenancy.FromContext(ctx)
		if !ok || tc.Superuser || tc.OrgID == 0 || IsBypassed(ctx) {
			return nil
		}

		// Inserts cannot be filtered, so new rows of a tenant-scoped entity
		// get the active organization stamped in unless the caller set it.
		if stmt.kind == KindInsert {
			if stmt.entity != nil && stmt.entity.TenantScoped {
				stmt.stampTenantColumn(tc.OrgID)
			}
			return nil
		}

		seen := make(map[*Entity]struct{}, 1+len(stmt.refs))
		for _, entity := range stmt.Entities() {
			if entity == nil || !entity.TenantScoped {
				continue
			}
			if _, dup := seen[entity]; dup {
				continue
			}
			seen[entity] = struct{}{}
			stmt.Where(sq.Eq{entity.qualifiedTenantColumn(): tc.OrgID})
		}
		return nil
	})
}
