// Package isolation enforces row-level tenant scoping at the query-execution
// boundary instead of at every call site.
//
// The package is built around four pieces:
//
// 1. Entities - registered descriptors declaring whether a table carries an
// organization foreign key (the tenant-scoped trait)
// 2. Statements - thin envelopes around squirrel builders that remember which
// entities a query touches
// 3. Interceptors - hooks that inspect and rewrite a statement before it is
// executed; the built-in TenantFilter injects the organization predicate
// 4. Store - an executor over pgx that runs the interceptor chain and then
// the rendered SQL
//
// Centralizing the filter here means a handler that forgets to scope a query
// cannot leak another organization's rows: the predicate is appended for the
// statement's primary entity and every joined entity that is tenant-scoped.
//
// # Usage
//
//	var units = isolation.MustRegister(isolation.Entity{
//		Name:         "units",
//		Table:        "units",
//		TenantScoped: true,
//	})
//
//	store := isolation.NewStore(pool)
//
//	stmt := isolation.Select(units, "id", "serial_no").Where(sq.Eq{"status": "in_stock"})
//	rows, err := store.Query(ctx, stmt)
//
// With an active organization in the request context the executed SQL carries
// an extra "units.organization_id = $n" predicate. Superuser contexts and
// untenanted contexts execute statements unmodified.
//
// # Bypass
//
// A bounded cross-tenant operation (for example resolving which organization
// owns an API credential before any tenant context exists) runs inside
// Bypassed:
//
//	err := isolation.Bypassed(ctx, func(ctx context.Context) error {
//		row := store.QueryRow(ctx, stmt)
//		return row.Scan(&orgID)
//	})
//
// The bypass is carried on a derived context, so it ends when the callback
// returns regardless of how it exits, and nesting needs no special handling.
package isolation
