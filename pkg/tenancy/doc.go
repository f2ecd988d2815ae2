// Package tenancy resolves which organization an HTTP request belongs to and
// publishes that decision as request-scoped context.
//
// Resolution runs once per request, before any business handler, and follows
// a strict precedence:
//
// 1. Subdomain - a host with three or more labels treats the first label as
// an organization slug; a small allow-list of operational subdomains (www,
// app, api, ...) always maps to the master organization
// 2. Loopback - localhost development defaults to the master organization
// 3. Custom domain - exact hostname match against an organization's mapped
// external domain
// 4. Session - on the root or an unmapped domain, an active impersonation
// trusts the session's organization; otherwise the configurable fallback
// applies (master organization, else first by id)
//
// The resolved decision is reconciled against the authenticated session: a
// non-superuser logged into organization A but visiting organization B's
// subdomain has the session destroyed and must re-authenticate, and a session
// pointing at a deleted organization is cleared the same way. Neither case is
// surfaced as an error.
//
// Members of the master organization (directly, or as the origin of an
// impersonation) are superusers; downstream row isolation does not filter
// their queries.
//
// # Usage
//
//	provider := tenancy.NewPGProvider(pool)
//	mw := tenancy.Middleware(provider, sessionHub,
//		tenancy.WithCacheTTL(5*time.Minute),
//		tenancy.WithPrivilegedSubdomains("www", "app", "api", "admin"),
//	)
//	router.Use(mw)
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		tc, ok := tenancy.FromContext(r.Context())
//		...
//	}
//
// An unresolvable tenant is not an error: the context is published with a nil
// organization and handlers that need one are protected with RequireTenant.
//
// # Suspension
//
// Requests for an inactive organization are answered with 503 and a
// Retry-After hint unless the path is under an exempt prefix (API, admin
// console, static assets, auth routes) or the caller is a superuser, so
// operators and billing flows keep working while a tenant is suspended.
package tenancy
