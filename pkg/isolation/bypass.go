package isolation

import "context"

type bypassContextKey struct{}

// WithBypass returns a context on which the tenant filter is disabled.
// Because the bypass lives on a derived context, it cannot outlive the scope
// it was created for: the parent context is untouched, nested bypasses are
// naturally reentrant, and no restore step is needed on any exit path.
func WithBypass(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassContextKey{}, true)
}

// IsBypassed reports whether tenant filtering is disabled on ctx.
func IsBypassed(ctx context.Context) bool {
	bypassed, _ := ctx.Value(bypassContextKey{}).(bool)
	return bypassed
}

// Bypassed runs fn with tenant filtering disabled. Used for bounded
// cross-tenant lookups, e.g. resolving which organization owns an API
// credential before a tenant context exists.
func Bypassed(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(WithBypass(ctx))
}
