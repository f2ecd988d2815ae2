package tenancy

import (
	"context"
	"log/slog"
)

// Context is the request-scoped tenancy decision. It is created once during
// resolution, never mutated afterwards, and never shared across requests.
// OrgID 0 means the request is untenanted.
type Context struct {
	Org       *Organization
	OrgID     int64
	Superuser bool
}

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithContext attaches a tenancy decision to the request context.
func WithContext(ctx context.Context, tc *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext retrieves the tenancy decision from the context.
func FromContext(ctx context.Context) (*Context, bool) {
	tc, ok := ctx.Value(contextKey{}).(*Context)
	return tc, ok
}

// OrgIDFromContext retrieves just the active organization id.
// Returns 0, false for untenanted requests.
func OrgIDFromContext(ctx context.Context) (int64, bool) {
	tc, ok := FromContext(ctx)
	if !ok || tc.OrgID == 0 {
		return 0, false
	}
	return tc.OrgID, true
}

// MustFromContext retrieves the tenancy decision or panics. Use only in
// handlers mounted behind RequireTenant.
func MustFromContext(ctx context.Context) *Context {
	tc, ok := FromContext(ctx)
	if !ok || tc.Org == nil {
		panic("tenancy: no tenant in context")
	}
	return tc
}

// IsSuperuser reports whether the request runs with cross-tenant privileges.
func IsSuperuser(ctx context.Context) bool {
	tc, ok := FromContext(ctx)
	return ok && tc.Superuser
}

// LoggerExtractor returns a context extractor for the logger factory that
// annotates records with the active organization id.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := OrgIDFromContext(ctx); ok {
			return slog.Int64("org_id", id), true
		}
		return slog.Attr{}, false
	}
}
