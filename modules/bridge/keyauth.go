package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/openequip/dealerkit/pkg/isolation"
	"github.com/openequip/dealerkit/pkg/tenancy"
)

// KeyHeader carries the bridge credential.
const KeyHeader = "X-Bridge-Key"

// ErrUnknownKey is returned by providers when no organization owns the key.
var ErrUnknownKey = errors.New("unknown bridge key")

// KeyProvider resolves the organization that owns a bridge credential.
type KeyProvider interface {
	ByBridgeKey(ctx context.Context, key string) (*tenancy.Organization, error)
}

// KeyAuth authenticates requests by bridge key and publishes the owning
// organization as the active tenant. The key lookup runs with row isolation
// bypassed; everything after the middleware is scoped normally.
func KeyAuth(provider KeyProvider, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(KeyHeader)
			if key == "" {
				writeError(w, http.StatusUnauthorized, "missing "+KeyHeader+" header")
				return
			}

			var org *tenancy.Organization
			err := isolation.Bypassed(r.Context(), func(ctx context.Context) error {
				var err error
				org, err = provider.ByBridgeKey(ctx, key)
				return err
			})
			if err != nil {
				if errors.Is(err, ErrUnknownKey) || errors.Is(err, tenancy.ErrOrganizationNotFound) {
					writeError(w, http.StatusUnauthorized, "invalid bridge key")
					return
				}
				logger.ErrorContext(r.Context(), "bridge key lookup failed", "error", err)
				writeError(w, http.StatusInternalServerError, "bridge authentication unavailable")
				return
			}

			ctx := tenancy.WithContext(r.Context(), &tenancy.Context{
				Org:   org,
				OrgID: org.ID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
