package bridge

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Mountable is a sync service that exposes an HTTP handler.
type Mountable interface {
	Handle() http.Handler
}

// RouterOptions configures which sync services to mount. Each is optional.
type RouterOptions struct {
	Inventory Mountable
	Dealers   Mountable
	Cases     Mountable
}

// Router mounts the bridge sync endpoints behind key authentication.
//
//	r.Mount("/api/bridge", bridge.Router(bridge.KeyAuth(provider, logger), bridge.RouterOptions{
//		Inventory: inventorySync,
//	}))
func Router(auth func(http.Handler) http.Handler, opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(auth)

	if opts.Inventory != nil {
		r.Mount("/inventory", opts.Inventory.Handle())
	}
	if opts.Dealers != nil {
		r.Mount("/dealers", opts.Dealers.Handle())
	}
	if opts.Cases != nil {
		r.Mount("/cases", opts.Cases.Handle())
	}

	return r
}
