package superadmin

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/openequip/dealerkit/pkg/session"
	"github.com/openequip/dealerkit/pkg/tenancy"
)

// Service implements the impersonation endpoints.
type Service struct {
	hub      *session.Hub
	provider tenancy.Provider
	masterID int64
	logger   *slog.Logger
}

// ServiceOption configures the service.
type ServiceOption func(*Service)

// WithMasterID overrides the master organization identifier.
func WithMasterID(id int64) ServiceOption {
	return func(s *Service) { s.masterID = id }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates the impersonation service.
func NewService(hub *session.Hub, provider tenancy.Provider, opts ...ServiceOption) *Service {
	s := &Service{
		hub:      hub,
		provider: provider,
		masterID: tenancy.MasterOrganizationID,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Impersonate switches the caller's session into the target organization's
// context. Only superusers may impersonate.
func (s *Service) Impersonate(w http.ResponseWriter, r *http.Request) {
	if !tenancy.IsSuperuser(r.Context()) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	targetID, err := strconv.ParseInt(chi.URLParam(r, "orgID"), 10, 64)
	if err != nil || targetID <= 0 {
		http.Error(w, "Invalid organization id", http.StatusBadRequest)
		return
	}

	target, err := s.provider.ByID(r.Context(), targetID)
	if err != nil {
		if errors.Is(err, tenancy.ErrOrganizationNotFound) {
			http.Error(w, "Organization not found", http.StatusNotFound)
			return
		}
		s.logger.ErrorContext(r.Context(), "impersonation target lookup failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := s.hub.BeginImpersonation(w, r, s.masterID, target.ID); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to begin impersonation", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.logger.InfoContext(r.Context(), "impersonation started", "target_org", target.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// StopImpersonation restores the caller's session to its origin
// organization.
func (s *Service) StopImpersonation(w http.ResponseWriter, r *http.Request) {
	if err := s.hub.EndImpersonation(w, r); err != nil {
		if errors.Is(err, session.ErrNotImpersonating) || errors.Is(err, session.ErrNoSession) {
			http.Error(w, "Not impersonating", http.StatusBadRequest)
			return
		}
		s.logger.ErrorContext(r.Context(), "failed to end impersonation", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	s.logger.InfoContext(r.Context(), "impersonation ended")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Router mounts the impersonation endpoints.
func (s *Service) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/impersonate/{orgID}", s.Impersonate)
	r.Post("/impersonate/stop", s.StopImpersonation)
	return r
}
