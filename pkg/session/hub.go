package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"
)

// Config holds session hub settings.
type Config struct {
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"dealerkit_session"`
	// CookieDomain should be the parent domain (".dealerstack.com") so the
	// session is visible across tenant subdomains; the tenancy resolver
	// depends on that to detect cross-tenant visits.
	CookieDomain string        `env:"SESSION_COOKIE_DOMAIN"`
	Secure       bool          `env:"SESSION_COOKIE_SECURE" envDefault:"true"`
	TTL          time.Duration `env:"SESSION_TTL" envDefault:"720h"`
}

// Hub manages session lifecycle over a Store and a cookie transport. It
// implements tenancy.SessionState.
type Hub struct {
	store Store
	cfg   Config
}

// NewHub creates a session hub.
func NewHub(store Store, cfg Config) *Hub {
	if cfg.CookieName == "" {
		cfg.CookieName = "dealerkit_session"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * 24 * time.Hour
	}
	return &Hub{store: store, cfg: cfg}
}

// Load returns the request's session, or nil when there is none (missing
// cookie, unknown token, expired).
func (h *Hub) Load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(h.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	s, err := h.store.Get(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// Ensure returns the request's session, creating one (and setting the
// cookie) when none exists.
func (h *Hub) Ensure(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if s, err := h.Load(r); err != nil || s != nil {
		return s, err
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}
	s := newSession(token, h.cfg.TTL)
	if err := h.store.Create(r.Context(), s); err != nil {
		return nil, err
	}
	h.setCookie(w, token, s.ExpiresAt)
	return s, nil
}

// Save persists mutated session data.
func (h *Hub) Save(r *http.Request, s *Session) error {
	return h.store.Update(r.Context(), s)
}

// Destroy clears the session server-side and expires the cookie. This is the
// clear-and-logout capability the tenancy resolver invokes on cross-tenant
// and orphaned sessions.
func (h *Hub) Destroy(w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(h.cfg.CookieName)
	if err == nil && cookie.Value != "" {
		if err := h.store.Delete(r.Context(), cookie.Value); err != nil {
			return err
		}
	}
	h.setCookie(w, "", time.Unix(0, 0))
	return nil
}

// OrganizationID returns the session's stored organization id.
func (h *Hub) OrganizationID(r *http.Request) (int64, bool) {
	s, err := h.Load(r)
	if err != nil || s == nil {
		return 0, false
	}
	return s.GetInt64(KeyOrganizationID)
}

// ImpersonationOrigin returns the organization an active impersonation
// started from.
func (h *Hub) ImpersonationOrigin(r *http.Request) (int64, bool) {
	s, err := h.Load(r)
	if err != nil || s == nil {
		return 0, false
	}
	return s.GetInt64(KeyImpersonationOrigin)
}

// SetOrganization binds the session to an organization after login.
func (h *Hub) SetOrganization(w http.ResponseWriter, r *http.Request, orgID int64) error {
	s, err := h.Ensure(w, r)
	if err != nil {
		return err
	}
	s.Set(KeyOrganizationID, orgID)
	return h.Save(r, s)
}

// BeginImpersonation switches the session to target's context while
// remembering origin so the privileges and the way back are retained.
func (h *Hub) BeginImpersonation(w http.ResponseWriter, r *http.Request, originOrgID, targetOrgID int64) error {
	s, err := h.Ensure(w, r)
	if err != nil {
		return err
	}
	s.Set(KeyImpersonationOrigin, originOrgID)
	s.Set(KeyOrganizationID, targetOrgID)
	return h.Save(r, s)
}

// EndImpersonation restores the session to the origin organization.
func (h *Hub) EndImpersonation(w http.ResponseWriter, r *http.Request) error {
	s, err := h.Load(r)
	if err != nil {
		return err
	}
	if s == nil {
		return ErrNoSession
	}

	origin, ok := s.GetInt64(KeyImpersonationOrigin)
	if !ok {
		return ErrNotImpersonating
	}
	s.Set(KeyOrganizationID, origin)
	s.Unset(KeyImpersonationOrigin)
	return h.Save(r, s)
}

func (h *Hub) setCookie(w http.ResponseWriter, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    value,
		Domain:   h.cfg.CookieDomain,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
