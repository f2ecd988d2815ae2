package session

import (
	"time"

	"github.com/google/uuid"
)

// Well-known data keys consumed by the tenancy resolver.
const (
	// KeyOrganizationID holds the organization the principal belongs to or
	// is currently impersonating.
	KeyOrganizationID = "organization_id"

	// KeyImpersonationOrigin holds the organization a superuser started
	// impersonating from. Absence means no impersonation is active.
	KeyImpersonationOrigin = "impersonation_origin_org_id"
)

// Session is an authenticated principal's server-side state, addressed by an
// opaque cookie token.
type Session struct {
	ID        uuid.UUID      `json:"id"`
	Token     string         `json:"token"`
	Data      map[string]any `json:"data,omitempty"`
	ExpiresAt time.Time      `json:"expires_at"`
	CreatedAt time.Time      `json:"created_at"`
}

func newSession(token string, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		Token:     token,
		Data:      make(map[string]any),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
}

// IsExpired reports whether the session has passed its TTL.
func (s *Session) IsExpired() bool {
	return s != nil && time.Now().After(s.ExpiresAt)
}

// Set stores a value in session data.
func (s *Session) Set(key string, value any) {
	if s.Data == nil {
		s.Data = make(map[string]any)
	}
	s.Data[key] = value
}

// Unset removes a value from session data.
func (s *Session) Unset(key string) {
	delete(s.Data, key)
}

// GetInt64 retrieves an integer value, normalizing the numeric types a JSON
// round trip produces.
func (s *Session) GetInt64(key string) (int64, bool) {
	if s == nil || s.Data == nil {
		return 0, false
	}
	switch v := s.Data[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// GetString retrieves a string value from session data.
func (s *Session) GetString(key string) (string, bool) {
	if s == nil || s.Data == nil {
		return "", false
	}
	v, ok := s.Data[key].(string)
	return v, ok
}
