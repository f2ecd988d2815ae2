// Package session provides cookie-token sessions carrying the authentication
// state the tenancy resolver consumes: the principal's organization and, when
// a superuser is impersonating another tenant, the organization they came
// from.
//
// The Hub pairs a pluggable Store (in-memory or Redis) with a cookie
// transport and implements tenancy.SessionState, including the Destroy
// capability the resolver uses to recover from cross-tenant and orphaned
// sessions.
//
//	hub := session.NewHub(session.NewMemoryStore(time.Minute), session.Config{
//		CookieName: "dealerkit_session",
//		TTL:        24 * time.Hour,
//	})
//
//	// after login:
//	err := hub.SetOrganization(w, r, org.ID)
//
//	// superuser entering another tenant's context:
//	err := hub.BeginImpersonation(w, r, masterOrgID, targetOrgID)
//
// Session data survives a JSON round trip through Redis, so numeric values
// are normalized by the typed getters rather than by the stores.
package session
