package session

import "context"

// Store persists sessions by token.
type Store interface {
	// Create stores a new session.
	Create(ctx context.Context, s *Session) error

	// Get retrieves a session by token. Returns ErrNotFound for unknown
	// tokens and ErrExpired for sessions past their TTL.
	Get(ctx context.Context, token string) (*Session, error)

	// Update replaces an existing session's state.
	Update(ctx context.Context, s *Session) error

	// Delete removes a session by token. Deleting an unknown token is not
	// an error.
	Delete(ctx context.Context, token string) error
}
