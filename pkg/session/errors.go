package session

import "errors"

var (
	// ErrNotFound is returned when no session exists for a token.
	ErrNotFound = errors.New("session not found")

	// ErrExpired is returned when a session exists but has passed its TTL.
	ErrExpired = errors.New("session expired")

	// ErrNoSession is returned by mutators when the request carries no
	// session to mutate.
	ErrNoSession = errors.New("no session on request")

	// ErrNotImpersonating is returned when ending an impersonation that was
	// never started.
	ErrNotImpersonating = errors.New("no active impersonation")
)
