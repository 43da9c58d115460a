package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrSessionMissing occurs when a mutating request carries no session token.
	ErrSessionMissing = errors.New("session token missing")
	// ErrSessionExpired occurs when the session token is unknown or expired.
	ErrSessionExpired = errors.New("session expired")
)
