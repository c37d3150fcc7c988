// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across client layers.
var (
	// ErrNoSession indicates no token is present in the store. Callers
	// treat this as a redirect-to-login condition, not an error banner.
	ErrNoSession = errors.New("no session")

	// ErrMalformedToken indicates a token that is present but does not
	// decode into a claims payload.
	ErrMalformedToken = errors.New("malformed token")

	// ErrSessionExpired indicates a decoded token whose exp claim is in the past.
	ErrSessionExpired = errors.New("session expired")

	// ErrValidation indicates a local form check failed before any request was sent.
	ErrValidation = errors.New("validation")

	// ErrUnauthorized indicates the server rejected the credentials or bearer token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")
)
