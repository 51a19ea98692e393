package auth

import "errors"

var (
	// ErrTokenInvalid is returned when a token fails signature, expiry or
	// claim checks.
	ErrTokenInvalid = errors.New("auth: invalid token")

	// ErrNoSecret is returned when signing or verifying without a secret.
	ErrNoSecret = errors.New("auth: signing secret is empty")
)
