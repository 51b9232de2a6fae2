package auth

import "errors"

// Untrusted-input rejections. Callers log these and drop the offending
// input; they never crash the process.
var (
	// ErrInvalidToken is returned when a token fails structural or
	// checksum validation.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrAuthFailure is returned when a signature matches none of the
	// accepted secrets.
	ErrAuthFailure = errors.New("auth: signature verification failed")

	// ErrNoSecrets is returned when verification is attempted with an
	// empty secret set.
	ErrNoSecrets = errors.New("auth: no secrets configured")
)
