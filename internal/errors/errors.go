package errors

import "errors"

// Common error types for the Wakelni client
var (
	// Store errors
	ErrKeyNotFound       = errors.New("key not found")
	ErrInvalidPassphrase = errors.New("invalid store passphrase")
	ErrCorruptStore      = errors.New("corrupt credential store")

	// Session errors
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrInvalidToken    = errors.New("invalid token")
	ErrMissingExpiry   = errors.New("token has no expiry")
	ErrMissingResponse = errors.New("missing field in response")

	// Request errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidNote    = errors.New("note must be between 1 and 5")
)
