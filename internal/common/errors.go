// Package common defines shared constants and sentinel errors used across
// the repository, service and API layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// One store references a record the other store lacks.
	ErrorInconsistent = errors.New("inconsistent stores")

	// A backing store could not be reached or the query failed.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Malformed identifiers or values supplied by callers.
	ErrInvalidInput = errors.New("invalid input")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Directory credential errors.
	ErrPasswordInvalid = errors.New("password invalid")

	// Field cannot be changed in the current state.
	ErrReadOnly = errors.New("read only")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
