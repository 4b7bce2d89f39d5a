// Package common defines shared constants and sentinel errors used across
// the investsync server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrValidation     = errors.New("validation error")

	// Auth errors. All three surface as "unauthorized" at the transport layer
	// but stay distinct for logging and error codes.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenMissingSubject = errors.New("token has no subject")
	ErrUserNotFound        = errors.New("user not found")
)
