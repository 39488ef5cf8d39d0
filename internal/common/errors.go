package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")

	// ErrMissingCredential is returned when no bearer credential was presented at all.
	ErrMissingCredential = errors.New("missing credential")

	// ErrPartialDeletion signals that at least one erasure step failed. Steps that
	// succeeded before or alongside it are not rolled back.
	ErrPartialDeletion = errors.New("partial deletion")

	// Validation errors.
	ErrorValidation = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
