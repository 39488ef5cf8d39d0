// Package auth resolves bearer tokens to the identity of the caller.
package auth

import (
	"context"

	"github.com/google/uuid"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Email  string
}

// Verifier checks a bearer token (without the "Bearer " prefix). Failures
// wrap common.ErrInvalidToken or common.ErrTokenExpired.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// validSubject reports whether id can name a user. User ids are UUIDs.
func validSubject(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
