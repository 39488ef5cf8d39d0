// Package profiles declares the repository contract for encrypted user
// profiles.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/triagekeeper/internal/server/models"
)

// Repository stores at most one profile per user.
type Repository interface {
	// Upsert creates the user's profile or updates it. Nil fields leave the
	// stored value unchanged. ID, CreatedAt and UpdatedAt are filled in from
	// the stored row.
	Upsert(ctx context.Context, p *models.StoredProfile) error

	// GetByUserID returns common.ErrorNotFound when the user has no profile.
	GetByUserID(ctx context.Context, userID string) (*models.StoredProfile, error)

	// SetAvatar records the object key of the user's avatar, creating the
	// profile row if needed.
	SetAvatar(ctx context.Context, id, userID, key string) error

	// DeleteByUserID removes the user's profile and reports rows affected.
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
}
