// Package sessions declares the repository contract for symptom sessions.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/triagekeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.StoredSession) error
	// ListByUserID returns the user's sessions, newest first.
	ListByUserID(ctx context.Context, userID string) ([]*models.StoredSession, error)
	// GetByID returns common.ErrorNotFound unless the session exists and is
	// owned by userID.
	GetByID(ctx context.Context, userID, id string) (*models.StoredSession, error)
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
}
