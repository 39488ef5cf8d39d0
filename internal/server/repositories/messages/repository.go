// Package messages declares the repository contract for chat messages. A
// message is owned through its session, so every user-scoped query joins
// symptom_sessions.
package messages

import (
	"context"

	"github.com/dmitrijs2005/triagekeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, m *models.StoredMessage) error
	// ListByUserID returns every message of the user's sessions, oldest first.
	ListByUserID(ctx context.Context, userID string) ([]*models.StoredMessage, error)
	// DeleteByUserID removes every message belonging to a session owned by userID.
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
}
