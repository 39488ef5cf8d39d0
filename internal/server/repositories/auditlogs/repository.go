// Package auditlogs declares the append-only audit log repository.
package auditlogs

import (
	"context"

	"github.com/dmitrijs2005/triagekeeper/internal/server/models"
)

// Repository is append-only: entries are never updated or deleted.
type Repository interface {
	// Create appends e and fills in its ID.
	Create(ctx context.Context, e *models.AuditEntry) error
	// Recent returns at most limit entries of userID, newest first.
	Recent(ctx context.Context, userID string, limit int) ([]*models.AuditEntry, error)
}
