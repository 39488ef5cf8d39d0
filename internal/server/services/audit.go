package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/triagekeeper/internal/dbx"
	"github.com/dmitrijs2005/triagekeeper/internal/logging"
	"github.com/dmitrijs2005/triagekeeper/internal/server/models"
	"github.com/dmitrijs2005/triagekeeper/internal/server/repositories/repomanager"
)

// MaxAuditEntries caps a single Recent query.
const MaxAuditEntries = 100

// AuditLog records who touched which patient data. Writes are best effort:
// a failed append is logged and never fails the operation being audited.
type AuditLog struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	now         Clock
}

func NewAuditLog(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *AuditLog {
	return &AuditLog{
		db:          db,
		repomanager: m,
		log:         log.With("module", "audit"),
		now:         utcNow,
	}
}

// Append writes e outside of any transaction.
func (a *AuditLog) Append(ctx context.Context, e models.AuditEntry) {
	a.AppendTx(ctx, a.db, e)
}

// AppendTx writes e through db, which may be a transaction. A zero Timestamp
// is set to the current time.
func (a *AuditLog) AppendTx(ctx context.Context, db dbx.DBTX, e models.AuditEntry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = a.now()
	}
	if err := a.repomanager.AuditLogs(db).Create(ctx, &e); err != nil {
		a.log.Error(ctx, "audit append failed",
			"user_id", e.UserID, "table", e.TableName, "action", string(e.Action), "error", err)
	}
}

// Recent returns the newest entries of userID. limit outside 1..MaxAuditEntries
// means MaxAuditEntries.
func (a *AuditLog) Recent(ctx context.Context, userID string, limit int) ([]*models.AuditEntry, error) {
	if limit <= 0 || limit > MaxAuditEntries {
		limit = MaxAuditEntries
	}
	return a.repomanager.AuditLogs(a.db).Recent(ctx, userID, limit)
}
