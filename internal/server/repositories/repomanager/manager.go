package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/triagekeeper/internal/dbx"
	"github.com/dmitrijs2005/triagekeeper/internal/server/repositories/auditlogs"
	"github.com/dmitrijs2005/triagekeeper/internal/server/repositories/messages"
	"github.com/dmitrijs2005/triagekeeper/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/triagekeeper/internal/server/repositories/sessions"
)

// RepositoryManager vends repositories bound to a caller-chosen DBTX so the
// same code runs inside and outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Profiles(db dbx.DBTX) profiles.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Messages(db dbx.DBTX) messages.Repository
	AuditLogs(db dbx.DBTX) auditlogs.Repository
}
