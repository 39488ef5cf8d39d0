package auditlogs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/triagekeeper/internal/dbx"
	"github.com/dmitrijs2005/triagekeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.AuditEntry) error {
	var changes any
	if e.Changes != nil {
		b, err := json.Marshal(e.Changes)
		if err != nil {
			return fmt.Errorf("encode changes: %w", err)
		}
		changes = string(b)
	}

	query := `
		INSERT INTO audit_logs (user_id, table_name, action, record_id, changes, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		e.UserID, e.TableName, e.Action, e.RecordID, changes, e.Timestamp,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Recent(ctx context.Context, userID string, limit int) ([]*models.AuditEntry, error) {
	query := `
		SELECT id, user_id, table_name, action, record_id, changes, timestamp
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select audit log: %w", err)
	}
	defer rows.Close()

	var result []*models.AuditEntry
	for rows.Next() {
		var (
			e       models.AuditEntry
			changes []byte
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.TableName, &e.Action, &e.RecordID, &changes, &e.Timestamp); err != nil {
			return nil, err
		}
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &e.Changes); err != nil {
				return nil, fmt.Errorf("decode changes of entry %d: %w", e.ID, err)
			}
		}
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
