package messages

import (
	"context"
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

func (r *PostgresRepository) Create(ctx context.Context, m *models.StoredMessage) error {
	query := `
		INSERT INTO symptom_messages (id, session_id, role, content_encrypted, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query, m.ID, m.SessionID, m.Role, m.ContentEncrypted, m.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByUserID(ctx context.Context, userID string) ([]*models.StoredMessage, error) {
	query := `
		SELECT m.id, m.session_id, m.role, m.content_encrypted, m.created_at
		FROM symptom_messages m
		JOIN symptom_sessions s ON s.id = m.session_id
		WHERE s.user_id = $1
		ORDER BY m.created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer rows.Close()

	var result []*models.StoredMessage
	for rows.Next() {
		var m models.StoredMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.ContentEncrypted, &m.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	query := `
		DELETE FROM symptom_messages m
		USING symptom_sessions s
		WHERE m.session_id = s.id AND s.user_id = $1
	`
	return dbx.ExecAffected(ctx, r.db, query, userID)
}
