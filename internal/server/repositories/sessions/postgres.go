package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/triagekeeper/internal/common"
	"github.com/dmitrijs2005/triagekeeper/internal/dbx"
	"github.com/dmitrijs2005/triagekeeper/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, user_id, urgency_level, conditions_encrypted, specialist, recommendation_encrypted, created_at`

func (r *PostgresRepository) Create(ctx context.Context, s *models.StoredSession) error {
	query := `
		INSERT INTO symptom_sessions (id, user_id, urgency_level, conditions_encrypted, specialist, recommendation_encrypted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.UrgencyLevel, s.ConditionsEncrypted, s.Specialist, s.RecommendationEncrypted, s.CreatedAt,
	); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByUserID(ctx context.Context, userID string) ([]*models.StoredSession, error) {
	query := `SELECT ` + selectColumns + ` FROM symptom_sessions WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select sessions: %w", err)
	}
	defer rows.Close()

	var result []*models.StoredSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByID returns common.ErrorNotFound for an id that is not a UUID, since no
// row can carry one.
func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.StoredSession, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + selectColumns + ` FROM symptom_sessions WHERE id = $1 AND user_id = $2`

	s, err := scanSession(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	return dbx.ExecAffected(ctx, r.db, `DELETE FROM symptom_sessions WHERE user_id = $1`, userID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*models.StoredSession, error) {
	s := &models.StoredSession{}
	if err := row.Scan(
		&s.ID, &s.UserID, &s.UrgencyLevel, &s.ConditionsEncrypted, &s.Specialist,
		&s.RecommendationEncrypted, &s.CreatedAt,
	); err != nil {
		return nil, err
	}
	return s, nil
}
