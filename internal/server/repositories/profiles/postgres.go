package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/triagekeeper/internal/common"
	"github.com/dmitrijs2005/triagekeeper/internal/dbx"
	"github.com/dmitrijs2005/triagekeeper/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, p *models.StoredProfile) error {
	query := `
		INSERT INTO profiles (id, user_id, full_name_encrypted, date_of_birth_encrypted, phone_encrypted, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id)
		DO UPDATE SET
			full_name_encrypted = COALESCE(EXCLUDED.full_name_encrypted, profiles.full_name_encrypted),
			date_of_birth_encrypted = COALESCE(EXCLUDED.date_of_birth_encrypted, profiles.date_of_birth_encrypted),
			phone_encrypted = COALESCE(EXCLUDED.phone_encrypted, profiles.phone_encrypted),
			avatar_url = COALESCE(EXCLUDED.avatar_url, profiles.avatar_url),
			updated_at = now()
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		p.ID, p.UserID, p.FullNameEncrypted, p.DateOfBirthEncrypted, p.PhoneEncrypted, p.AvatarURL,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*models.StoredProfile, error) {
	query := `
		SELECT id, user_id, full_name_encrypted, date_of_birth_encrypted, phone_encrypted, avatar_url, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`
	p := &models.StoredProfile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &p.FullNameEncrypted, &p.DateOfBirthEncrypted, &p.PhoneEncrypted,
		&p.AvatarURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) SetAvatar(ctx context.Context, id, userID, key string) error {
	query := `
		INSERT INTO profiles (id, user_id, avatar_url)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET avatar_url = EXCLUDED.avatar_url, updated_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, id, userID, key); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	return dbx.ExecAffected(ctx, r.db, `DELETE FROM profiles WHERE user_id = $1`, userID)
}
