package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/codifyr/internal/common"
	"github.com/dmitrijs2005/codifyr/internal/dbx"
	"github.com/dmitrijs2005/codifyr/internal/server/models"
)

const selectProfile = `
		SELECT user_id, full_name, bio, xp_score, level, verification_status,
		       tech_stack, avatar_url, updated_at
		FROM profiles
		WHERE user_id = $1
	`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Profile) error {
	stack, err := json.Marshal(nonNil(p.TechStack))
	if err != nil {
		return fmt.Errorf("encode tech stack: %w", err)
	}

	query := `
		INSERT INTO profiles (user_id, full_name, bio, tech_stack, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, p.UserID, p.FullName, p.Bio, string(stack), p.AvatarURL); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	return r.scanOne(ctx, selectProfile, userID)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, userID string) (*models.Profile, error) {
	return r.scanOne(ctx, selectProfile+" FOR UPDATE", userID)
}

func (r *PostgresRepository) scanOne(ctx context.Context, query, userID string) (*models.Profile, error) {
	p := &models.Profile{}
	var stack []byte

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.FullName, &p.Bio, &p.XPScore, &p.Level, &p.VerificationStatus,
		&stack, &p.AvatarURL, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if len(stack) > 0 {
		if err := json.Unmarshal(stack, &p.TechStack); err != nil {
			return nil, fmt.Errorf("decode tech stack: %w", err)
		}
	}
	return p, nil
}

func (r *PostgresRepository) UpdateXP(ctx context.Context, userID string, xpScore, level int) error {
	query := `
		UPDATE profiles SET xp_score = $2, level = $3, updated_at = now()
		WHERE user_id = $1
	`
	return r.execOne(ctx, query, userID, xpScore, level)
}

func (r *PostgresRepository) SetVerificationStatus(ctx context.Context, userID, status string) error {
	query := `
		UPDATE profiles SET verification_status = $2, updated_at = now()
		WHERE user_id = $1
	`
	return r.execOne(ctx, query, userID, status)
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
