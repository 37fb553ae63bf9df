package actiontokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/codifyr/internal/common"
	"github.com/dmitrijs2005/codifyr/internal/dbx"
	"github.com/dmitrijs2005/codifyr/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, t *models.ActionToken) error {
	query := `
		INSERT INTO action_tokens (user_id, purpose, token_hash, redirect_to, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, t.UserID, t.Purpose, t.TokenHash, t.RedirectTo, t.ExpiresAt).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Consume(ctx context.Context, tokenHash, purpose string) (*models.ActionToken, error) {
	query := `
		UPDATE action_tokens SET used_at = now()
		WHERE token_hash = $1 AND purpose = $2 AND used_at IS NULL
		RETURNING id, user_id, redirect_to, expires_at, used_at, created_at
	`
	t := &models.ActionToken{TokenHash: tokenHash, Purpose: purpose}
	var usedAt time.Time

	err := r.db.QueryRowContext(ctx, query, tokenHash, purpose).
		Scan(&t.ID, &t.UserID, &t.RedirectTo, &t.ExpiresAt, &usedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	t.UsedAt = &usedAt
	return t, nil
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID, purpose string) error {
	query := `
		DELETE FROM action_tokens
		WHERE user_id = $1 AND purpose = $2 AND used_at IS NULL
	`
	if _, err := r.db.ExecContext(ctx, query, userID, purpose); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
