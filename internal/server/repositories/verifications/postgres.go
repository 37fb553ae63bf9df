package verifications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PostgresRepository) Create(ctx context.Context, req *models.VerificationRequest) (*models.VerificationRequest, error) {
	query := `
		INSERT INTO verification_requests (user_id, file_reference, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	req.Status = common.StatusPending
	err := r.db.QueryRowContext(ctx, query, req.UserID, req.FileReference, req.Description, req.Status).
		Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return req, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.VerificationRequest, error) {
	query := `
		SELECT id, user_id, file_reference, description, status, reviewed_at, created_at
		FROM verification_requests
		WHERE id = $1
	`
	req, err := scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return req, nil
}

func (r *PostgresRepository) ListPending(ctx context.Context, limit int) ([]*models.VerificationRequest, error) {
	query := `
		SELECT id, user_id, file_reference, description, status, reviewed_at, created_at
		FROM verification_requests
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, common.StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.VerificationRequest
	for rows.Next() {
		req, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `
		UPDATE verification_requests SET status = $2, reviewed_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, status)
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

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.VerificationRequest, error) {
	req := &models.VerificationRequest{}
	var reviewedAt sql.NullTime
	if err := s.Scan(&req.ID, &req.UserID, &req.FileReference, &req.Description, &req.Status, &reviewedAt, &req.CreatedAt); err != nil {
		return nil, err
	}
	if reviewedAt.Valid {
		req.ReviewedAt = &reviewedAt.Time
	}
	return req, nil
}
