// Package verifications stores certificate review requests.
package verifications

import (
	"context"

	"github.com/dmitrijs2005/codifyr/internal/server/models"
)

type Repository interface {
	// Create inserts r with status pending and fills ID, Status and CreatedAt.
	Create(ctx context.Context, r *models.VerificationRequest) (*models.VerificationRequest, error)
	Get(ctx context.Context, id string) (*models.VerificationRequest, error)
	// ListPending returns up to limit pending requests, oldest first.
	ListPending(ctx context.Context, limit int) ([]*models.VerificationRequest, error)
	UpdateStatus(ctx context.Context, id, status string) error
}
