// Package profiles stores the public profile rows that carry XP, level and
// verification status.
package profiles

import (
	"context"

	"github.com/dmitrijs2005/codifyr/internal/server/models"
)

type Repository interface {
	// Create inserts a profile with the default XP, level and status.
	// An existing profile for the same user is left untouched.
	Create(ctx context.Context, p *models.Profile) error
	Get(ctx context.Context, userID string) (*models.Profile, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, userID string) (*models.Profile, error)
	UpdateXP(ctx context.Context, userID string, xpScore, level int) error
	SetVerificationStatus(ctx context.Context, userID, status string) error
}
