// Package refreshtokens declares the server-side repository for refresh
// tokens. Tokens are addressed by their SHA-256 hash.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/codifyr/internal/server/models"
)

type Repository interface {
	// Create stores tokenHash for userID with an expiry of now+validity.
	Create(ctx context.Context, userID string, tokenHash string, validity time.Duration) error

	// Find returns common.ErrorNotFound when the hash is unknown.
	Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// Delete reports common.ErrorNotFound when nothing was removed, so a
	// concurrent rotation of the same token is detected.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteByUser revokes every refresh token of userID.
	DeleteByUser(ctx context.Context, userID string) error
}
