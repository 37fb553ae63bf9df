// Package actiontokens stores single-use tokens mailed for email
// confirmation and password reset.
package actiontokens

import (
	"context"

	"github.com/dmitrijs2005/codifyr/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, t *models.ActionToken) error
	// Consume marks the unused token with the given hash and purpose as used
	// and returns it. Unknown or already used tokens yield
	// common.ErrorNotFound. Expiry is left to the caller.
	Consume(ctx context.Context, tokenHash, purpose string) (*models.ActionToken, error)
	// DeleteByUser drops the user's outstanding tokens of one purpose.
	DeleteByUser(ctx context.Context, userID, purpose string) error
}
