package models

import "time"

// Purposes of single-use action tokens mailed to users.
const (
	PurposeConfirmEmail  = "confirm_email"
	PurposeResetPassword = "reset_password"
)

type ActionToken struct {
	ID         string
	UserID     string
	Purpose    string
	TokenHash  string
	RedirectTo string
	ExpiresAt  time.Time
	UsedAt     *time.Time
	CreatedAt  time.Time
}

// Expired reports whether the token is past its expiry at now.
func (t *ActionToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
