package models

import "time"

// RefreshToken is stored by the SHA-256 hash of the opaque token handed to
// the client; the token itself never reaches the database.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	Expires   time.Time
	CreatedAt time.Time
}
