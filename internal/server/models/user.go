// Package models holds the server-side persistence types.
package models

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	ConfirmedAt  *time.Time
	CreatedAt    time.Time
}

// Confirmed reports whether the email address was confirmed.
func (u *User) Confirmed() bool {
	return u.ConfirmedAt != nil
}
