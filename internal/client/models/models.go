// Package models defines the client-side view of sessions, profiles and
// verification requests.
package models

import "time"

// Session is the authenticated identity reported by the provider.
type Session struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IsActive reports whether s identifies a signed-in user. A nil session is
// inactive.
func (s *Session) IsActive() bool {
	return s != nil && s.UserID != "" && s.AccessToken != ""
}

// Profile is the per-user progression and verification record.
type Profile struct {
	UserID             string
	FullName           string
	Bio                string
	XPScore            int
	Level              int
	VerificationStatus string
	TechStack          []string
	AvatarURL          string
}

// VerificationRequest is a submitted proof of identity.
type VerificationRequest struct {
	ID            string
	UserID        string
	FileReference string
	Description   string
	Status        string
	CreatedAt     time.Time
}

// UploadSlot is a presigned location a proof file can be PUT to.
type UploadSlot struct {
	Key       string
	URL       string
	ExpiresAt time.Time
}
