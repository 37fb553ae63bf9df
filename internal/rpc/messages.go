package rpc

import "time"

type Empty struct{}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type SignUpRequest struct {
	Email      string            `json:"email"`
	Password   string            `json:"password"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	RedirectTo string            `json:"redirect_to,omitempty"`
}

type SignUpResponse struct {
	UserID string `json:"user_id"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by every call that establishes a session.
type SessionResponse struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SignOutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type VerifyEmailRequest struct {
	Token string `json:"token"`
}

type ResendConfirmationRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email      string `json:"email"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

type UpdatePasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type Profile struct {
	UserID             string   `json:"user_id"`
	FullName           string   `json:"full_name"`
	Bio                string   `json:"bio,omitempty"`
	XPScore            int      `json:"xp_score"`
	Level              int      `json:"level"`
	VerificationStatus string   `json:"verification_status"`
	TechStack          []string `json:"tech_stack,omitempty"`
	AvatarURL          string   `json:"avatar_url,omitempty"`
}

type GetProfileRequest struct {
	UserID string `json:"user_id"`
}

// ProfileResponse reports Found=false when the profile is not provisioned
// yet. That is not an error.
type ProfileResponse struct {
	Found   bool     `json:"found"`
	Profile *Profile `json:"profile,omitempty"`
}

type VerificationRecord struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	FileReference string    `json:"file_reference"`
	Description   string    `json:"description"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

type InsertVerificationRequest struct {
	UserID        string `json:"user_id"`
	FileReference string `json:"file_reference"`
	Description   string `json:"description"`
}

type VerificationResponse struct {
	Request VerificationRecord `json:"request"`
}

type UploadSlotRequest struct {
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type UploadSlotResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
