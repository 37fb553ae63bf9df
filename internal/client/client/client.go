package client

import (
	"context"

	"github.com/dmitrijs2005/codifyr/internal/client/models"
)

// AuthEvent names the reason for a session change.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// SessionChangeFunc receives session changes. session is nil after sign-out.
// Each listener gets its own copy.
type SessionChangeFunc func(event AuthEvent, session *models.Session)

// Subscription releases a session-change listener. Unsubscribe may be
// called more than once.
type Subscription interface {
	Unsubscribe()
}

// Client is the identity provider and data store as seen by the CLI.
type Client interface {
	Close() error
	Ping(ctx context.Context) error

	GetSession(ctx context.Context) (*models.Session, error)
	OnSessionChange(fn SessionChangeFunc) Subscription

	SignUp(ctx context.Context, email, password string, metadata map[string]string, redirectTo string) (userID string, err error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	ResendSignupConfirmation(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, token string) (*models.Session, error)
	UpdatePassword(ctx context.Context, token, password string) error
	SignOut(ctx context.Context) error

	// ReadProfile returns (nil, nil) when the profile does not exist yet.
	ReadProfile(ctx context.Context, userID string) (*models.Profile, error)
	InsertVerificationRequest(ctx context.Context, req *models.VerificationRequest) (*models.VerificationRequest, error)
	RequestUploadSlot(ctx context.Context, contentType string, size int64) (*models.UploadSlot, error)
}
