package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Identity errors. Messages mirror what hosted identity providers
	// report so older clients matching on text keep working.
	ErrEmailNotConfirmed  = errors.New("Email not confirmed")
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	ErrAlreadyRegistered  = errors.New("User already registered")

	// Limits.
	ErrRateLimited   = errors.New("429: too many requests")
	ErrQuotaExceeded = errors.New("402: usage quota exceeded")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Confirmation and reset links that are unknown, used or expired.
	ErrLinkExpired = errors.New("Email link is invalid or has expired")

	// Upload intake.
	ErrUnsupportedMedia = errors.New("unsupported media type")
)
