package client

import (
	"errors"
	"time"

	"google.golang.org/grpc/codes"
)

var (
	ErrUnavailable    = errors.New("server unavailable")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotInitialized = errors.New("client not initialized")
)

// ProviderError is a failed provider call. Reason is the server-supplied
// reason code and may be empty for older servers or transport failures.
type ProviderError struct {
	Code       codes.Code
	Reason     string
	Message    string
	RetryAfter time.Duration
}

func (e *ProviderError) Error() string {
	return e.Message
}

// Is lets callers match transport conditions with the package sentinels.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Code == codes.Unauthenticated || e.Code == codes.PermissionDenied
	case ErrUnavailable:
		return e.Code == codes.Unavailable || e.Code == codes.DeadlineExceeded
	}
	return false
}
