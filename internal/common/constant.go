// Package common contains shared constants and sentinel errors used across
// Codifyr components.
package common

import "strings"

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// ErrorDomain is reported in error details attached to gRPC statuses.
const ErrorDomain = "codifyr.dev"

// Reason codes attached to provider errors. Clients classify failures by
// these values first and only fall back to message matching when absent.
const (
	ReasonEmailNotConfirmed  = "EMAIL_NOT_CONFIRMED"
	ReasonInvalidCredentials = "INVALID_CREDENTIALS"
	ReasonRateLimited        = "RATE_LIMITED"
	ReasonQuotaExceeded      = "QUOTA_EXCEEDED"
	ReasonAlreadyRegistered  = "ALREADY_REGISTERED"
	ReasonInvalidToken       = "INVALID_TOKEN"
	ReasonTokenExpired       = "TOKEN_EXPIRED"
	ReasonSessionExpired     = "SESSION_EXPIRED"
	ReasonInvalidArgument    = "INVALID_ARGUMENT"
	ReasonUnsupportedMedia   = "UNSUPPORTED_MEDIA"
)

// Verification statuses shared by profiles and verification requests.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ValidVerificationStatus reports whether s is one of the known statuses.
func ValidVerificationStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// MaxProofSize is the largest verification certificate accepted, in bytes.
const MaxProofSize = 10 << 20

// AcceptedMediaType reports whether a certificate of this content type may
// be uploaded: PDF documents and images.
func AcceptedMediaType(contentType string) bool {
	mt, _, _ := strings.Cut(contentType, ";")
	mt = strings.ToLower(strings.TrimSpace(mt))
	return mt == "application/pdf" || strings.HasPrefix(mt, "image/")
}
