package services

import (
	"errors"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/codifyr/internal/client/client"
	"github.com/dmitrijs2005/codifyr/internal/common"
	"github.com/dmitrijs2005/codifyr/internal/validation"
	"google.golang.org/grpc/codes"
)

// Kind classifies a failed action.
type Kind int

const (
	KindGeneric Kind = iota
	KindValidation
	KindEmailNotConfirmed
	KindInvalidCredentials
	KindRateLimited
	KindQuotaExceeded
	KindNoPendingEmail
	KindNoFileSelected
	KindSubmission
	KindNotAuthenticated
)

var kindNames = map[Kind]string{
	KindGeneric:            "generic",
	KindValidation:         "validation",
	KindEmailNotConfirmed:  "email_not_confirmed",
	KindInvalidCredentials: "invalid_credentials",
	KindRateLimited:        "rate_limited",
	KindQuotaExceeded:      "quota_exceeded",
	KindNoPendingEmail:     "no_pending_email",
	KindNoFileSelected:     "no_file_selected",
	KindSubmission:         "submission",
	KindNotAuthenticated:   "not_authenticated",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

const (
	msgEmailNotConfirmed  = "Please confirm your email address before signing in."
	msgInvalidCredentials = "Invalid email or password."
	msgRateLimited        = "Rate limit reached. Please try again in a moment."
	msgQuotaExceeded      = "Usage limit reached. Please try again later."
	msgNoPendingEmail     = "No email address is waiting for confirmation."
	msgGeneric            = "Something went wrong. Please try again."
)

// ActionError is what every failed action returns. Message is the text
// shown to the user.
type ActionError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *ActionError) Error() string { return e.Message }

func (e *ActionError) Unwrap() error { return e.Err }

var (
	ErrNoPendingEmail = &ActionError{Kind: KindNoPendingEmail, Message: msgNoPendingEmail}
	ErrNoFileSelected = &ActionError{Kind: KindNoFileSelected, Message: "Please select a certificate to upload"}
)

// Is matches two action errors of the same kind.
func (e *ActionError) Is(target error) bool {
	t, ok := target.(*ActionError)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of err, or KindGeneric when err is not an
// *ActionError.
func KindOf(err error) Kind {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindGeneric
}

var reasonKinds = map[string]Kind{
	common.ReasonEmailNotConfirmed:  KindEmailNotConfirmed,
	common.ReasonInvalidCredentials: KindInvalidCredentials,
	common.ReasonRateLimited:        KindRateLimited,
	common.ReasonQuotaExceeded:      KindQuotaExceeded,
}

// Message matching is the fallback for providers that do not send reason
// codes. It breaks if the provider rewords its messages.
var messageKinds = []struct {
	substr string
	kind   Kind
}{
	{common.ErrEmailNotConfirmed.Error(), KindEmailNotConfirmed},
	{common.ErrInvalidCredentials.Error(), KindInvalidCredentials},
}

// HTTP statuses count only as whole tokens, so "user 14021" is not a 402.
var statusKinds = map[string]Kind{
	"429": KindRateLimited,
	"402": KindQuotaExceeded,
}

func statusKind(msg string) (Kind, bool) {
	tokens := strings.FieldsFunc(msg, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		if k, ok := statusKinds[tok]; ok {
			return k, true
		}
	}
	return KindGeneric, false
}

var kindMessages = map[Kind]string{
	KindEmailNotConfirmed:  msgEmailNotConfirmed,
	KindInvalidCredentials: msgInvalidCredentials,
	KindRateLimited:        msgRateLimited,
	KindQuotaExceeded:      msgQuotaExceeded,
}

// Classify turns any error from validation or the provider into an
// *ActionError. Unrecognised provider errors keep their message verbatim.
func Classify(err error) *ActionError {
	if err == nil {
		return nil
	}

	var ae *ActionError
	if errors.As(err, &ae) {
		return ae
	}

	var fe *validation.FieldError
	if errors.As(err, &fe) {
		return &ActionError{Kind: KindValidation, Message: fe.Message, Err: err}
	}

	msg := err.Error()
	var pe *client.ProviderError
	if errors.As(err, &pe) {
		msg = pe.Message
		if k, ok := reasonKinds[pe.Reason]; ok {
			return &ActionError{Kind: k, Message: kindMessages[k], Err: err}
		}
	}

	for _, m := range messageKinds {
		if strings.Contains(msg, m.substr) {
			return &ActionError{Kind: m.kind, Message: kindMessages[m.kind], Err: err}
		}
	}
	if k, ok := statusKind(msg); ok {
		return &ActionError{Kind: k, Message: kindMessages[k], Err: err}
	}

	if pe != nil && pe.Code == codes.ResourceExhausted {
		return &ActionError{Kind: KindRateLimited, Message: msgRateLimited, Err: err}
	}

	if msg == "" {
		msg = msgGeneric
	}
	return &ActionError{Kind: KindGeneric, Message: msg, Err: err}
}
