// Package services contains the actions the Codifyr client performs on
// behalf of the user. Every action validates its input, calls the identity
// provider and reports exactly one notification describing the outcome.
package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/codifyr/internal/client/client"
	"github.com/dmitrijs2005/codifyr/internal/client/events"
	"github.com/dmitrijs2005/codifyr/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/codifyr/internal/logging"
	"github.com/dmitrijs2005/codifyr/internal/validation"
)

// PendingEmailKey is the metadata key holding the address that signed up
// and has not confirmed yet.
const PendingEmailKey = "pending_email"

const (
	verificationPath = "/verification-upload"
	signInPath       = "/auth"
)

// Landing lets an action choose where the next sign-in navigates to.
type Landing interface {
	ExpectSignIn(route events.Route)
}

// AuthService defines the authentication actions of the CLI.
//
// Failed actions return an *ActionError. Session transitions are not made
// here; they follow from the provider's session-change notifications.
type AuthService interface {
	SignUp(ctx context.Context, fullName, email, password string) error
	SignIn(ctx context.Context, email, password string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResendVerification(ctx context.Context, email string) error
	ConfirmSignup(ctx context.Context, token string) error
	CompletePasswordReset(ctx context.Context, token, newPassword string) error
	SignOut(ctx context.Context) error
	PendingEmail(ctx context.Context) string
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client     client.Client
	store      metadata.Repository
	notifier   events.Notifier
	landing    Landing
	logger     logging.Logger
	appBaseURL string
}

func NewAuthService(c client.Client, store metadata.Repository, notifier events.Notifier, landing Landing, logger logging.Logger, appBaseURL string) AuthService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &authService{
		client:     c,
		store:      store,
		notifier:   notifier,
		landing:    landing,
		logger:     logger.With("module", "auth_service"),
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
	}
}

func (a *authService) notify(title, description string, sev events.Severity) {
	if a.notifier != nil {
		a.notifier.Notify(events.Notification{Title: title, Description: description, Severity: sev})
	}
}

// fail classifies err, reports it and returns it.
func (a *authService) fail(ctx context.Context, op string, err error) error {
	ae := Classify(err)
	a.logger.Info(ctx, "action failed", "op", op, "kind", ae.Kind.String(), "error", err)
	a.notify("Error", ae.Message, events.SeverityDestructive)
	return ae
}

func (a *authService) SignUp(ctx context.Context, fullName, email, password string) error {
	creds, err := validation.ValidateSignup(fullName, email, password)
	if err != nil {
		return a.fail(ctx, "sign_up", err)
	}

	_, err = a.client.SignUp(ctx, creds.Email, creds.Password,
		map[string]string{"full_name": creds.FullName},
		a.appBaseURL+verificationPath)
	if err != nil {
		return a.fail(ctx, "sign_up", err)
	}

	a.setPendingEmail(ctx, creds.Email)
	a.notify("Success!", "Account created successfully. Check your email to confirm your address.", events.SeverityInfo)
	return nil
}

func (a *authService) SignIn(ctx context.Context, email, password string) error {
	creds, err := validation.ValidateLogin(email, password)
	if err != nil {
		return a.fail(ctx, "sign_in", err)
	}

	if _, err := a.client.SignInWithPassword(ctx, creds.Email, creds.Password); err != nil {
		return a.fail(ctx, "sign_in", err)
	}

	if a.PendingEmail(ctx) == creds.Email {
		a.clearPendingEmail(ctx)
	}
	a.notify("Welcome back!", "Signed in successfully.", events.SeverityInfo)
	return nil
}

func (a *authService) RequestPasswordReset(ctx context.Context, email string) error {
	addr, err := validation.ValidateEmail(email)
	if err != nil {
		return a.fail(ctx, "reset_password", err)
	}

	if err := a.client.ResetPasswordForEmail(ctx, addr, a.appBaseURL+signInPath); err != nil {
		return a.fail(ctx, "reset_password", err)
	}

	a.notify("Check your email", "We sent you a link to reset your password.", events.SeverityInfo)
	return nil
}

// ResendVerification re-sends the confirmation link to email, or to the
// address that signed up in this installation when email is empty.
func (a *authService) ResendVerification(ctx context.Context, email string) error {
	addr := strings.TrimSpace(email)
	if addr == "" {
		addr = a.PendingEmail(ctx)
	}
	if addr == "" {
		return a.fail(ctx, "resend_verification", ErrNoPendingEmail)
	}

	addr, err := validation.ValidateEmail(addr)
	if err != nil {
		return a.fail(ctx, "resend_verification", err)
	}

	if err := a.client.ResendSignupConfirmation(ctx, addr); err != nil {
		return a.fail(ctx, "resend_verification", err)
	}

	a.notify("Email sent", "A new confirmation link is on its way to "+addr+".", events.SeverityInfo)
	return nil
}

// ConfirmSignup redeems the token from the confirmation email. The provider
// signs the user in, and the sign-in lands on the verification step.
func (a *authService) ConfirmSignup(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return a.fail(ctx, "confirm_signup", &validation.FieldError{
			Field: "token", Rule: validation.RuleRequired, Message: "Confirmation token is required",
		})
	}

	if a.landing != nil {
		a.landing.ExpectSignIn(events.RouteVerificationStep)
	}
	if _, err := a.client.VerifyEmail(ctx, token); err != nil {
		if a.landing != nil {
			a.landing.ExpectSignIn("")
		}
		return a.fail(ctx, "confirm_signup", err)
	}

	a.clearPendingEmail(ctx)
	a.notify("Email confirmed", "Your email address has been confirmed.", events.SeverityInfo)
	return nil
}

func (a *authService) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return a.fail(ctx, "update_password", &validation.FieldError{
			Field: "token", Rule: validation.RuleRequired, Message: "Reset token is required",
		})
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return a.fail(ctx, "update_password", err)
	}

	if err := a.client.UpdatePassword(ctx, token, newPassword); err != nil {
		return a.fail(ctx, "update_password", err)
	}

	a.notify("Password updated", "You can now sign in with your new password.", events.SeverityInfo)
	return nil
}

func (a *authService) SignOut(ctx context.Context) error {
	if err := a.client.SignOut(ctx); err != nil {
		return a.fail(ctx, "sign_out", err)
	}
	a.notify("Signed out", "See you soon.", events.SeverityInfo)
	return nil
}

// PendingEmail returns the stored unconfirmed address or "".
func (a *authService) PendingEmail(ctx context.Context) string {
	if a.store == nil {
		return ""
	}
	b, err := a.store.Get(ctx, PendingEmailKey)
	if err != nil {
		a.logger.Warn(ctx, "pending email lookup failed", "error", err)
		return ""
	}
	return string(b)
}

func (a *authService) setPendingEmail(ctx context.Context, email string) {
	if a.store == nil {
		return
	}
	if err := a.store.Set(ctx, PendingEmailKey, []byte(email)); err != nil {
		a.logger.Warn(ctx, "pending email not saved", "error", err)
	}
}

func (a *authService) clearPendingEmail(ctx context.Context) {
	if a.store == nil {
		return
	}
	if err := a.store.Delete(ctx, PendingEmailKey); err != nil {
		a.logger.Warn(ctx, "pending email not cleared", "error", err)
	}
}

// Ping proxies a liveness check to the underlying client.
func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
