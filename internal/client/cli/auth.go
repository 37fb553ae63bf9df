package cli

import (
	"context"

	"github.com/dmitrijs2005/codifyr/internal/common"
)

// getSimpleText and getPassword are indirections swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Action outcomes are reported through Notify by the services, so the
// commands below only return prompt errors and service errors for tests.

func (a *App) SignUp(ctx context.Context) error {
	fullName, err := getSimpleText(a.reader, "Enter full name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	return a.authService.SignUp(ctx, fullName, email, string(password))
}

func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	return a.authService.SignIn(ctx, email, string(password))
}

func (a *App) Logout(ctx context.Context) error {
	return a.authService.SignOut(ctx)
}

func (a *App) ResetPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	return a.authService.RequestPasswordReset(ctx, email)
}

func (a *App) NewPassword(ctx context.Context) error {
	link, err := getSimpleText(a.reader, "Paste the reset link or token", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out, "New password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	return a.authService.CompletePasswordReset(ctx, parseToken(link), string(password))
}

// Resend asks for an address only when no sign-up is awaiting confirmation.
func (a *App) Resend(ctx context.Context) error {
	email := ""
	if a.authService.PendingEmail(ctx) == "" {
		var err error
		email, err = getSimpleText(a.reader, "Enter email", a.out)
		if err != nil {
			return err
		}
	}
	return a.authService.ResendVerification(ctx, email)
}

func (a *App) Confirm(ctx context.Context) error {
	link, err := getSimpleText(a.reader, "Paste the confirmation link or token", a.out)
	if err != nil {
		return err
	}
	return a.authService.ConfirmSignup(ctx, parseToken(link))
}
