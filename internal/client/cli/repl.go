package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. *App satisfies
// it; tests use a stub.
type execIface interface {
	isLoggedIn() bool
	SignUp(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	ResetPassword(ctx context.Context) error
	NewPassword(ctx context.Context) error
	Resend(ctx context.Context) error
	Confirm(ctx context.Context) error
	Verify(ctx context.Context) error
	Profile(ctx context.Context) error
}

// runREPL reads commands from scanner until EOF or "exit"/"quit".
//
//	Signed out:
//	  signup | register  create an account
//	  login              sign in with email and password
//	  confirm            redeem the link from the confirmation email
//	  resend             send the confirmation email again
//	  reset              request a password reset email
//	  newpassword        set a new password from a reset link
//
//	Signed in:
//	  profile            show level, badge and verification status
//	  verify             upload a certificate for review
//	  logout             sign out
//
// Handler errors are reported by the handlers themselves and ignored here.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("codifyr %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: profile, verify, logout, exit")
			} else {
				printlnFn("Available commands: signup, login, confirm, resend, reset, newpassword, exit")
			}

		case "signup", "register":
			_ = a.SignUp(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "reset":
			_ = a.ResetPassword(ctx)

		case "newpassword":
			_ = a.NewPassword(ctx)

		case "resend":
			_ = a.Resend(ctx)

		case "confirm":
			_ = a.Confirm(ctx)

		case "verify":
			_ = a.Verify(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
