package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/codifyr/internal/client/events"
)

// Verify uploads a certificate and records a verification request for the
// signed-in user.
func (a *App) Verify(ctx context.Context) error {
	path, err := getSimpleText(a.reader, "Path to certificate (PDF or image)", a.out)
	if err != nil {
		return err
	}
	description, err := getSimpleText(a.reader, "Description (optional)", a.out)
	if err != nil {
		return err
	}

	userID := ""
	if s := a.machine.Snapshot().Session; s != nil {
		userID = s.UserID
	}
	if userID == "" {
		// reported and redirected by the service
		_, err := a.verification.Submit(ctx, "", path, description)
		return err
	}

	key, err := a.uploads.Stage(ctx, path)
	if err != nil {
		return err
	}
	if _, err := a.verification.Submit(ctx, userID, key, description); err != nil {
		return err
	}

	if a.currentRoute() == events.RouteVerificationStep {
		a.Navigate(events.RouteAppHome)
	}
	return nil
}

// Profile prints the signed-in user's profile with level progress.
func (a *App) Profile(ctx context.Context) error {
	p, err := a.machine.ReloadProfile(ctx)
	if err != nil {
		printlnFn("Profile unavailable:", err.Error())
		return err
	}

	prog, badge := a.machine.Progress()
	if p == nil {
		printlnFn("Your profile is being set up.")
	} else {
		name := p.FullName
		if name == "" {
			name = "(no name)"
		}
		printlnFn(fmt.Sprintf("%s  [%s]", name, p.VerificationStatus))
		if p.Bio != "" {
			printlnFn(p.Bio)
		}
		if len(p.TechStack) > 0 {
			printlnFn("Stack:", strings.Join(p.TechStack, ", "))
		}
	}
	printlnFn(fmt.Sprintf("Level %d  %s  %s", prog.Level, badge.Title, progressBar(prog.Percent, 20)))
	printlnFn(prog.String())
	return nil
}

func progressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	filled = max(0, min(filled, width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}
