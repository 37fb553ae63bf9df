// Package admin implements the operator commands run by cmd/admin:
// reviewing verification requests and awarding XP.
package admin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/codifyr/internal/flagx"
	"github.com/dmitrijs2005/codifyr/internal/server/models"
)

var ownFlags = []string{"-action", "-id", "-status", "-user", "-xp", "-limit"}

var ErrUsage = errors.New("usage: admin -action pending|review|award|proof [-id ID] [-status approved|rejected] [-user ID] [-xp=N] [-limit N]")

type Verifications interface {
	ListPending(ctx context.Context, limit int) ([]*models.VerificationRequest, error)
	Review(ctx context.Context, id, status string) (*models.VerificationRequest, error)
	ReviewURL(ctx context.Context, id string) (string, error)
}

type Profiles interface {
	AwardXP(ctx context.Context, userID string, delta int) (*models.Profile, error)
}

type options struct {
	action, id, status, user string
	xp, limit                int
}

func parse(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("codifyr-admin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.action, "action", "", "pending, review, award or proof")
	fs.StringVar(&o.id, "id", "", "verification request id")
	fs.StringVar(&o.status, "status", "", "review outcome")
	fs.StringVar(&o.user, "user", "", "user id")
	fs.IntVar(&o.xp, "xp", 0, "XP delta, negative values as -xp=-N")
	fs.IntVar(&o.limit, "limit", 50, "number of pending requests to list")
	if err := fs.Parse(flagx.FilterArgs(args, ownFlags)); err != nil {
		return o, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return o, nil
}

// Run executes the action selected in args and prints the result to out.
func Run(ctx context.Context, args []string, v Verifications, p Profiles, out io.Writer) error {
	o, err := parse(args)
	if err != nil {
		return err
	}

	switch o.action {
	case "pending":
		reqs, err := v.ListPending(ctx, o.limit)
		if err != nil {
			return err
		}
		for _, r := range reqs {
			fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.UserID, r.CreatedAt.Format("2006-01-02 15:04"), r.FileReference, r.Description)
		}
		fmt.Fprintf(out, "%d pending\n", len(reqs))

	case "review":
		if o.id == "" || o.status == "" {
			return ErrUsage
		}
		r, err := v.Review(ctx, o.id, o.status)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "request %s of user %s is now %s\n", r.ID, r.UserID, r.Status)

	case "award":
		if o.user == "" || o.xp == 0 {
			return ErrUsage
		}
		pr, err := p.AwardXP(ctx, o.user, o.xp)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "user %s: %d XP, level %d\n", pr.UserID, pr.XPScore, pr.Level)

	case "proof":
		if o.id == "" {
			return ErrUsage
		}
		url, err := v.ReviewURL(ctx, o.id)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, url)

	default:
		return ErrUsage
	}
	return nil
}
