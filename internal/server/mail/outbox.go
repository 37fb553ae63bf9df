// Package mail composes and sends the account emails: signup confirmation
// and password reset. Sending is limited per address and per day.
package mail

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/codifyr/internal/common"
	"github.com/dmitrijs2005/codifyr/internal/logging"
	"github.com/dmitrijs2005/codifyr/internal/server/ratelimit"
)

type Message struct {
	To      string
	Subject string
	Body    string
	Link    string
}

type Sender interface {
	Send(ctx context.Context, m Message) error
}

// LogMailer writes messages to the log instead of delivering them. It is
// the development outbox: the link can be copied from the server output.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("module", "mail")}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info(ctx, "mail sent", "to", msg.To, "subject", msg.Subject, "link", msg.Link)
	return nil
}

type Limits struct {
	// PerAddressWindow is the minimum gap between two mails to one address.
	PerAddressWindow time.Duration
	// DailyQuota caps mails sent per UTC day across all addresses. Zero
	// disables the cap.
	DailyQuota int64
}

type Outbox struct {
	sender  Sender
	limiter ratelimit.Limiter
	limits  Limits
	baseURL string
	now     func() time.Time
}

func NewOutbox(sender Sender, limiter ratelimit.Limiter, limits Limits, appBaseURL string) *Outbox {
	return &Outbox{
		sender:  sender,
		limiter: limiter,
		limits:  limits,
		baseURL: strings.TrimRight(appBaseURL, "/"),
		now:     time.Now,
	}
}

// Default landing paths used when the client sends no redirect target.
const (
	ConfirmPath = "/verification-upload"
	ResetPath   = "/auth"
)

// RedirectFor returns redirectTo when it points into the app, else the
// default path under the app base URL.
func (o *Outbox) RedirectFor(redirectTo, defaultPath string) string {
	if redirectTo != "" && (redirectTo == o.baseURL || strings.HasPrefix(redirectTo, o.baseURL+"/")) {
		return redirectTo
	}
	return o.baseURL + defaultPath
}

// CheckLimits spends one unit of the per-address window and the daily
// quota. Callers invoke it before creating the token they are about to
// mail.
func (o *Outbox) CheckLimits(ctx context.Context, to string) error {
	if o.limits.PerAddressWindow > 0 {
		ok, retry, err := o.limiter.Take(ctx, "mail:"+strings.ToLower(to), 1, o.limits.PerAddressWindow)
		if err != nil {
			return err
		}
		if !ok {
			return &ratelimit.LimitError{Err: common.ErrRateLimited, RetryAfter: retry}
		}
	}
	if o.limits.DailyQuota > 0 {
		day := o.now().UTC().Format(time.DateOnly)
		ok, _, err := o.limiter.Take(ctx, "mailquota:"+day, o.limits.DailyQuota, 24*time.Hour)
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrQuotaExceeded
		}
	}
	return nil
}

func (o *Outbox) SendConfirmation(ctx context.Context, to, redirectTo, token string) error {
	link, err := withToken(redirectTo, token)
	if err != nil {
		return err
	}
	return o.sender.Send(ctx, Message{
		To:      to,
		Subject: "Confirm your email",
		Body:    "Follow the link to confirm your Codifyr account:\n\n" + link,
		Link:    link,
	})
}

func (o *Outbox) SendPasswordReset(ctx context.Context, to, redirectTo, token string) error {
	link, err := withToken(redirectTo, token)
	if err != nil {
		return err
	}
	return o.sender.Send(ctx, Message{
		To:      to,
		Subject: "Reset your password",
		Body:    "Follow the link to choose a new password:\n\n" + link,
		Link:    link,
	})
}

func withToken(redirectTo, token string) (string, error) {
	u, err := url.Parse(redirectTo)
	if err != nil {
		return "", fmt.Errorf("bad redirect %q: %w", redirectTo, err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
