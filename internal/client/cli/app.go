package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/codifyr/internal/client/client"
	"github.com/dmitrijs2005/codifyr/internal/client/config"
	"github.com/dmitrijs2005/codifyr/internal/client/events"
	"github.com/dmitrijs2005/codifyr/internal/client/models"
	"github.com/dmitrijs2005/codifyr/internal/client/services"
	"github.com/dmitrijs2005/codifyr/internal/client/session"
	"github.com/dmitrijs2005/codifyr/internal/logging"
	"github.com/dmitrijs2005/codifyr/internal/progression"
	"github.com/dmitrijs2005/codifyr/internal/telemetry"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// sessionView is the part of *session.Machine the CLI uses.
type sessionView interface {
	Start(ctx context.Context) error
	Snapshot() session.Snapshot
	Progress() (progression.Progress, progression.Badge)
	ReloadProfile(ctx context.Context) (*models.Profile, error)
	Teardown()
}

type stager interface {
	Stage(ctx context.Context, path string) (string, error)
}

type App struct {
	config       *config.Config
	logger       logging.Logger
	authService  services.AuthService
	verification services.VerificationService
	uploads      stager
	machine      sessionView
	reader       *bufio.Reader
	out          io.Writer
	closers      []func(context.Context) error

	mu    sync.Mutex
	Mode  Mode
	route events.Route
}

// NewApp wires the local database, the identity client, the session
// machine and the action services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewText(os.Stderr, logging.ParseLevel(c.LogLevel))

	shutdown, err := telemetry.Setup(ctx, "codifyr-cli", c.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	repos, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient, err := client.NewClientService(ctx, c.ServerEndpointAddr, repos.Metadata, logger, telemetry.DialOption())
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	a := &App{
		config: c,
		logger: logger,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	m := session.New(apiClient, a, session.WithLogger(logger))
	a.machine = m
	a.authService = services.NewAuthService(apiClient, repos.Metadata, a, m, logger, c.AppBaseURL)
	a.verification = services.NewVerificationService(apiClient, a, a, logger)
	a.uploads = services.NewUploadIntake(apiClient, &http.Client{Timeout: time.Minute}, a, logger)

	a.closers = []func(context.Context) error{
		func(context.Context) error { m.Teardown(); return nil },
		a.authService.Close,
		func(context.Context) error { return repos.Close() },
		shutdown,
	}
	return a, nil
}

// Notify renders an action outcome.
func (a *App) Notify(n events.Notification) {
	prefix := "✓"
	if n.Severity == events.SeverityDestructive {
		prefix = "✗"
	}
	printlnFn(fmt.Sprintf("%s %s %s", prefix, n.Title, n.Description))
}

// Navigate records the current screen and tells the user what to do next.
func (a *App) Navigate(r events.Route) {
	a.mu.Lock()
	a.route = r
	a.mu.Unlock()

	switch r {
	case events.RouteLogin:
		printlnFn("You are signed out. Type 'login' or 'signup'.")
	case events.RouteAppHome:
		printlnFn("You are signed in. Type 'profile' to see your progress.")
	case events.RouteVerificationStep:
		printlnFn("Email confirmed. Next, upload your certificate with 'verify'.")
	}
}

func (a *App) currentRoute() events.Route {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.route
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.mu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

func (a *App) mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Mode
}

func (a *App) isLoggedIn() bool {
	return a.machine.Snapshot().State == session.StateAuthenticated
}

func (a *App) Run(ctx context.Context) {
	defer a.close(ctx)
	a.Root(ctx)
}

func (a *App) close(ctx context.Context) {
	for _, c := range a.closers {
		if err := c(ctx); err != nil {
			a.logger.Warn(ctx, "shutdown", "error", err)
		}
	}
}

// StartOnlineStatusWatcher pings the server every interval and flips Mode
// accordingly until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := a.authService.Ping(pctx)
			cancel()

			if err != nil {
				a.setMode(ModeOffline)
			} else {
				a.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
