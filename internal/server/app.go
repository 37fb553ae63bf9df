// Package server wires the identity server: database and migrations,
// rate limiting, mail, the services and the gRPC endpoint.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/codifyr/internal/logging"
	"github.com/dmitrijs2005/codifyr/internal/server/config"
	"github.com/dmitrijs2005/codifyr/internal/server/mail"
	"github.com/dmitrijs2005/codifyr/internal/server/ratelimit"
	"github.com/dmitrijs2005/codifyr/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/codifyr/internal/server/services"
	"github.com/dmitrijs2005/codifyr/internal/telemetry"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/codifyr/internal/server/grpc"
)

// openDB is swapped in tests.
var openDB = repomanager.OpenDB

type App struct {
	config *config.Config
	logger logging.Logger

	db    *sql.DB
	redis *redis.Client

	userService         *services.UserService
	profileService      *services.ProfileService
	verificationService *services.VerificationService

	shutdownTelemetry telemetry.Shutdown
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, logging.ParseLevel(c.LogLevel))

	shutdown, err := telemetry.Setup(ctx, "codifyr-server", c.OTLPEndpoint)
	if err != nil {
		logger.Warn(ctx, "telemetry disabled", "error", err)
	}

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, shutdownTelemetry: shutdown}

	var limiter ratelimit.Limiter = ratelimit.NopLimiter{}
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		limiter = ratelimit.NewRedisLimiter(app.redis, "codifyr:")
	} else {
		logger.Warn(ctx, "no redis address configured, rate limiting disabled")
	}

	outbox := mail.NewOutbox(mail.NewLogMailer(logger), limiter, mail.Limits{
		PerAddressWindow: c.MailWindow,
		DailyQuota:       c.DailyMailQuota,
	}, c.AppBaseURL)

	app.userService = services.NewUserService(db, rm, c, limiter, outbox, logger)
	app.profileService = services.NewProfileService(db, rm, logger)
	app.verificationService = services.NewVerificationService(db, rm, services.NewS3Storage(c), c.UploadURLTTL, logger)

	return app, nil
}

func (app *App) Profiles() *services.ProfileService { return app.profileService }

func (app *App) Verifications() *services.VerificationService { return app.verificationService }

func (app *App) Logger() logging.Logger { return app.logger }

// Close releases the database, Redis and telemetry.
func (app *App) Close(ctx context.Context) error {
	var errs []error
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	if app.shutdownTelemetry != nil {
		errs = append(errs, app.shutdownTelemetry(ctx))
	}
	return errors.Join(errs...)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger,
		app.userService, app.profileService, app.verificationService, app.config.SecretKey)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or ctx is cancelled.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.Close(context.Background()); err != nil {
		app.logger.Error(ctx, "shutdown error", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
