// Package services contains the server's business logic. Services return
// the sentinels from internal/common; the gRPC layer maps them to status
// codes and reason codes.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/codifyr/internal/common"
	"github.com/dmitrijs2005/codifyr/internal/cryptox"
	"github.com/dmitrijs2005/codifyr/internal/dbx"
	"github.com/dmitrijs2005/codifyr/internal/logging"
	"github.com/dmitrijs2005/codifyr/internal/server/auth"
	"github.com/dmitrijs2005/codifyr/internal/server/config"
	"github.com/dmitrijs2005/codifyr/internal/server/mail"
	"github.com/dmitrijs2005/codifyr/internal/server/models"
	"github.com/dmitrijs2005/codifyr/internal/server/ratelimit"
	"github.com/dmitrijs2005/codifyr/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/codifyr/internal/validation"
)

// FullNameKey is the signup metadata entry holding the display name.
const FullNameKey = "full_name"

// TokenPair is an issued session.
type TokenPair struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Mailer is the part of mail.Outbox the user service needs.
type Mailer interface {
	RedirectFor(redirectTo, defaultPath string) string
	CheckLimits(ctx context.Context, to string) error
	SendConfirmation(ctx context.Context, to, redirectTo, token string) error
	SendPasswordReset(ctx context.Context, to, redirectTo, token string) error
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	limiter     ratelimit.Limiter
	mailer      Mailer
	logger      logging.Logger

	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	confirmationTokenTTL         time.Duration
	resetTokenTTL                time.Duration
	loginAttempts                int64
	loginWindow                  time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config,
	limiter ratelimit.Limiter, mailer Mailer, logger logging.Logger) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		limiter:                      limiter,
		mailer:                       mailer,
		logger:                       logger.With("module", "user_service"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		confirmationTokenTTL:         cfg.ConfirmationTokenTTL,
		resetTokenTTL:                cfg.ResetTokenTTL,
		loginAttempts:                cfg.LoginAttempts,
		loginWindow:                  cfg.LoginWindow,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an unconfirmed account with its profile and mails a
// confirmation link. Signing up again with an unconfirmed address only
// re-sends the link; a confirmed address yields ErrAlreadyRegistered.
func (s *UserService) SignUp(ctx context.Context, email, password string, metadata map[string]string, redirectTo string) (string, error) {
	creds, err := validation.ValidateSignup(metadata[FullNameKey], email, password)
	if err != nil {
		return "", err
	}

	existing, err := s.repomanager.Users(s.db).GetByEmail(ctx, creds.Email)
	switch {
	case err == nil && existing.Confirmed():
		return "", common.ErrAlreadyRegistered
	case err == nil:
		redirect := s.mailer.RedirectFor(redirectTo, mail.ConfirmPath)
		if err := s.sendConfirmation(ctx, existing, redirect); err != nil {
			return "", err
		}
		return existing.ID, nil
	case !errors.Is(err, common.ErrorNotFound):
		return "", fmt.Errorf("error searching user: %w", err)
	}

	if err := s.mailer.CheckLimits(ctx, creds.Email); err != nil {
		return "", err
	}

	redirect := s.mailer.RedirectFor(redirectTo, mail.ConfirmPath)
	var (
		user  *models.User
		token string
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.repomanager.Users(tx).Create(ctx, &models.User{
			Email:        creds.Email,
			PasswordHash: cryptox.HashPassword(creds.Password),
		})
		if err != nil {
			return err
		}
		if err := s.repomanager.Profiles(tx).Create(ctx, &models.Profile{UserID: user.ID, FullName: creds.FullName}); err != nil {
			return err
		}
		token, err = s.issueActionToken(ctx, tx, user.ID, models.PurposeConfirmEmail, redirect, s.confirmationTokenTTL)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return "", common.ErrAlreadyRegistered
		}
		return "", fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)

	if err := s.mailer.SendConfirmation(ctx, user.Email, redirect, token); err != nil {
		return "", fmt.Errorf("error sending confirmation email: %w", err)
	}
	return user.ID, nil
}

// SignIn checks the password first and confirmation second, so an
// unconfirmed address is only revealed to someone who knows the password.
func (s *UserService) SignIn(ctx context.Context, email, password string) (*TokenPair, error) {
	email = normalizeEmail(email)
	key := "login:" + email

	ok, retry, err := s.limiter.Take(ctx, key, s.loginAttempts, s.loginWindow)
	switch {
	case err != nil:
		s.logger.Warn(ctx, "login limiter unavailable", "error", err)
	case !ok:
		return nil, &ratelimit.LimitError{Err: common.ErrRateLimited, RetryAfter: retry}
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.ErrorInternal
	}

	match, err := cryptox.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		s.logger.Error(ctx, "stored password hash unreadable", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}
	if !match {
		return nil, common.ErrInvalidCredentials
	}
	if !user.Confirmed() {
		return nil, common.ErrEmailNotConfirmed
	}

	if err := s.limiter.Reset(ctx, key); err != nil {
		s.logger.Warn(ctx, "login limiter reset failed", "error", err)
	}
	return s.generateTokenPair(ctx, s.db, user)
}

// RefreshToken rotates a refresh token: the presented one is deleted and a
// new pair is issued in the same transaction. Presenting a token twice
// fails the second time.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	hash := cryptox.HashToken(refreshToken)

	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, hash)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		_ = s.repomanager.RefreshTokens(s.db).Delete(ctx, hash)
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, hash); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return err
		}
		user, err := s.repomanager.Users(tx).GetByID(ctx, token.UserID)
		if err != nil {
			return err
		}
		pair, err = s.generateTokenPair(ctx, tx, user)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			return nil, err
		}
		return nil, fmt.Errorf("error rotating refresh token: %w", err)
	}
	return pair, nil
}

// SignOut revokes the refresh token. Unknown tokens are ignored.
func (s *UserService) SignOut(ctx context.Context, refreshToken string) error {
	err := s.repomanager.RefreshTokens(s.db).Delete(ctx, cryptox.HashToken(refreshToken))
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

// VerifyEmail redeems a confirmation link, confirms the address and signs
// the user in.
func (s *UserService) VerifyEmail(ctx context.Context, token string) (*TokenPair, error) {
	var pair *TokenPair
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		t, err := s.consumeActionToken(ctx, tx, token, models.PurposeConfirmEmail)
		if err != nil {
			return err
		}
		users := s.repomanager.Users(tx)
		if err := users.MarkConfirmed(ctx, t.UserID); err != nil {
			return err
		}
		user, err := users.GetByID(ctx, t.UserID)
		if err != nil {
			return err
		}
		pair, err = s.generateTokenPair(ctx, tx, user)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrLinkExpired) {
			return nil, err
		}
		return nil, fmt.Errorf("error confirming email: %w", err)
	}
	return pair, nil
}

// ResendConfirmation mails a fresh confirmation link. Unknown and already
// confirmed addresses succeed without sending anything or spending quota.
func (s *UserService) ResendConfirmation(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	// sendConfirmation charges the mail limits.
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return fmt.Errorf("error searching user: %w", err)
	}
	if user.Confirmed() {
		return nil
	}
	return s.sendConfirmation(ctx, user, s.mailer.RedirectFor("", mail.ConfirmPath))
}

// RequestPasswordReset mails a reset link. Unknown addresses succeed
// without sending anything.
func (s *UserService) RequestPasswordReset(ctx context.Context, email, redirectTo string) error {
	email = normalizeEmail(email)
	if err := s.mailer.CheckLimits(ctx, email); err != nil {
		return err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return fmt.Errorf("error searching user: %w", err)
	}

	redirect := s.mailer.RedirectFor(redirectTo, mail.ResetPath)
	var token string
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		token, err = s.issueActionToken(ctx, tx, user.ID, models.PurposeResetPassword, redirect, s.resetTokenTTL)
		return err
	})
	if err != nil {
		return fmt.Errorf("error issuing reset token: %w", err)
	}
	return s.mailer.SendPasswordReset(ctx, user.Email, redirect, token)
}

// UpdatePassword redeems a reset link. The address counts as confirmed
// afterwards and every refresh token of the user is revoked.
func (s *UserService) UpdatePassword(ctx context.Context, token, password string) error {
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		t, err := s.consumeActionToken(ctx, tx, token, models.PurposeResetPassword)
		if err != nil {
			return err
		}
		users := s.repomanager.Users(tx)
		if err := users.UpdatePassword(ctx, t.UserID, cryptox.HashPassword(password)); err != nil {
			return err
		}
		if err := users.MarkConfirmed(ctx, t.UserID); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).DeleteByUser(ctx, t.UserID)
	})
	if err != nil {
		if errors.Is(err, common.ErrLinkExpired) {
			return err
		}
		return fmt.Errorf("error updating password: %w", err)
	}
	return nil
}

func (s *UserService) sendConfirmation(ctx context.Context, user *models.User, redirect string) error {
	if err := s.mailer.CheckLimits(ctx, user.Email); err != nil {
		return err
	}

	var token string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		token, err = s.issueActionToken(ctx, tx, user.ID, models.PurposeConfirmEmail, redirect, s.confirmationTokenTTL)
		return err
	})
	if err != nil {
		return fmt.Errorf("error issuing confirmation token: %w", err)
	}
	return s.mailer.SendConfirmation(ctx, user.Email, redirect, token)
}

// issueActionToken replaces the user's outstanding tokens of purpose with
// a new one and returns its plaintext.
func (s *UserService) issueActionToken(ctx context.Context, tx dbx.DBTX, userID, purpose, redirect string, ttl time.Duration) (string, error) {
	token, err := common.MakeRandHexString(32)
	if err != nil {
		return "", err
	}

	repo := s.repomanager.ActionTokens(tx)
	if err := repo.DeleteByUser(ctx, userID, purpose); err != nil {
		return "", err
	}
	err = repo.Create(ctx, &models.ActionToken{
		UserID:     userID,
		Purpose:    purpose,
		TokenHash:  cryptox.HashToken(token),
		RedirectTo: redirect,
		ExpiresAt:  time.Now().Add(ttl),
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *UserService) consumeActionToken(ctx context.Context, tx dbx.DBTX, token, purpose string) (*models.ActionToken, error) {
	if token == "" {
		return nil, common.ErrLinkExpired
	}
	t, err := s.repomanager.ActionTokens(tx).Consume(ctx, cryptox.HashToken(token), purpose)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrLinkExpired
		}
		return nil, err
	}
	if t.Expired(time.Now()) {
		return nil, common.ErrLinkExpired
	}
	return t, nil
}

func (s *UserService) generateTokenPair(ctx context.Context, db dbx.DBTX, user *models.User) (*TokenPair, error) {
	accessToken, expiresAt, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refreshToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}

	err = s.repomanager.RefreshTokens(db).Create(ctx, user.ID, cryptox.HashToken(refreshToken), s.refreshTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{
		UserID:       user.ID,
		Email:        user.Email,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}
