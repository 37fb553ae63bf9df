package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/codifyr/internal/common"
	"github.com/dmitrijs2005/codifyr/internal/dbx"
	"github.com/dmitrijs2005/codifyr/internal/logging"
	"github.com/dmitrijs2005/codifyr/internal/progression"
	"github.com/dmitrijs2005/codifyr/internal/server/models"
	"github.com/dmitrijs2005/codifyr/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/codifyr/internal/validation"
)

type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *ProfileService {
	return &ProfileService{db: db, repomanager: m, logger: logger.With("module", "profile_service")}
}

// Get returns common.ErrorNotFound while the profile is not provisioned.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := s.repomanager.Profiles(s.db).Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error loading profile: %w", err)
	}
	return p, nil
}

// AwardXP adds delta to the user's score. The score never drops below zero
// and the stored level follows progression.NextLevel, so it never drops.
func (s *ProfileService) AwardXP(ctx context.Context, userID string, delta int) (*models.Profile, error) {
	var p *models.Profile
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Profiles(tx)

		var err error
		p, err = repo.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		p.XPScore = progression.AddXP(p.XPScore, delta)
		p.Level = progression.NextLevel(p.Level, p.XPScore)
		return repo.UpdateXP(ctx, userID, p.XPScore, p.Level)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error awarding xp: %w", err)
	}

	s.logger.Info(ctx, "xp awarded", "user_id", userID, "delta", delta, "xp", p.XPScore, "level", p.Level)
	return p, nil
}

func (s *ProfileService) SetVerificationStatus(ctx context.Context, userID, status string) error {
	if !common.ValidVerificationStatus(status) {
		return fmt.Errorf("%w: unknown verification status %q", validation.ErrInvalidInput, status)
	}
	return s.repomanager.Profiles(s.db).SetVerificationStatus(ctx, userID, status)
}
