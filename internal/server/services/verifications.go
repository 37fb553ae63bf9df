package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/codifyr/internal/common"
	"github.com/dmitrijs2005/codifyr/internal/dbx"
	"github.com/dmitrijs2005/codifyr/internal/logging"
	"github.com/dmitrijs2005/codifyr/internal/server/models"
	"github.com/dmitrijs2005/codifyr/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/codifyr/internal/validation"
)

// MaxDescriptionLength bounds the free-text note attached to a request.
const MaxDescriptionLength = 1000

// Presigner issues time-limited URLs for the proof store.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string, size int64, ttl time.Duration) (string, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// UploadSlot is a presigned upload target for one certificate.
type UploadSlot struct {
	Key       string
	URL       string
	ExpiresAt time.Time
}

type VerificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	storage     Presigner
	urlTTL      time.Duration
	logger      logging.Logger
}

func NewVerificationService(db *sql.DB, m repomanager.RepositoryManager, storage Presigner, urlTTL time.Duration, logger logging.Logger) *VerificationService {
	return &VerificationService{
		db:          db,
		repomanager: m,
		storage:     storage,
		urlTTL:      urlTTL,
		logger:      logger.With("module", "verification_service"),
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", validation.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Submit records a pending review request. The file reference must point
// into the user's own storage prefix. A previously rejected profile goes
// back to pending.
func (s *VerificationService) Submit(ctx context.Context, userID, fileReference, description string) (*models.VerificationRequest, error) {
	if userID == "" {
		return nil, common.ErrorUnauthorized
	}
	if fileReference == "" || !strings.HasPrefix(fileReference, ProofKeyPrefix(userID)) {
		return nil, invalid("file reference must be an uploaded proof")
	}
	description = strings.TrimSpace(description)
	if len(description) > MaxDescriptionLength {
		return nil, invalid("description must be at most %d characters", MaxDescriptionLength)
	}

	var req *models.VerificationRequest
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		profiles := s.repomanager.Profiles(tx)
		p, err := profiles.Get(ctx, userID)
		if err != nil {
			return err
		}

		req, err = s.repomanager.Verifications(tx).Create(ctx, &models.VerificationRequest{
			UserID:        userID,
			FileReference: fileReference,
			Description:   description,
		})
		if err != nil {
			return err
		}

		if p.VerificationStatus == common.StatusRejected {
			return profiles.SetVerificationStatus(ctx, userID, common.StatusPending)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating verification request: %w", err)
	}

	s.logger.Info(ctx, "verification requested", "user_id", userID, "request_id", req.ID)
	return req, nil
}

// Review settles a request and copies the outcome onto the profile.
func (s *VerificationService) Review(ctx context.Context, id, status string) (*models.VerificationRequest, error) {
	if status != common.StatusApproved && status != common.StatusRejected {
		return nil, invalid("review status must be %s or %s", common.StatusApproved, common.StatusRejected)
	}

	var req *models.VerificationRequest
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Verifications(tx)

		var err error
		req, err = repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		req.Status = status
		return s.repomanager.Profiles(tx).SetVerificationStatus(ctx, req.UserID, status)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error reviewing verification request: %w", err)
	}

	s.logger.Info(ctx, "verification reviewed", "request_id", id, "user_id", req.UserID, "status", status)
	return req, nil
}

func (s *VerificationService) ListPending(ctx context.Context, limit int) ([]*models.VerificationRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repomanager.Verifications(s.db).ListPending(ctx, limit)
}

// RequestUploadSlot presigns a PUT for a new key under the user's prefix.
func (s *VerificationService) RequestUploadSlot(ctx context.Context, userID, contentType string, size int64) (*UploadSlot, error) {
	if userID == "" {
		return nil, common.ErrorUnauthorized
	}
	if !common.AcceptedMediaType(contentType) {
		return nil, common.ErrUnsupportedMedia
	}
	if size <= 0 || size > common.MaxProofSize {
		return nil, invalid("file size must be between 1 byte and %d bytes", common.MaxProofSize)
	}

	key := NewProofKey(userID)
	url, err := s.storage.PresignPut(ctx, key, contentType, size, s.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("error presigning upload: %w", err)
	}
	return &UploadSlot{Key: key, URL: url, ExpiresAt: time.Now().Add(s.urlTTL)}, nil
}

// ReviewURL presigns a download of the proof behind request id.
func (s *VerificationService) ReviewURL(ctx context.Context, id string) (string, error) {
	req, err := s.repomanager.Verifications(s.db).Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.storage.PresignGet(ctx, req.FileReference, s.urlTTL)
}
