package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/codifyr/internal/client/client"
	"github.com/dmitrijs2005/codifyr/internal/client/events"
	"github.com/dmitrijs2005/codifyr/internal/client/models"
	"github.com/dmitrijs2005/codifyr/internal/common"
	"github.com/dmitrijs2005/codifyr/internal/logging"
)

// DefaultVerificationDescription is stored when the user gives none.
const DefaultVerificationDescription = "Verification certificate"

// VerificationService records proof-of-identity submissions.
type VerificationService interface {
	// Submit creates a pending verification request. Earlier requests of the
	// same user are left as they are.
	Submit(ctx context.Context, userID, fileReference, description string) (*models.VerificationRequest, error)
}

type verificationService struct {
	client    client.Client
	notifier  events.Notifier
	navigator events.Navigator
	logger    logging.Logger
}

func NewVerificationService(c client.Client, notifier events.Notifier, navigator events.Navigator, logger logging.Logger) VerificationService {
	if logger == nil {
		logger = logging.Nop()
	}
	return &verificationService{
		client:    c,
		notifier:  notifier,
		navigator: navigator,
		logger:    logger.With("module", "verification_service"),
	}
}

func (s *verificationService) notify(n events.Notification) {
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}

func (s *verificationService) Submit(ctx context.Context, userID, fileReference, description string) (*models.VerificationRequest, error) {
	if strings.TrimSpace(fileReference) == "" {
		s.notify(events.Notification{
			Title:       "No file selected",
			Description: ErrNoFileSelected.Message,
			Severity:    events.SeverityDestructive,
		})
		return nil, ErrNoFileSelected
	}

	if userID == "" {
		ae := &ActionError{Kind: KindNotAuthenticated, Message: "Please sign in to submit a verification request."}
		s.notify(events.Notification{Title: "Upload failed", Description: ae.Message, Severity: events.SeverityDestructive})
		if s.navigator != nil {
			s.navigator.Navigate(events.RouteLogin)
		}
		return nil, ae
	}

	description = strings.TrimSpace(description)
	if description == "" {
		description = DefaultVerificationDescription
	}

	req, err := s.client.InsertVerificationRequest(ctx, &models.VerificationRequest{
		UserID:        userID,
		FileReference: fileReference,
		Description:   description,
		Status:        common.StatusPending,
	})
	if err != nil {
		s.logger.Warn(ctx, "verification submit failed", "user_id", userID, "error", err)
		msg := err.Error()
		if msg == "" {
			msg = "Failed to submit verification"
		}
		s.notify(events.Notification{Title: "Upload failed", Description: msg, Severity: events.SeverityDestructive})
		return nil, &ActionError{Kind: KindSubmission, Message: msg, Err: err}
	}

	s.logger.Info(ctx, "verification submitted", "user_id", userID, "request_id", req.ID)
	s.notify(events.Notification{
		Title:       "Success!",
		Description: "Your verification certificate has been submitted for review.",
		Severity:    events.SeverityInfo,
	})
	return req, nil
}
