package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/dmitrijs2005/codifyr/internal/client/client"
	"github.com/dmitrijs2005/codifyr/internal/client/events"
	"github.com/dmitrijs2005/codifyr/internal/common"
	"github.com/dmitrijs2005/codifyr/internal/filex"
	"github.com/dmitrijs2005/codifyr/internal/logging"
	"github.com/dmitrijs2005/codifyr/internal/netx"
)

// MaxProofSize is the largest certificate accepted for upload.
const MaxProofSize = common.MaxProofSize

const sniffLen = 512

// UploadIntake gates certificate files by type and size and uploads them
// to object storage. The returned storage key is the file reference a
// verification request points at.
type UploadIntake struct {
	client   client.Client
	http     netx.HTTPDoer
	notifier events.Notifier
	logger   logging.Logger
}

func NewUploadIntake(c client.Client, doer netx.HTTPDoer, notifier events.Notifier, logger logging.Logger) *UploadIntake {
	if logger == nil {
		logger = logging.Nop()
	}
	return &UploadIntake{
		client:   c,
		http:     doer,
		notifier: notifier,
		logger:   logger.With("module", "upload_intake"),
	}
}

// AcceptedMediaType reports whether a sniffed content type may be uploaded.
var AcceptedMediaType = common.AcceptedMediaType

func (u *UploadIntake) reject(title, msg string, kind Kind, err error) error {
	if u.notifier != nil {
		u.notifier.Notify(events.Notification{Title: title, Description: msg, Severity: events.SeverityDestructive})
	}
	return &ActionError{Kind: kind, Message: msg, Err: err}
}

// Stage uploads the file at path and returns its storage key.
func (u *UploadIntake) Stage(ctx context.Context, path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", u.reject("No file selected", ErrNoFileSelected.Message, KindNoFileSelected, nil)
	}

	size, err := filex.RegularFileSize(path)
	if err != nil {
		return "", u.reject("Upload failed", fmt.Sprintf("Cannot read %s", path), KindSubmission, err)
	}
	if size == 0 || size > MaxProofSize {
		return "", u.reject("Invalid file size", "Certificates must be non-empty and at most 10 MB", KindValidation, nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", u.reject("Upload failed", fmt.Sprintf("Cannot read %s", path), KindSubmission, err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", u.reject("Upload failed", fmt.Sprintf("Cannot read %s", path), KindSubmission, err)
	}
	contentType := http.DetectContentType(head[:n])
	if !AcceptedMediaType(contentType) {
		return "", u.reject("Invalid file type", "Please upload a PDF or image file", KindValidation, nil)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", u.reject("Upload failed", "Failed to submit verification", KindSubmission, err)
	}

	slot, err := u.client.RequestUploadSlot(ctx, contentType, size)
	if err != nil {
		return "", u.reject("Upload failed", Classify(err).Message, KindSubmission, err)
	}

	if err := netx.UploadToPresignedURL(ctx, u.http, slot.URL, contentType, f, size); err != nil {
		u.logger.Warn(ctx, "presigned upload failed", "key", slot.Key, "error", err)
		return "", u.reject("Upload failed", "Failed to submit verification", KindSubmission, err)
	}

	u.logger.Info(ctx, "certificate uploaded", "key", slot.Key, "content_type", contentType, "size", size)
	return slot.Key, nil
}
