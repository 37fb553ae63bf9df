package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/codifyr/internal/common"
	"github.com/dmitrijs2005/codifyr/internal/logging"
	"github.com/dmitrijs2005/codifyr/internal/server/models"
	"github.com/dmitrijs2005/codifyr/internal/validation"
)

type fakePresigner struct {
	key, contentType string
	size             int64
	ttl              time.Duration
	err              error
}

func (p *fakePresigner) PresignPut(_ context.Context, key, contentType string, size int64, ttl time.Duration) (string, error) {
	p.key, p.contentType, p.size, p.ttl = key, contentType, size, ttl
	return "http://put/" + key, p.err
}

func (p *fakePresigner) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	p.key, p.ttl = key, ttl
	return "http://get/" + key, p.err
}

func newVerificationFixture(t *testing.T) (*VerificationService, *memStore, *fakePresigner, func(commit bool)) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	store := newMemStore()
	store.profiles["u1"] = &models.Profile{UserID: "u1", Level: 1, VerificationStatus: common.StatusPending}
	ps := &fakePresigner{}
	expectTx := func(commit bool) {
		mock.ExpectBegin()
		if commit {
			mock.ExpectCommit()
		} else {
			mock.ExpectRollback()
		}
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("sql expectations: %v", err)
		}
	})
	return NewVerificationService(db, store, ps, 15*time.Minute, logging.Nop()), store, ps, expectTx
}

func TestSubmit_CreatesPendingRequest(t *testing.T) {
	s, store, _, expectTx := newVerificationFixture(t)
	expectTx(true)

	req, err := s.Submit(context.Background(), "u1", "proofs/u1/2026/01/01/x", "  AWS cert  ")
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if req.ID == "" || req.Status != common.StatusPending || req.Description != "AWS cert" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if len(store.verifications) != 1 {
		t.Fatalf("request not stored")
	}
}

func TestSubmit_Rejections(t *testing.T) {
	s, store, _, _ := newVerificationFixture(t)

	cases := []struct {
		name, user, ref, desc string
		want                  error
	}{
		{"signed out", "", "proofs/u1/x", "", common.ErrorUnauthorized},
		{"empty reference", "u1", "", "", validation.ErrInvalidInput},
		{"foreign reference", "u1", "proofs/u2/x", "", validation.ErrInvalidInput},
		{"placeholder reference", "u1", "pending_upload", "", validation.ErrInvalidInput},
		{"long description", "u1", "proofs/u1/x", strings.Repeat("a", MaxDescriptionLength+1), validation.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Submit(context.Background(), tc.user, tc.ref, tc.desc); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
	if len(store.verifications) != 0 {
		t.Fatalf("request stored despite rejection")
	}
}

func TestSubmit_ReopensRejectedProfile(t *testing.T) {
	s, store, _, expectTx := newVerificationFixture(t)
	store.profiles["u1"].VerificationStatus = common.StatusRejected
	expectTx(true)

	if _, err := s.Submit(context.Background(), "u1", "proofs/u1/x", ""); err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if got := store.profiles["u1"].VerificationStatus; got != common.StatusPending {
		t.Fatalf("profile status = %q, want pending", got)
	}
}

func TestReview(t *testing.T) {
	s, store, _, expectTx := newVerificationFixture(t)
	expectTx(true)
	req, err := s.Submit(context.Background(), "u1", "proofs/u1/x", "")
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}

	if _, err := s.Review(context.Background(), req.ID, common.StatusPending); !errors.Is(err, validation.ErrInvalidInput) {
		t.Fatalf("pending review: want ErrInvalidInput, got %v", err)
	}

	expectTx(true)
	out, err := s.Review(context.Background(), req.ID, common.StatusApproved)
	if err != nil {
		t.Fatalf("Review error: %v", err)
	}
	if out.Status != common.StatusApproved || store.verifications[req.ID].ReviewedAt == nil {
		t.Fatalf("request not settled: %+v", store.verifications[req.ID])
	}
	if store.profiles["u1"].VerificationStatus != common.StatusApproved {
		t.Fatalf("profile not approved")
	}

	pending, err := s.ListPending(context.Background(), 0)
	if err != nil || len(pending) != 0 {
		t.Fatalf("ListPending = %v, %v", pending, err)
	}

	expectTx(false)
	if _, err := s.Review(context.Background(), "missing", common.StatusRejected); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestRequestUploadSlot(t *testing.T) {
	s, _, ps, _ := newVerificationFixture(t)

	slot, err := s.RequestUploadSlot(context.Background(), "u1", "image/png", 1024)
	if err != nil {
		t.Fatalf("RequestUploadSlot error: %v", err)
	}
	if !strings.HasPrefix(slot.Key, ProofKeyPrefix("u1")) || slot.URL != "http://put/"+slot.Key {
		t.Fatalf("unexpected slot: %+v", slot)
	}
	if ps.contentType != "image/png" || ps.size != 1024 || ps.ttl != 15*time.Minute {
		t.Fatalf("presign called with %+v", ps)
	}
	if slot.ExpiresAt.Before(time.Now()) {
		t.Fatalf("slot already expired")
	}
}

func TestRequestUploadSlot_Rejections(t *testing.T) {
	s, _, ps, _ := newVerificationFixture(t)

	if _, err := s.RequestUploadSlot(context.Background(), "u1", "text/plain", 10); !errors.Is(err, common.ErrUnsupportedMedia) {
		t.Fatalf("want ErrUnsupportedMedia, got %v", err)
	}
	if _, err := s.RequestUploadSlot(context.Background(), "u1", "application/pdf", common.MaxProofSize+1); !errors.Is(err, validation.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
	if _, err := s.RequestUploadSlot(context.Background(), "", "application/pdf", 10); !errors.Is(err, common.ErrorUnauthorized) {
		t.Fatalf("want ErrorUnauthorized, got %v", err)
	}
	if ps.key != "" {
		t.Fatalf("presigned despite rejection")
	}

	ps.err = errBoom{}
	if _, err := s.RequestUploadSlot(context.Background(), "u1", "application/pdf", 10); !errors.As(err, &errBoom{}) {
		t.Fatalf("want presign error, got %v", err)
	}
}

func TestReviewURL(t *testing.T) {
	s, store, ps, _ := newVerificationFixture(t)
	store.verifications["v1"] = &models.VerificationRequest{ID: "v1", UserID: "u1", FileReference: "proofs/u1/x"}

	url, err := s.ReviewURL(context.Background(), "v1")
	if err != nil || url != "http://get/proofs/u1/x" || ps.key != "proofs/u1/x" {
		t.Fatalf("ReviewURL = %q, %v", url, err)
	}
	if _, err := s.ReviewURL(context.Background(), "nope"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}
