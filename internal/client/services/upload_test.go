package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/codifyr/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func TestAcceptedMediaType(t *testing.T) {
	assert.True(t, AcceptedMediaType("application/pdf"))
	assert.True(t, AcceptedMediaType("image/png"))
	assert.True(t, AcceptedMediaType("image/jpeg; charset=binary"))
	assert.False(t, AcceptedMediaType("text/plain; charset=utf-8"))
	assert.False(t, AcceptedMediaType("application/zip"))
}

func TestStage_UploadsPDF(t *testing.T) {
	body := []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n")
	var gotBody []byte
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	fc := &fakeClient{UploadSlot: &models.UploadSlot{Key: "proofs/u1/k.pdf", URL: srv.URL + "/put"}}
	u := NewUploadIntake(fc, srv.Client(), &notes{}, nil)

	key, err := u.Stage(context.Background(), writeFile(t, "cert.pdf", body))
	require.NoError(t, err)
	assert.Equal(t, "proofs/u1/k.pdf", key)
	assert.Equal(t, "application/pdf", gotType)
	assert.Equal(t, body, gotBody)
	assert.Equal(t, call{"UploadSlot", []string{"application/pdf"}}, fc.calls[0])
}

func TestStage_AcceptsImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	fc := &fakeClient{UploadSlot: &models.UploadSlot{Key: "k", URL: srv.URL}}
	u := NewUploadIntake(fc, srv.Client(), nil, nil)

	_, err := u.Stage(context.Background(), writeFile(t, "cert.png", pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", fc.calls[0].args[0])
}

func TestStage_RejectsText(t *testing.T) {
	fc := &fakeClient{}
	nt := &notes{}
	u := NewUploadIntake(fc, nil, nt, nil)

	_, err := u.Stage(context.Background(), writeFile(t, "cert.pdf", []byte("just some text")))
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Empty(t, fc.calls)
	require.Len(t, nt.got, 1)
	assert.Equal(t, "Invalid file type", nt.got[0].Title)
	assert.Equal(t, "Please upload a PDF or image file", nt.got[0].Description)
}

func TestStage_RejectsEmptyAndMissing(t *testing.T) {
	fc := &fakeClient{}
	u := NewUploadIntake(fc, nil, nil, nil)

	_, err := u.Stage(context.Background(), writeFile(t, "empty.pdf", nil))
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = u.Stage(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Equal(t, KindSubmission, KindOf(err))

	_, err = u.Stage(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoFileSelected)
	assert.Empty(t, fc.calls)
}

func TestStage_RejectsOversized(t *testing.T) {
	p := filepath.Join(t.TempDir(), "big.pdf")
	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(MaxProofSize+1))
	require.NoError(t, f.Close())

	fc := &fakeClient{}
	u := NewUploadIntake(fc, nil, nil, nil)
	_, err = u.Stage(context.Background(), p)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Empty(t, fc.calls)
}

func TestStage_SlotError(t *testing.T) {
	fc := &fakeClient{UploadSlotErr: errors.New("429 too many requests")}
	nt := &notes{}
	u := NewUploadIntake(fc, nil, nt, nil)

	_, err := u.Stage(context.Background(), writeFile(t, "cert.png", pngHeader))
	assert.Equal(t, KindSubmission, KindOf(err))
	assert.Equal(t, msgRateLimited, nt.got[0].Description)
}

func TestStage_StorageRejectsUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "SignatureDoesNotMatch", http.StatusForbidden)
	}))
	defer srv.Close()

	fc := &fakeClient{UploadSlot: &models.UploadSlot{Key: "k", URL: srv.URL}}
	nt := &notes{}
	u := NewUploadIntake(fc, srv.Client(), nt, nil)

	_, err := u.Stage(context.Background(), writeFile(t, "cert.png", pngHeader))
	assert.Equal(t, KindSubmission, KindOf(err))
	assert.Equal(t, "Upload failed", nt.got[0].Title)
}
