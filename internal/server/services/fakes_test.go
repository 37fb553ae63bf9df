package services

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/codifyr/internal/common"
	"github.com/dmitrijs2005/codifyr/internal/dbx"
	"github.com/dmitrijs2005/codifyr/internal/server/models"
	"github.com/dmitrijs2005/codifyr/internal/server/repositories/actiontokens"
	"github.com/dmitrijs2005/codifyr/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/codifyr/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/codifyr/internal/server/repositories/users"
	"github.com/dmitrijs2005/codifyr/internal/server/repositories/verifications"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// memStore backs every fake repository. Transactions are not modelled:
// writes made before a rollback stay visible.
type memStore struct {
	seq int

	users         map[string]*models.User
	profiles      map[string]*models.Profile
	verifications map[string]*models.VerificationRequest
	refresh       map[string]*models.RefreshToken
	actions       map[string]*models.ActionToken

	failWith error
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[string]*models.User{},
		profiles:      map[string]*models.Profile{},
		verifications: map[string]*models.VerificationRequest{},
		refresh:       map[string]*models.RefreshToken{},
		actions:       map[string]*models.ActionToken{},
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s%d", prefix, s.seq)
}

func (s *memStore) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (s *memStore) Users(dbx.DBTX) users.Repository                 { return memUsers{s} }
func (s *memStore) Profiles(dbx.DBTX) profiles.Repository           { return memProfiles{s} }
func (s *memStore) Verifications(dbx.DBTX) verifications.Repository { return memVerifications{s} }
func (s *memStore) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return memRefresh{s} }
func (s *memStore) ActionTokens(dbx.DBTX) actiontokens.Repository   { return memActions{s} }

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	if r.s.failWith != nil {
		return nil, r.s.failWith
	}
	for _, e := range r.s.users {
		if e.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	c.ID = r.s.nextID("u")
	c.CreatedAt = time.Now()
	r.s.users[c.ID] = &c
	return &c, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (r memUsers) MarkConfirmed(_ context.Context, id string) error {
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	if u.ConfirmedAt == nil {
		now := time.Now()
		u.ConfirmedAt = &now
	}
	return nil
}

func (r memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

type memProfiles struct{ s *memStore }

func (r memProfiles) Create(_ context.Context, p *models.Profile) error {
	if _, ok := r.s.profiles[p.UserID]; ok {
		return nil
	}
	c := *p
	c.Level = 1
	c.VerificationStatus = common.StatusPending
	r.s.profiles[p.UserID] = &c
	return nil
}

func (r memProfiles) Get(_ context.Context, userID string) (*models.Profile, error) {
	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *p
	return &c, nil
}

func (r memProfiles) GetForUpdate(ctx context.Context, userID string) (*models.Profile, error) {
	return r.Get(ctx, userID)
}

func (r memProfiles) UpdateXP(_ context.Context, userID string, xp, level int) error {
	p, ok := r.s.profiles[userID]
	if !ok {
		return common.ErrorNotFound
	}
	p.XPScore, p.Level = xp, level
	return nil
}

func (r memProfiles) SetVerificationStatus(_ context.Context, userID, status string) error {
	p, ok := r.s.profiles[userID]
	if !ok {
		return common.ErrorNotFound
	}
	p.VerificationStatus = status
	return nil
}

type memVerifications struct{ s *memStore }

func (r memVerifications) Create(_ context.Context, v *models.VerificationRequest) (*models.VerificationRequest, error) {
	if r.s.failWith != nil {
		return nil, r.s.failWith
	}
	c := *v
	c.ID = r.s.nextID("v")
	c.Status = common.StatusPending
	c.CreatedAt = time.Now()
	r.s.verifications[c.ID] = &c
	out := c
	return &out, nil
}

func (r memVerifications) Get(_ context.Context, id string) (*models.VerificationRequest, error) {
	v, ok := r.s.verifications[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *v
	return &c, nil
}

func (r memVerifications) ListPending(_ context.Context, limit int) ([]*models.VerificationRequest, error) {
	var out []*models.VerificationRequest
	for _, v := range r.s.verifications {
		if v.Status == common.StatusPending && len(out) < limit {
			c := *v
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r memVerifications) UpdateStatus(_ context.Context, id, status string) error {
	v, ok := r.s.verifications[id]
	if !ok {
		return common.ErrorNotFound
	}
	now := time.Now()
	v.Status, v.ReviewedAt = status, &now
	return nil
}

type memRefresh struct{ s *memStore }

func (r memRefresh) Create(_ context.Context, userID, hash string, validity time.Duration) error {
	if r.s.failWith != nil {
		return r.s.failWith
	}
	r.s.refresh[hash] = &models.RefreshToken{UserID: userID, TokenHash: hash, Expires: time.Now().Add(validity)}
	return nil
}

func (r memRefresh) Find(_ context.Context, hash string) (*models.RefreshToken, error) {
	t, ok := r.s.refresh[hash]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

func (r memRefresh) Delete(_ context.Context, hash string) error {
	if _, ok := r.s.refresh[hash]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.refresh, hash)
	return nil
}

func (r memRefresh) DeleteByUser(_ context.Context, userID string) error {
	for h, t := range r.s.refresh {
		if t.UserID == userID {
			delete(r.s.refresh, h)
		}
	}
	return nil
}

type memActions struct{ s *memStore }

func (r memActions) Create(_ context.Context, t *models.ActionToken) error {
	c := *t
	c.ID = r.s.nextID("a")
	r.s.actions[c.TokenHash] = &c
	return nil
}

func (r memActions) Consume(_ context.Context, hash, purpose string) (*models.ActionToken, error) {
	t, ok := r.s.actions[hash]
	if !ok || t.Purpose != purpose || t.UsedAt != nil {
		return nil, common.ErrorNotFound
	}
	now := time.Now()
	t.UsedAt = &now
	c := *t
	return &c, nil
}

func (r memActions) DeleteByUser(_ context.Context, userID, purpose string) error {
	for h, t := range r.s.actions {
		if t.UserID == userID && t.Purpose == purpose && t.UsedAt == nil {
			delete(r.s.actions, h)
		}
	}
	return nil
}

// fakeMailer records sent links.
type fakeMailer struct {
	limitErr    error
	sendErr     error
	limitChecks int

	confirmations []sentMail
	resets        []sentMail
}

type sentMail struct{ to, redirect, token string }

func (m *fakeMailer) RedirectFor(redirectTo, defaultPath string) string {
	if redirectTo != "" {
		return redirectTo
	}
	return "http://app" + defaultPath
}

func (m *fakeMailer) CheckLimits(context.Context, string) error {
	m.limitChecks++
	return m.limitErr
}

func (m *fakeMailer) SendConfirmation(_ context.Context, to, redirect, token string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.confirmations = append(m.confirmations, sentMail{to, redirect, token})
	return nil
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, to, redirect, token string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.resets = append(m.resets, sentMail{to, redirect, token})
	return nil
}

func (m *fakeMailer) lastConfirmation(t *testing.T) sentMail {
	t.Helper()
	if len(m.confirmations) == 0 {
		t.Fatalf("no confirmation mail sent")
	}
	return m.confirmations[len(m.confirmations)-1]
}
