package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/codifyr/internal/client/client"
	"github.com/dmitrijs2005/codifyr/internal/client/events"
	"github.com/dmitrijs2005/codifyr/internal/client/models"
	"github.com/dmitrijs2005/codifyr/internal/progression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSub struct{ n int }

func (s *fakeSub) Unsubscribe() { s.n++ }

type fakeProvider struct {
	mu sync.Mutex

	session    *models.Session
	sessionErr error
	// runs inside GetSession, before it returns
	duringGet func()

	listener client.SessionChangeFunc
	sub      *fakeSub

	profiles   map[string]*models.Profile
	profileErr error
	reads      []string
}

func (f *fakeProvider) GetSession(context.Context) (*models.Session, error) {
	if f.duringGet != nil {
		f.duringGet()
	}
	return f.session, f.sessionErr
}

func (f *fakeProvider) OnSessionChange(fn client.SessionChangeFunc) client.Subscription {
	f.listener = fn
	f.sub = &fakeSub{}
	return f.sub
}

func (f *fakeProvider) ReadProfile(_ context.Context, userID string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, userID)
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profiles[userID], nil
}

func (f *fakeProvider) emit(s *models.Session) {
	f.listener(client.EventSignedIn, s)
}

type routes struct{ got []events.Route }

func (r *routes) Navigate(rt events.Route) { r.got = append(r.got, rt) }

// queue collects scheduled fetches so tests decide when they run.
type queue struct{ fns []func() }

func (q *queue) schedule(f func()) { q.fns = append(q.fns, f) }

func (q *queue) runAll() {
	fns := q.fns
	q.fns = nil
	for _, f := range fns {
		f()
	}
}

func inline(f func()) { f() }

func active(id string) *models.Session {
	return &models.Session{UserID: id, Email: id + "@example.com", AccessToken: "tok-" + id}
}

func TestStart_RestoredSession(t *testing.T) {
	p := &fakeProvider{
		session:  active("u1"),
		profiles: map[string]*models.Profile{"u1": {UserID: "u1", XPScore: 250, Level: 3}},
	}
	r := &routes{}
	m := New(p, r, WithScheduler(inline))

	require.NoError(t, m.Start(context.Background()))

	snap := m.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.Equal(t, "u1", snap.Session.UserID)
	assert.True(t, snap.ProfileLoaded)
	assert.Equal(t, 250, snap.Profile.XPScore)
	assert.Equal(t, []events.Route{events.RouteAppHome}, r.got)

	prog, badge := m.Progress()
	assert.Equal(t, 50, prog.XPIntoLevel)
	assert.Equal(t, 300, prog.XPForNextLevel)
	assert.Equal(t, progression.TierBeginner, badge.Tier)
}

func TestStart_NoSession(t *testing.T) {
	p := &fakeProvider{}
	r := &routes{}
	m := New(p, r, WithScheduler(inline))

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, StateAnonymous, m.Snapshot().State)
	assert.Equal(t, []events.Route{events.RouteLogin}, r.got)
	assert.Empty(t, p.reads)
}

func TestStart_LookupFailureIsAnonymous(t *testing.T) {
	p := &fakeProvider{session: active("u1"), sessionErr: errors.New("disk")}
	m := New(p, &routes{}, WithScheduler(inline))

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, StateAnonymous, m.Snapshot().State)
}

func TestStart_Twice(t *testing.T) {
	m := New(&fakeProvider{}, nil, WithScheduler(inline))
	require.NoError(t, m.Start(context.Background()))
	assert.ErrorIs(t, m.Start(context.Background()), ErrAlreadyStarted)
}

func TestStart_NotificationDuringLookupWins(t *testing.T) {
	p := &fakeProvider{session: active("stale")}
	p.duringGet = func() { p.listener(client.EventSignedOut, nil) }
	r := &routes{}
	m := New(p, r, WithScheduler(inline))

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, StateAnonymous, m.Snapshot().State)
	assert.Equal(t, []events.Route{events.RouteLogin}, r.got)
	assert.Empty(t, p.reads)
}

func TestSignUpThenNoSessionStaysAnonymous(t *testing.T) {
	p := &fakeProvider{}
	r := &routes{}
	m := New(p, r, WithScheduler(inline))
	require.NoError(t, m.Start(context.Background()))

	// registration awaiting email confirmation reports no session
	p.listener(client.EventSignedOut, nil)

	assert.Equal(t, StateAnonymous, m.Snapshot().State)
	assert.Equal(t, []events.Route{events.RouteLogin}, r.got, "no second redirect")
}

func TestSignInThenSignOut(t *testing.T) {
	p := &fakeProvider{profiles: map[string]*models.Profile{}}
	r := &routes{}
	m := New(p, r, WithScheduler(inline))
	require.NoError(t, m.Start(context.Background()))

	p.emit(active("u1"))
	snap := m.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.True(t, snap.ProfileLoaded)
	assert.Nil(t, snap.Profile, "absent profile is a valid outcome")

	prog, badge := m.Progress()
	assert.Equal(t, 1, prog.Level)
	assert.Equal(t, "Beginner Badge", badge.Title)

	p.listener(client.EventSignedOut, nil)
	snap = m.Snapshot()
	assert.Equal(t, StateAnonymous, snap.State)
	assert.Nil(t, snap.Session)
	assert.False(t, snap.ProfileLoaded)

	assert.Equal(t, []events.Route{events.RouteLogin, events.RouteAppHome, events.RouteLogin}, r.got)
}

func TestTokenRefreshKeepsProfile(t *testing.T) {
	p := &fakeProvider{profiles: map[string]*models.Profile{"u1": {UserID: "u1", Level: 2}}}
	r := &routes{}
	m := New(p, r, WithScheduler(inline))
	require.NoError(t, m.Start(context.Background()))
	p.emit(active("u1"))

	refreshed := active("u1")
	refreshed.AccessToken = "rotated"
	p.listener(client.EventTokenRefreshed, refreshed)

	snap := m.Snapshot()
	assert.Equal(t, "rotated", snap.Session.AccessToken)
	assert.True(t, snap.ProfileLoaded)
	assert.Equal(t, []string{"u1"}, p.reads)
	assert.Equal(t, []events.Route{events.RouteLogin, events.RouteAppHome}, r.got)
}

func TestUserSwitchDropsStaleFetch(t *testing.T) {
	p := &fakeProvider{profiles: map[string]*models.Profile{
		"a": {UserID: "a", XPScore: 10, Level: 1},
		"b": {UserID: "b", XPScore: 990, Level: 10},
	}}
	q := &queue{}
	m := New(p, &routes{}, WithScheduler(q.schedule))
	require.NoError(t, m.Start(context.Background()))

	p.emit(active("a"))
	p.emit(active("b"))
	require.Len(t, q.fns, 2)

	// complete b first, then the stale a
	q.fns[1]()
	q.fns[0]()

	snap := m.Snapshot()
	require.True(t, snap.ProfileLoaded)
	assert.Equal(t, "b", snap.Profile.UserID)
	_, badge := m.Progress()
	assert.Equal(t, progression.TierRisingCoder, badge.Tier)
}

func TestFetchFailureLeavesProfileUnloaded(t *testing.T) {
	p := &fakeProvider{profileErr: errors.New("boom")}
	m := New(p, &routes{}, WithScheduler(inline))
	require.NoError(t, m.Start(context.Background()))
	p.emit(active("u1"))

	snap := m.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.False(t, snap.ProfileLoaded)
}

func TestTeardown(t *testing.T) {
	p := &fakeProvider{profiles: map[string]*models.Profile{"u1": {UserID: "u1"}}}
	q := &queue{}
	r := &routes{}
	m := New(p, r, WithScheduler(q.schedule))
	require.NoError(t, m.Start(context.Background()))
	p.emit(active("u1"))

	m.Teardown()
	m.Teardown()
	assert.Equal(t, 1, p.sub.n)

	require.NotPanics(t, func() { p.listener(client.EventSignedOut, nil) })
	q.runAll()

	snap := m.Snapshot()
	assert.Equal(t, StateAuthenticated, snap.State)
	assert.False(t, snap.ProfileLoaded)
	assert.Equal(t, []events.Route{events.RouteLogin, events.RouteAppHome}, r.got)

	_, err := m.ReloadProfile(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestTeardownBeforeLookupCompletes(t *testing.T) {
	p := &fakeProvider{session: active("u1")}
	r := &routes{}
	var m *Machine
	p.duringGet = func() { m.Teardown() }
	m = New(p, r, WithScheduler(inline))

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, StateUnknown, m.Snapshot().State)
	assert.Empty(t, r.got)
	assert.Equal(t, 1, p.sub.n)
}

func TestExpectSignIn(t *testing.T) {
	p := &fakeProvider{profiles: map[string]*models.Profile{}}
	r := &routes{}
	m := New(p, r, WithScheduler(inline))
	require.NoError(t, m.Start(context.Background()))

	m.ExpectSignIn(events.RouteVerificationStep)
	p.emit(active("u1"))
	p.listener(client.EventSignedOut, nil)
	p.emit(active("u1"))

	assert.Equal(t, []events.Route{
		events.RouteLogin,
		events.RouteVerificationStep,
		events.RouteLogin,
		events.RouteAppHome,
	}, r.got)
}

func TestReloadProfile(t *testing.T) {
	p := &fakeProvider{profiles: map[string]*models.Profile{"u1": {UserID: "u1", XPScore: 5, TechStack: []string{"go"}}}}
	q := &queue{}
	m := New(p, &routes{}, WithScheduler(q.schedule))

	_, err := m.ReloadProfile(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, m.Start(context.Background()))
	p.emit(active("u1"))

	p.profiles["u1"] = &models.Profile{UserID: "u1", XPScore: 120, Level: 2}
	got, err := m.ReloadProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, got.XPScore)

	// the older background fetch must not overwrite the reload
	p.profiles["u1"] = &models.Profile{UserID: "u1", XPScore: 5}
	q.runAll()
	assert.Equal(t, 120, m.Snapshot().Profile.XPScore)
}

func TestSnapshotIsCopy(t *testing.T) {
	p := &fakeProvider{profiles: map[string]*models.Profile{"u1": {UserID: "u1", TechStack: []string{"go"}}}}
	m := New(p, &routes{}, WithScheduler(inline))
	require.NoError(t, m.Start(context.Background()))
	p.emit(active("u1"))

	snap := m.Snapshot()
	snap.Session.UserID = "x"
	snap.Profile.TechStack[0] = "x"

	again := m.Snapshot()
	assert.Equal(t, "u1", again.Session.UserID)
	assert.Equal(t, []string{"go"}, again.Profile.TechStack)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unknown", StateUnknown.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "anonymous", StateAnonymous.String())
}
