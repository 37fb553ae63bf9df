// Package session owns the client's view of who is signed in.
//
// A Machine follows the identity provider's session-change notifications,
// decides where the presentation layer should navigate and keeps the
// signed-in user's profile loaded.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/codifyr/internal/client/client"
	"github.com/dmitrijs2005/codifyr/internal/client/events"
	"github.com/dmitrijs2005/codifyr/internal/client/models"
	"github.com/dmitrijs2005/codifyr/internal/logging"
	"github.com/dmitrijs2005/codifyr/internal/progression"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrAlreadyStarted   = errors.New("session machine already started")
)

type State int

const (
	StateUnknown State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Provider is the part of client.Client the machine depends on.
type Provider interface {
	GetSession(ctx context.Context) (*models.Session, error)
	OnSessionChange(fn client.SessionChangeFunc) client.Subscription
	ReadProfile(ctx context.Context, userID string) (*models.Profile, error)
}

// Snapshot is a copy of the machine's state at one point in time.
type Snapshot struct {
	State   State
	Session *models.Session
	// Profile is nil until loaded and also when the user has no profile row;
	// ProfileLoaded tells the two apart.
	Profile       *models.Profile
	ProfileLoaded bool
}

type Option func(*Machine)

// WithScheduler replaces the goroutine used to run profile fetches.
func WithScheduler(fn func(func())) Option {
	return func(m *Machine) { m.schedule = fn }
}

func WithLogger(l logging.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

type Machine struct {
	provider Provider
	nav      events.Navigator
	logger   logging.Logger
	schedule func(func())

	// applyMu serialises transitions together with their navigation so
	// redirects are issued in transition order. mu guards the fields below
	// and is never held while calling out.
	applyMu sync.Mutex

	mu            sync.Mutex
	state         State
	session       *models.Session
	profile       *models.Profile
	profileLoaded bool
	notified      bool
	landing       events.Route
	gen           uint64
	started       bool
	closed        bool
	sub           client.Subscription
	ctx           context.Context
	cancel        context.CancelFunc
}

func New(p Provider, nav events.Navigator, opts ...Option) *Machine {
	m := &Machine{
		provider: p,
		nav:      nav,
		logger:   logging.Nop(),
		schedule: func(f func()) { go f() },
	}
	for _, o := range opts {
		o(m)
	}
	m.logger = m.logger.With("module", "session")
	return m
}

// Start subscribes to session changes and then resolves the initial state
// from the provider. A notification that arrives before GetSession returns
// takes precedence over its result.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started || m.closed {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.ctx, m.cancel = context.WithCancel(context.WithoutCancel(ctx))
	m.mu.Unlock()

	sub := m.provider.OnSessionChange(m.handleChange)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		sub.Unsubscribe()
		return nil
	}
	m.sub = sub
	m.mu.Unlock()

	s, err := m.provider.GetSession(ctx)
	if err != nil {
		m.logger.Warn(ctx, "initial session lookup failed", "error", err)
		s = nil
	}

	m.apply(s, true)
	return nil
}

func (m *Machine) handleChange(event client.AuthEvent, s *models.Session) {
	m.logger.Debug(context.Background(), "session change", "event", string(event))
	m.apply(s, false)
}

type effects struct {
	route  events.Route
	fetch  bool
	gen    uint64
	userID string
}

func (m *Machine) apply(s *models.Session, bootstrap bool) {
	m.applyMu.Lock()
	defer m.applyMu.Unlock()

	m.mu.Lock()
	if m.closed || (bootstrap && m.notified) {
		m.mu.Unlock()
		return
	}
	if !bootstrap {
		m.notified = true
	}
	eff := m.transitionLocked(s)
	ctx := m.ctx
	m.mu.Unlock()

	if eff.route != "" && m.nav != nil {
		m.nav.Navigate(eff.route)
	}
	if eff.fetch {
		m.schedule(func() { m.fetchProfile(ctx, eff.gen, eff.userID) })
	}
}

func (m *Machine) transitionLocked(s *models.Session) effects {
	var eff effects
	prev := m.state

	if !s.IsActive() {
		m.state = StateAnonymous
		m.session = nil
		m.profile = nil
		m.profileLoaded = false
		m.gen++
		if prev != StateAnonymous {
			eff.route = events.RouteLogin
		}
		return eff
	}

	userChanged := m.session == nil || m.session.UserID != s.UserID
	m.state = StateAuthenticated
	m.session = s

	if prev != StateAuthenticated {
		eff.route = events.RouteAppHome
		if m.landing != "" {
			eff.route = m.landing
			m.landing = ""
		}
	}
	if prev != StateAuthenticated || userChanged {
		m.profile = nil
		m.profileLoaded = false
		m.gen++
		eff.fetch = true
		eff.gen = m.gen
		eff.userID = s.UserID
	}
	return eff
}

func (m *Machine) fetchProfile(ctx context.Context, gen uint64, userID string) {
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := m.provider.ReadProfile(ctx, userID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || gen != m.gen {
		return
	}
	if err != nil {
		m.logger.Warn(ctx, "profile fetch failed", "user_id", userID, "error", err)
		return
	}
	m.profile = p
	m.profileLoaded = true
}

// ExpectSignIn makes the next transition into Authenticated navigate to
// route instead of the application home. An empty route clears it.
func (m *Machine) ExpectSignIn(route events.Route) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.landing = route
}

// ReloadProfile re-reads the current user's profile and waits for it.
// An in-flight background fetch is superseded.
func (m *Machine) ReloadProfile(ctx context.Context) (*models.Profile, error) {
	m.mu.Lock()
	if m.closed || m.state != StateAuthenticated {
		m.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	m.gen++
	gen := m.gen
	userID := m.session.UserID
	m.mu.Unlock()

	p, err := m.provider.ReadProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed && gen == m.gen {
		m.profile = p
		m.profileLoaded = true
	}
	return copyProfile(p), nil
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		State:         m.state,
		ProfileLoaded: m.profileLoaded,
		Profile:       copyProfile(m.profile),
	}
	if m.session != nil {
		s := *m.session
		snap.Session = &s
	}
	return snap
}

// Progress derives level progress and badge from the loaded profile. A
// missing profile counts as level 1 with no XP.
func (m *Machine) Progress() (progression.Progress, progression.Badge) {
	xp, level := 0, 1
	m.mu.Lock()
	if m.profile != nil {
		xp, level = m.profile.XPScore, m.profile.Level
	}
	m.mu.Unlock()

	p := progression.ComputeProgress(xp, level)
	return p, progression.BadgeForLevel(p.Level)
}

// Teardown stops listening for session changes. Outstanding fetches finish
// without effect. Calling it again does nothing.
func (m *Machine) Teardown() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	sub := m.sub
	m.sub = nil
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

func copyProfile(p *models.Profile) *models.Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.TechStack = append([]string(nil), p.TechStack...)
	return &c
}
