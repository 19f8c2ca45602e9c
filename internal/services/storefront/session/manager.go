package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
	"github.com/payetonkawa/storefront/internal/services/storefront/events"
)

// Persistence is the durable half of a session: the authenticated flag and
// the credential, stored under separate keys.
type Persistence interface {
	LoadFlag(ctx context.Context) (bool, error)
	SaveFlag(ctx context.Context, authenticated bool) error
	LoadCredential(ctx context.Context) (string, bool, error)
	SaveCredential(ctx context.Context, token string) error
	DeleteCredential(ctx context.Context) error
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides the clock used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.log = logger
		}
	}
}

// Manager owns one client's session. Operations are serialized per client.
// Persistence writes are best effort: failures are logged and never undo the
// in-memory change.
type Manager struct {
	clientID string
	store    Persistence
	creds    *Credentials
	bus      *events.Bus
	now      func() time.Time
	log      logrus.FieldLogger

	mu    sync.Mutex
	state Session
	ready chan struct{}
	// reconciled is set once Reconcile has settled, and read without mu.
	reconciled atomic.Bool
}

// NewManager returns a manager in StatusUnknown. Call Reconcile before use.
func NewManager(clientID string, store Persistence, creds *Credentials, bus *events.Bus, opts ...Option) *Manager {
	if creds == nil {
		creds = &Credentials{}
	}
	if bus == nil {
		bus = events.NewBus()
	}
	m := &Manager{
		clientID: clientID,
		store:    store,
		creds:    creds,
		bus:      bus,
		now:      time.Now,
		log:      logrus.StandardLogger(),
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithField("client_id", clientID)
	return m
}

// Credentials returns the holder armed by this manager.
func (m *Manager) Credentials() *Credentials {
	return m.creds
}

// Status reports StatusUnknown until Reconcile completes. It does not wait
// for a reconciliation in progress.
func (m *Manager) Status() Status {
	if !m.reconciled.Load() {
		return StatusUnknown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Status()
}

// Snapshot returns the current session value.
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Wait blocks until reconciliation completes or ctx ends.
func (m *Manager) Wait(ctx context.Context) (Status, error) {
	select {
	case <-m.ready:
		return m.Status(), nil
	case <-ctx.Done():
		return StatusUnknown, ctx.Err()
	}
}

// Reconcile aligns the durable flag with the stored credential. It runs once;
// later calls return immediately.
//
//   - credential present, flag false: flag becomes true and the holder is armed
//   - credential present, flag true: the holder is re-armed
//   - credential absent, flag true: full logout effect, cart included
//   - credential expired: treated as absent and removed
//
// Load failures are treated as empty storage and returned after the session
// has settled on the signed-out side.
func (m *Manager) Reconcile(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reconciled.Load() {
		return nil
	}
	defer func() {
		m.reconciled.Store(true)
		close(m.ready)
	}()

	var loadErr error
	flag, err := m.store.LoadFlag(ctx)
	if err != nil {
		loadErr = fmt.Errorf("load auth flag: %w", err)
		flag = false
	}
	token, ok, err := m.store.LoadCredential(ctx)
	if err != nil {
		if loadErr == nil {
			loadErr = fmt.Errorf("load credential: %w", err)
		}
		token, ok = "", false
	}
	if ok && TokenExpired(token, m.now()) {
		m.log.Info("stored credential expired")
		m.persist(ctx, "delete credential", m.store.DeleteCredential)
		token, ok = "", false
	}

	switch {
	case ok:
		m.creds.Arm(token)
		m.state.Authenticated = true
		if !flag {
			m.saveFlag(ctx, true)
		}
	case flag:
		m.endLocked(ctx, events.ReasonReconcile)
	default:
		m.creds.Disarm()
		m.state = Session{}
	}
	return loadErr
}

// Login stores the credential, arms the holder, and marks the session
// authenticated.
func (m *Manager) Login(ctx context.Context, user domain.User, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persist(ctx, "save credential", func(ctx context.Context) error {
		return m.store.SaveCredential(ctx, token)
	})
	m.creds.Arm(token)
	m.state = SignedIn(user)
	m.saveFlag(ctx, true)
}

// Logout removes the credential, resets the session, and publishes
// SessionEnded.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endLocked(ctx, events.ReasonLogout)
}

// Expire is the authorization-failure path. It has the same effect as Logout
// and is a no-op when the session is already signed out, so a burst of 401s
// publishes SessionEnded once.
func (m *Manager) Expire(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.Authenticated && !m.creds.Armed() {
		return
	}
	m.endLocked(ctx, events.ReasonExpired)
}

// UpdateUser shallow-merges patch into the current user. It is a no-op when
// no user is set.
func (m *Manager) UpdateUser(patch domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = m.state.WithUser(patch)
}

// SetUser fills in the identity of an authenticated session whose user is
// unknown, as after a restart where only the flag survived.
func (m *Manager) SetUser(user domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.Authenticated {
		return
	}
	m.state.User = &user
}

func (m *Manager) endLocked(ctx context.Context, reason string) {
	m.persist(ctx, "delete credential", m.store.DeleteCredential)
	m.creds.Disarm()
	m.state = Session{}
	m.saveFlag(ctx, false)
	m.bus.Publish(events.Event{Type: events.SessionEnded, ClientID: m.clientID, Reason: reason})
}

func (m *Manager) saveFlag(ctx context.Context, authenticated bool) {
	m.persist(ctx, "save auth flag", func(ctx context.Context) error {
		return m.store.SaveFlag(ctx, authenticated)
	})
}

func (m *Manager) persist(ctx context.Context, op string, write func(context.Context) error) {
	if err := write(context.WithoutCancel(ctx)); err != nil {
		m.log.WithError(err).Warn(op)
	}
}
