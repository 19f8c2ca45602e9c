package workspace

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/payetonkawa/storefront/internal/platform/timeouts"
	"github.com/payetonkawa/storefront/internal/services/storefront/cart"
	"github.com/payetonkawa/storefront/internal/services/storefront/events"
	"github.com/payetonkawa/storefront/internal/services/storefront/session"
	"github.com/payetonkawa/storefront/internal/services/storefront/state"
	"github.com/payetonkawa/storefront/internal/services/storefront/storage"
)

// DefaultIdleTTL is how long an unused workspace stays in memory.
const DefaultIdleTTL = 30 * time.Minute

const defaultSweepInterval = time.Minute

// ErrClientIDRequired is returned by Acquire for a blank client id.
var ErrClientIDRequired = errors.New("client id is required")

// Option customizes a Registry.
type Option func(*Registry)

// WithIdleTTL sets how long an unused workspace is kept.
func WithIdleTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl > 0 {
			r.idleTTL = ttl
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.log = logger
		}
	}
}

// WithClock replaces time.Now for idle tracking and token expiry.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithSessionEndedHook runs hook for every SessionEnded event of every
// workspace.
func WithSessionEndedHook(hook func(events.Event)) Option {
	return func(r *Registry) {
		r.onSessionEnded = hook
	}
}

// WithPersistErrorHook runs hook for every failed state write.
func WithPersistErrorHook(hook func(key string, err error)) Option {
	return func(r *Registry) {
		r.onPersistError = hook
	}
}

// WithMaintenance adds a task run on every sweep, such as purging expired
// cache entries.
func WithMaintenance(task func(ctx context.Context, now time.Time)) Option {
	return func(r *Registry) {
		if task != nil {
			r.maintenance = append(r.maintenance, task)
		}
	}
}

type entry struct {
	ready    chan struct{}
	ws       *Workspace
	refs     int
	lastUsed time.Time
}

// Registry hydrates workspaces on first use and evicts idle ones. Durable
// state stays in the store and is reconciled again on the next Acquire.
type Registry struct {
	store          storage.StateStore
	idleTTL        time.Duration
	log            logrus.FieldLogger
	now            func() time.Time
	onSessionEnded func(events.Event)
	onPersistError func(key string, err error)
	maintenance    []func(ctx context.Context, now time.Time)

	mu      sync.Mutex
	entries map[string]*entry
}

// NewRegistry returns a registry backed by store.
func NewRegistry(store storage.StateStore, opts ...Option) *Registry {
	r := &Registry{
		store:   store,
		idleTTL: DefaultIdleTTL,
		log:     logrus.StandardLogger(),
		now:     time.Now,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Acquire returns the workspace for clientID, hydrating it on first use.
// Hydration restores the cart, wires the SessionEnded subscription, and
// reconciles the session before the workspace is handed out. The returned
// release func must be called when the caller is done.
func (r *Registry) Acquire(ctx context.Context, clientID string) (*Workspace, func(), error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, nil, ErrClientIDRequired
	}

	r.mu.Lock()
	e, ok := r.entries[clientID]
	if !ok {
		e = &entry{ready: make(chan struct{})}
		r.entries[clientID] = e
	}
	e.refs++
	e.lastUsed = r.now()
	r.mu.Unlock()

	if !ok {
		e.ws = r.hydrate(ctx, clientID)
		close(e.ready)
	}

	select {
	case <-e.ready:
	case <-ctx.Done():
		r.release(e)
		return nil, nil, ctx.Err()
	}

	var once sync.Once
	return e.ws, func() { once.Do(func() { r.release(e) }) }, nil
}

func (r *Registry) release(e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.refs--
	e.lastUsed = r.now()
}

func (r *Registry) hydrate(ctx context.Context, clientID string) *Workspace {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.BackendRequest)
	defer cancel()
	log := r.log.WithField("client_id", clientID)

	keeper := state.NewKeeper(r.store, clientID, r.log)
	if r.onPersistError != nil {
		keeper.OnError(r.onPersistError)
	}
	initial, err := keeper.LoadCart(ctx)
	if err != nil {
		log.WithError(err).Warn("restore cart")
	}

	bus := events.NewBus()
	store := cart.NewStore(initial, keeper.SaveCart)
	ws := &Workspace{
		ClientID: clientID,
		Cart:     store,
		Bus:      bus,
		keeper:   keeper,
	}
	ws.unsubscribe = append(ws.unsubscribe, store.Subscribe(bus))
	if r.onSessionEnded != nil {
		ws.unsubscribe = append(ws.unsubscribe, bus.Subscribe(events.SessionEnded, r.onSessionEnded))
	}

	ws.Session = session.NewManager(clientID, keeper, &session.Credentials{}, bus,
		session.WithClock(r.now),
		session.WithLogger(r.log),
	)
	if err := ws.Session.Reconcile(ctx); err != nil {
		log.WithError(err).Warn("reconcile session")
	}
	return ws
}

// Len returns the number of resident workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep evicts workspaces unused for longer than the idle TTL and returns
// how many were evicted. Workspaces held by a caller are never evicted.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	var idle []*entry
	for clientID, e := range r.entries {
		if e.refs > 0 || now.Sub(e.lastUsed) < r.idleTTL {
			continue
		}
		delete(r.entries, clientID)
		idle = append(idle, e)
	}
	r.mu.Unlock()

	for _, e := range idle {
		<-e.ready
		e.ws.close()
	}
	return len(idle)
}

// Run sweeps idle workspaces and runs maintenance tasks every interval until
// ctx ends.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := r.now()
			if evicted := r.Sweep(now); evicted > 0 {
				r.log.WithField("evicted", evicted).Debug("evicted idle workspaces")
			}
			for _, task := range r.maintenance {
				task(ctx, now)
			}
		}
	}
}

// Close evicts every workspace, waiting for their pending state writes.
func (r *Registry) Close() {
	r.mu.Lock()
	all := make([]*entry, 0, len(r.entries))
	for clientID, e := range r.entries {
		delete(r.entries, clientID)
		all = append(all, e)
	}
	r.mu.Unlock()

	for _, e := range all {
		<-e.ready
		e.ws.close()
	}
}
