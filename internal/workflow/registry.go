package workflow

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/JaimeStill/accord/pkg/lifecycle"
)

// RegistryConfig controls session retention.
// A zero SessionTTL disables eviction.
type RegistryConfig struct {
	SessionTTL    time.Duration
	SweepInterval time.Duration
	Now           func() time.Time
}

// Registry stores session state keyed by session id. Each session has its own
// operation lock, so work on one session never waits on another.
type Registry struct {
	mu       sync.Mutex
	entries  map[string]*entry
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	hooks   sync.Mutex
	onEvict []func(State)
}

// op serializes writers on one session. mu guards the snapshot so readers
// see the last committed state while a transition is in flight.
type entry struct {
	op      sync.Mutex
	mu      sync.RWMutex
	state   State
	removed bool
}

// NewRegistry creates an empty Registry.
func NewRegistry(cfg RegistryConfig, logger *slog.Logger) *Registry {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Registry{
		entries:  make(map[string]*entry),
		ttl:      cfg.SessionTTL,
		interval: cfg.SweepInterval,
		now:      now,
		logger:   logger.With("system", "registry"),
	}
}

// Create stores a new session. Version is set to 1 and timestamps are stamped.
func (r *Registry) Create(s State) (State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[s.SessionID]; ok {
		return State{}, fmt.Errorf("%w: %s", ErrDuplicateSession, s.SessionID)
	}

	ts := r.now().UTC()
	s.Version = 1
	s.CreatedAt = ts
	s.UpdatedAt = ts

	r.entries[s.SessionID] = &entry{state: s.clone()}
	return s.clone(), nil
}

// Get returns the last committed snapshot of a session.
func (r *Registry) Get(id string) (State, bool) {
	e := r.lookup(id)
	if e == nil {
		return State{}, false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.removed {
		return State{}, false
	}
	return e.state.clone(), true
}

// Update runs fn against the current state while holding the session's
// operation lock and commits its result as a whole. When fn returns an error
// nothing is committed and the current state is returned with the error.
func (r *Registry) Update(id string, fn func(State) (State, error)) (State, error) {
	e := r.lookup(id)
	if e == nil {
		return State{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	e.op.Lock()
	defer e.op.Unlock()

	e.mu.RLock()
	current, removed := e.state, e.removed
	e.mu.RUnlock()

	if removed {
		return State{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	next, err := fn(current.clone())
	if err != nil {
		return current.clone(), err
	}

	return r.commit(e, current, next), nil
}

// CompareAndSwap replaces the session state only if its version still equals
// version. It reports whether the swap happened.
func (r *Registry) CompareAndSwap(id string, version int, next State) (State, bool, error) {
	e := r.lookup(id)
	if e == nil {
		return State{}, false, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	e.op.Lock()
	defer e.op.Unlock()

	e.mu.RLock()
	current, removed := e.state, e.removed
	e.mu.RUnlock()

	if removed {
		return State{}, false, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if current.Version != version {
		return current.clone(), false, nil
	}

	return r.commit(e, current, next), true, nil
}

// Delete removes a session. It reports whether the session existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if ok {
		e.mu.Lock()
		e.removed = true
		e.mu.Unlock()
	}
	return ok
}

// List returns snapshots of the stored sessions, most recently updated first.
// An empty userID lists every session.
func (r *Registry) List(userID string) []State {
	r.mu.Lock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	states := make([]State, 0, len(entries))
	for _, e := range entries {
		e.mu.RLock()
		if !e.removed && (userID == "" || e.state.UserID == userID) {
			states = append(states, e.state.clone())
		}
		e.mu.RUnlock()
	}

	slices.SortFunc(states, func(a, b State) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.SessionID, b.SessionID)
	})
	return states
}

// OnEvict registers fn to receive every session removed by Sweep. Hooks run
// after the sweep releases its locks.
func (r *Registry) OnEvict(fn func(State)) {
	r.hooks.Lock()
	defer r.hooks.Unlock()
	r.onEvict = append(r.onEvict, fn)
}

// Len returns the number of stored sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep evicts sessions not updated within the TTL as of now and hands each
// to the eviction hooks. Sessions with an operation in flight are skipped.
func (r *Registry) Sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}

	var evicted []State

	r.mu.Lock()
	for id, e := range r.entries {
		if !e.op.TryLock() {
			continue
		}

		e.mu.Lock()
		if now.Sub(e.state.UpdatedAt) > r.ttl {
			e.removed = true
			delete(r.entries, id)
			evicted = append(evicted, e.state.clone())
		}
		e.mu.Unlock()
		e.op.Unlock()
	}
	r.mu.Unlock()

	r.hooks.Lock()
	hooks := slices.Clone(r.onEvict)
	r.hooks.Unlock()

	for _, s := range evicted {
		for _, fn := range hooks {
			fn(s.clone())
		}
	}

	return len(evicted)
}

// Start runs the eviction sweep on the configured interval until the
// lifecycle context is cancelled.
func (r *Registry) Start(lc *lifecycle.Coordinator) error {
	if r.ttl <= 0 || r.interval <= 0 {
		r.logger.Info("session eviction disabled")
		return nil
	}

	r.logger.Info("starting session sweeper", "ttl", r.ttl, "interval", r.interval)

	lc.OnShutdown(func() {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-lc.Context().Done():
				r.logger.Info("session sweeper stopped")
				return
			case <-ticker.C:
				if n := r.Sweep(r.now()); n > 0 {
					r.logger.Info("evicted idle sessions", "count", n, "remaining", r.Len())
				}
			}
		}
	})

	return nil
}

func (r *Registry) lookup(id string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[id]
}

func (r *Registry) commit(e *entry, current, next State) State {
	next.SessionID = current.SessionID
	next.CreatedAt = current.CreatedAt
	next.Version = current.Version + 1
	next.UpdatedAt = r.now().UTC()

	e.mu.Lock()
	e.state = next.clone()
	e.mu.Unlock()

	return next.clone()
}
