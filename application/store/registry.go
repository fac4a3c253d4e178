package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"todolist-backend/application/ports"
)

type session struct {
	store    *TodoStore
	lastUsed time.Time

	loadMu sync.Mutex
	loaded bool
}

// SessionRegistry hands out one TodoStore per owner. Stores are loaded on
// first use and evicted after they sit idle for the configured timeout.
type SessionRegistry struct {
	repo        ports.TodoRepository
	logger      *zap.Logger
	idleTimeout time.Duration
	storeOpts   []Option
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewSessionRegistry creates a registry. A non-positive idleTimeout disables eviction.
func NewSessionRegistry(repo ports.TodoRepository, logger *zap.Logger, idleTimeout time.Duration, opts ...Option) *SessionRegistry {
	return &SessionRegistry{
		repo:        repo,
		logger:      logger,
		idleTimeout: idleTimeout,
		storeOpts:   opts,
		now:         time.Now,
		sessions:    make(map[string]*session),
	}
}

// Get returns the owner's store, loading it from the repository if this is
// the first request of the session. A failed load is retried on the next call.
func (r *SessionRegistry) Get(ctx context.Context, owner string) (*TodoStore, error) {
	r.mu.Lock()
	sess, ok := r.sessions[owner]
	if !ok {
		sess = &session{store: NewTodoStore(owner, r.repo, r.logger, r.storeOpts...)}
		r.sessions[owner] = sess
	}
	sess.lastUsed = r.now()
	r.mu.Unlock()

	sess.loadMu.Lock()
	defer sess.loadMu.Unlock()

	if !sess.loaded {
		if err := sess.store.Load(ctx); err != nil {
			return nil, err
		}
		sess.loaded = true
		r.logger.Debug("Session started", zap.String("owner", owner))
	}

	return sess.store, nil
}

// Invalidate makes the next Get reload the owner's todos from storage. An
// idle session is dropped. A session with a mutation in flight is kept and
// marked for reload so its in-flight guard stays in force.
func (r *SessionRegistry) Invalidate(owner string) {
	r.mu.Lock()
	sess, ok := r.sessions[owner]
	if ok && !sess.store.Busy() {
		delete(r.sessions, owner)
		ok = false
	}
	r.mu.Unlock()

	if ok {
		sess.loadMu.Lock()
		sess.loaded = false
		sess.loadMu.Unlock()
	}
}

// Len returns the number of live sessions
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict removes sessions idle longer than the timeout and returns how many
// were dropped. Sessions with a mutation in flight are kept.
func (r *SessionRegistry) Evict() int {
	if r.idleTimeout <= 0 {
		return 0
	}

	cutoff := r.now().Add(-r.idleTimeout)

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for owner, sess := range r.sessions {
		if sess.lastUsed.Before(cutoff) && !sess.store.Busy() {
			delete(r.sessions, owner)
			evicted++
		}
	}
	return evicted
}

// Run evicts idle sessions periodically until ctx is cancelled
func (r *SessionRegistry) Run(ctx context.Context) {
	if r.idleTimeout <= 0 {
		return
	}

	interval := r.idleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(); n > 0 {
				r.logger.Info("Evicted idle sessions", zap.Int("count", n))
			}
		}
	}
}
