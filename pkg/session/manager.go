package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/paulsava/cpg/internal/logging"
	"github.com/paulsava/cpg/pkg/graph"
	"github.com/paulsava/cpg/pkg/ports"
)

// Manager owns the single live session and serializes access to it. An
// orchestration request holds the manager's lock from resolution until its
// result is final, so a session swap can never interleave with a request.
type Manager struct {
	mu      sync.Mutex
	current *Session

	locker  ports.Locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking for multi-replica deployments.
func WithLocker(locker ports.Locker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLogger configures a logger for internal events (like deferred errors).
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager with no live session.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Replace waits for any in-flight request, swaps in a new session around the
// given graph with a fresh ledger, and releases the resources of the
// superseded session. Passing a nil graph ends the current session.
func (m *Manager) Replace(ctx context.Context, g *graph.Graph) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old := m.current
	if g == nil {
		m.current = nil
	} else {
		m.current = New(g)
	}

	if old != nil {
		if err := old.Close(); err != nil {
			// The old graph is gone either way; its front-end resources
			// just leaked until process exit.
			m.logger.Warn("failed to release superseded session resources",
				"session_id", old.ID,
				"err", err,
			)
		}
		old.Ledger.Reset()
	}

	if m.current != nil {
		m.logger.Info("session replaced", "session_id", m.current.ID, "nodes", g.Len())
	}
	return m.current, nil
}

// Current returns the live session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// WithExclusive runs fn while holding exclusive access to the live session.
// Returns ErrNoSession if no session is active.
func (m *Manager) WithExclusive(ctx context.Context, fn func(*Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return ErrNoSession
	}

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, m.current.ID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"session_id", m.current.ID,
					"err", err,
				)
			}
		}()
	}

	return fn(m.current)
}
