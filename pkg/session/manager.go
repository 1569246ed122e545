package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/arcade/internal/logging"
	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed session lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Load retrieves an existing session from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		s, err = m.store.Load(ctx, sessionID)
		return err
	})
	return s, err
}

// Start creates a session with conv and persists it. An existing session
// under the same ID is replaced.
func (m *Manager) Start(ctx context.Context, conv ports.Conversation, sessionID string) (*domain.Session, error) {
	s, err := conv.Start(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	err = m.WithLock(ctx, s.ID, func(ctx context.Context) error {
		return m.store.Save(ctx, s.ID, s)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return s, nil
}

// LoadOrStart loads a session, creating and persisting a new one with conv
// when the ID is unknown.
func (m *Manager) LoadOrStart(ctx context.Context, conv ports.Conversation, sessionID string) (*domain.Session, error) {
	var s *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		s, err = m.loadOrStart(ctx, conv, sessionID)
		return err
	})
	return s, err
}

func (m *Manager) loadOrStart(ctx context.Context, conv ports.Conversation, sessionID string) (*domain.Session, error) {
	s, err := m.store.Load(ctx, sessionID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to check session existence: %w", err)
	}

	s, err = conv.Start(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	// Persist immediately to reserve the ID
	if err := m.store.Save(ctx, sessionID, s); err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	return s, nil
}

// Create starts a new session under sessionID and persists it. Unlike Start
// it fails with domain.ErrSessionExists when the ID is taken; the check and
// the save happen under one lock. An empty ID gets a generated one.
func (m *Manager) Create(ctx context.Context, conv ports.Conversation, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return m.Start(ctx, conv, "")
	}
	var s *domain.Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		_, err := m.store.Load(ctx, sessionID)
		if err == nil {
			return fmt.Errorf("%w: %s", domain.ErrSessionExists, sessionID)
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check session existence: %w", err)
		}
		if s, err = conv.Start(ctx, sessionID); err != nil {
			return err
		}
		if err := m.store.Save(ctx, sessionID, s); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		return nil
	})
	return s, err
}

// Step loads the session (starting it when unknown), advances it by one
// turn and saves it, all under the session lock. The session is saved on a
// no-match too, since the miss counter changed.
func (m *Manager) Step(ctx context.Context, conv ports.Conversation, sessionID, utterance string) (*domain.Session, domain.Turn, error) {
	var (
		s    *domain.Session
		turn domain.Turn
	)
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		s, err = m.loadOrStart(ctx, conv, sessionID)
		if err != nil {
			return err
		}
		turn, err = m.step(ctx, conv, sessionID, s, utterance)
		return err
	})
	return s, turn, err
}

// Advance is Step for a session that must already exist. It also returns
// the session as it was before the turn, read under the same lock, so the
// two can be diffed. Unknown IDs fail with domain.ErrSessionNotFound.
func (m *Manager) Advance(ctx context.Context, conv ports.Conversation, sessionID, utterance string) (before, after *domain.Session, turn domain.Turn, err error) {
	err = m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		s, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		before = s.Clone()
		turn, err = m.step(ctx, conv, sessionID, s, utterance)
		after = s
		return err
	})
	return before, after, turn, err
}

// step runs one turn on s and saves it. The caller holds the lock.
func (m *Manager) step(ctx context.Context, conv ports.Conversation, sessionID string, s *domain.Session, utterance string) (domain.Turn, error) {
	turn, err := conv.Step(ctx, s, utterance)
	if err != nil && !errors.Is(err, domain.ErrNoMatch) {
		return turn, err
	}
	if saveErr := m.store.Save(ctx, sessionID, s); saveErr != nil {
		return turn, fmt.Errorf("failed to save session: %w", saveErr)
	}
	return turn, err
}

// Save persists the session.
func (m *Manager) Save(ctx context.Context, sessionID string, s *domain.Session) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, s)
	})
}

// Delete removes the session from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
