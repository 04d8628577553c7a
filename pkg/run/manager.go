package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/foundry/internal/logging"
	"github.com/aretw0/foundry/pkg/domain"
	"github.com/aretw0/foundry/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed run lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates run execution, ensuring safe concurrent submissions.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.RunStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
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

// NewManager creates a new run Manager with the given persistence store.
func NewManager(store ports.RunStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(runID) after unlocking.
func (m *Manager) acquire(runID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[runID]
	if !exists {
		entry = &lockEntry{}
		m.locks[runID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[runID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, runID)
	}
}

// Run executes the alignment under runID; an empty runID gets a fresh UUID.
//
// If a finished record already exists for runID it is returned as is and the
// alignment is not executed again. Otherwise the returned record carries the
// final status, and the returned error is the run's own failure, if any.
// Store failures return a nil record.
func (m *Manager) Run(ctx context.Context, runner ports.AlignmentRunner, runID string, alignment *domain.Alignment) (*domain.RunRecord, error) {
	if runID == "" {
		runID = uuid.NewString()
	}

	var record *domain.RunRecord
	var runErr error
	err := m.WithLock(ctx, runID, func(ctx context.Context) error {
		existing, err := m.store.Load(ctx, runID)
		switch {
		case err == nil && existing.Finished():
			m.logger.DebugContext(ctx, "run already finished, returning stored record", "run_id", runID)
			record = existing
			if existing.Status == domain.RunFailed {
				runErr = errors.New(existing.Error)
			}
			return nil
		case err != nil && !errors.Is(err, domain.ErrRunNotFound):
			return fmt.Errorf("failed to check run existence: %w", err)
		}

		record = &domain.RunRecord{
			ID:          runID,
			Alignment:   alignment.Name,
			Instruction: alignment.Instruction,
			Status:      domain.RunRunning,
			StartedAt:   m.now(),
		}
		if err := m.store.Save(ctx, record); err != nil {
			return fmt.Errorf("failed to persist run start: %w", err)
		}

		result, err := runner.Run(ctx, alignment)
		record.FinishedAt = m.now()
		if err != nil {
			runErr = err
			record.Status = domain.RunFailed
			record.Error = err.Error()
			var exhausted *domain.ResourceExhaustionError
			if errors.As(err, &exhausted) {
				record.Steps = exhausted.Steps
			}
		} else {
			record.Status = domain.RunSucceeded
			record.Output = result.Output()
			record.Steps = result.Steps
		}

		// The run context may be expired by now; the final record must still land.
		if err := m.store.Save(context.WithoutCancel(ctx), record); err != nil {
			return fmt.Errorf("failed to persist run result: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, runErr
}

// Get retrieves a run record.
func (m *Manager) Get(ctx context.Context, runID string) (*domain.RunRecord, error) {
	return m.store.Load(ctx, runID)
}

// Delete removes the run from the store.
func (m *Manager) Delete(ctx context.Context, runID string) error {
	return m.WithLock(ctx, runID, func(ctx context.Context) error {
		return m.store.Delete(ctx, runID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying run store.
func (m *Manager) Store() ports.RunStore {
	return m.store
}

// WithLock executes a function while holding the lock for the run.
func (m *Manager) WithLock(ctx context.Context, runID string, fn func(context.Context) error) error {
	entry := m.acquire(runID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(runID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "run:"+runID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"run_id", runID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
