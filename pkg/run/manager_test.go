package run_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/foundry/pkg/adapters/memory"
	"github.com/aretw0/foundry/pkg/domain"
	"github.com/aretw0/foundry/pkg/ports"
	"github.com/aretw0/foundry/pkg/run"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRunner simulates latency to provoke race conditions if locking is missing.
type countingRunner struct {
	calls  atomic.Int32
	err    error
	output map[string]any
}

func (r *countingRunner) Run(ctx context.Context, a *domain.Alignment) (*domain.Result, error) {
	r.calls.Add(1)
	time.Sleep(10 * time.Millisecond) // Simulate apparatus IO
	if r.err != nil {
		return nil, r.err
	}
	return &domain.Result{Medium: domain.NewMedium(r.output), Steps: 3}, nil
}

// recordingStore remembers every status it was asked to save.
type recordingStore struct {
	*memory.Store
	mu       sync.Mutex
	statuses []domain.RunStatus
}

func (s *recordingStore) Save(ctx context.Context, r *domain.RunRecord) error {
	s.mu.Lock()
	s.statuses = append(s.statuses, r.Status)
	s.mu.Unlock()
	return s.Store.Save(ctx, r)
}

var cat = &domain.Alignment{Name: "cat", Instruction: "draw a cat"}

func TestManager_RunPersistsLifecycle(t *testing.T) {
	store := &recordingStore{Store: memory.NewStore()}
	manager := run.NewManager(store)
	runner := &countingRunner{output: map[string]any{"image": "sketch"}}

	record, err := manager.Run(context.Background(), runner, "run-1", cat)
	require.NoError(t, err)

	assert.Equal(t, "run-1", record.ID)
	assert.Equal(t, "cat", record.Alignment)
	assert.Equal(t, "draw a cat", record.Instruction)
	assert.Equal(t, domain.RunSucceeded, record.Status)
	assert.Equal(t, 3, record.Steps)
	assert.Equal(t, "sketch", record.Output["image"])
	assert.False(t, record.FinishedAt.Before(record.StartedAt))
	assert.Equal(t, []domain.RunStatus{domain.RunRunning, domain.RunSucceeded}, store.statuses)

	stored, err := manager.Get(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, record, stored)
}

func TestManager_RunFailure(t *testing.T) {
	boom := &domain.ApparatusError{Stage: domain.StageProcess, Opcode: "gen", Err: errors.New("boom")}
	manager := run.NewManager(memory.NewStore())

	record, err := manager.Run(context.Background(), &countingRunner{err: boom}, "run-2", cat)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrApparatus)

	require.NotNil(t, record)
	assert.Equal(t, domain.RunFailed, record.Status)
	assert.Equal(t, boom.Error(), record.Error)
	assert.Nil(t, record.Output)
}

func TestManager_GeneratesID(t *testing.T) {
	manager := run.NewManager(memory.NewStore())

	record, err := manager.Run(context.Background(), &countingRunner{}, "", cat)
	require.NoError(t, err)
	assert.Len(t, record.ID, 36)

	ids, err := manager.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{record.ID}, ids)
}

func TestManager_IdempotentRunID(t *testing.T) {
	manager := run.NewManager(memory.NewStore())
	runner := &countingRunner{output: map[string]any{"n": 1}}
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record, err := manager.Run(ctx, runner, "same-id", cat)
			assert.NoError(t, err)
			assert.Equal(t, domain.RunSucceeded, record.Status)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), runner.calls.Load())
}

func TestManager_StoredFailureIsReplayed(t *testing.T) {
	manager := run.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := manager.Run(ctx, &countingRunner{err: errors.New("model offline")}, "r", cat)
	require.Error(t, err)

	runner := &countingRunner{}
	record, err := manager.Run(ctx, runner, "r", cat)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model offline")
	assert.Equal(t, domain.RunFailed, record.Status)
	assert.Zero(t, runner.calls.Load())
}

func TestManager_Delete(t *testing.T) {
	manager := run.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := manager.Run(ctx, &countingRunner{}, "gone", cat)
	require.NoError(t, err)
	require.NoError(t, manager.Delete(ctx, "gone"))

	_, err = manager.Get(ctx, "gone")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}

type fakeLocker struct {
	mu       sync.Mutex
	keys     []string
	released int
	err      error
}

func (l *fakeLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return func(ctx context.Context) error {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &fakeLocker{}
	manager := run.NewManager(memory.NewStore(), run.WithLocker(locker), run.WithLockTTL(time.Second))

	_, err := manager.Run(context.Background(), &countingRunner{}, "locked", cat)
	require.NoError(t, err)
	assert.Equal(t, []string{"run:locked"}, locker.keys)
	assert.Equal(t, 1, locker.released)

	failing := run.NewManager(memory.NewStore(), run.WithLocker(&fakeLocker{err: errors.New("redis down")}))
	runner := &countingRunner{}
	record, err := failing.Run(context.Background(), runner, "x", cat)
	assert.Nil(t, record)
	assert.ErrorContains(t, err, "distributed lock")
	assert.Zero(t, runner.calls.Load())
}

func TestManager_RunExhaustionKeepsSteps(t *testing.T) {
	store := memory.NewStore()
	manager := run.NewManager(store)
	runner := &countingRunner{err: fmt.Errorf("retry loop: %w", &domain.ResourceExhaustionError{Limit: 5, Steps: 5, Opcode: "gen"})}

	record, err := manager.Run(context.Background(), runner, "run-budget", cat)
	assert.ErrorIs(t, err, domain.ErrResourceExhausted)
	require.NotNil(t, record)
	assert.Equal(t, domain.RunFailed, record.Status)
	assert.Equal(t, 5, record.Steps)

	stored, err := store.Load(context.Background(), "run-budget")
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Steps)
}
