package run

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/foundry/pkg/domain"
)

// nopStore structure
type nopStore struct{}

func (nopStore) Save(ctx context.Context, record *domain.RunRecord) error { return nil }
func (nopStore) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	return nil, domain.ErrRunNotFound
}
func (nopStore) Delete(ctx context.Context, runID string) error { return nil }
func (nopStore) List(ctx context.Context) ([]string, error)     { return nil, nil }

type nopRunner struct{}

func (nopRunner) Run(ctx context.Context, a *domain.Alignment) (*domain.Result, error) {
	return &domain.Result{}, nil
}

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nopStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		id := fmt.Sprintf("run-%d", i)
		_, _ = mgr.Run(ctx, nopRunner{}, id, &domain.Alignment{})
		_ = mgr.Delete(ctx, id)
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
