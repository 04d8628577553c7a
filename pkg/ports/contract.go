package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/foundry/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunRunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")

	newRecord := func(id string) *domain.RunRecord {
		return &domain.RunRecord{
			ID:          id,
			Alignment:   "cat",
			Instruction: "draw a cat",
			Status:      domain.RunRunning,
			StartedAt:   time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		record := newRecord(runID)
		record.Status = domain.RunSucceeded
		record.Steps = 3
		record.Output = map[string]any{"image": "sketch", "score": 42}

		require.NoError(t, store.Save(ctx, record), "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, record.ID, loaded.ID)
		assert.Equal(t, domain.RunSucceeded, loaded.Status)
		assert.Equal(t, 3, loaded.Steps)
		assert.Equal(t, "sketch", loaded.Output["image"])
		// JSON-backed stores turn numbers into float64.
		assert.NotNil(t, loaded.Output["score"])
		assert.True(t, record.StartedAt.Equal(loaded.StartedAt))
	})

	t.Run("Load returns a copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		loaded.Output["image"] = "tampered"

		again, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, "sketch", again.Output["image"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newRecord(runID)))

		require.NoError(t, store.Delete(ctx, runID), "Delete should not return error")

		_, err := store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		require.NoError(t, store.Save(ctx, newRecord(id1)))
		require.NoError(t, store.Save(ctx, newRecord(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}

// RunAlignmentLoaderContract verifies that an AlignmentLoader serves exactly the
// given raw documents.
func RunAlignmentLoaderContract(t *testing.T, loader AlignmentLoader, expected map[string][]byte) {
	t.Helper()

	t.Run("GetAlignment", func(t *testing.T) {
		for id, want := range expected {
			got, err := loader.GetAlignment(id)
			require.NoError(t, err, "alignment %s", id)
			assert.Equal(t, string(want), string(got))
		}
	})

	t.Run("GetAlignment Not Found", func(t *testing.T) {
		_, err := loader.GetAlignment("non-existent-alignment")
		assert.ErrorIs(t, err, domain.ErrAlignmentNotFound)
	})

	t.Run("ListAlignments", func(t *testing.T) {
		ids, err := loader.ListAlignments()
		require.NoError(t, err)
		assert.Len(t, ids, len(expected))
		assert.IsIncreasing(t, ids)
		for id := range expected {
			assert.Contains(t, ids, id)
		}
	})
}
