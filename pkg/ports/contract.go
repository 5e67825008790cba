package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/annotate/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore implementation
// adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	newSnapshot := func(id string) *domain.Snapshot {
		return &domain.Snapshot{
			SessionID:  id,
			Config:     "<View></View>",
			Task:       &domain.Task{ID: "42", Data: `{"text":"hello"}`},
			Interfaces: []string{domain.CapabilitySubmit, domain.CapabilitySkip},
			Flags:      domain.Flags{ShowingSettings: true},
			Selected:   "c1",
			Annotations: []domain.AnnotationRecord{
				{ID: "c1", Result: []domain.Region{{ID: "r1", Label: "PER"}}},
			},
			SavedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		snap := newSnapshot(sessionID)

		err := store.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.Config, loaded.Config)
		require.NotNil(t, loaded.Task)
		assert.Equal(t, `{"text":"hello"}`, loaded.Task.Data)
		assert.Equal(t, snap.Interfaces, loaded.Interfaces)
		assert.True(t, loaded.Flags.ShowingSettings)
		assert.Equal(t, "c1", loaded.Selected)
		require.Len(t, loaded.Annotations, 1)
		assert.Equal(t, "PER", loaded.Annotations[0].Result[0].Label)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, newSnapshot(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, newSnapshot(id1))
		_ = store.Save(ctx, id2, newSnapshot(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
