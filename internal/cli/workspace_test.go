package cli

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/annotate/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspace_OpenSessionStoresInitialSnapshot(t *testing.T) {
	ctx := context.Background()
	w, err := OpenWorkspace(testConfig(t), logging.NewNop())
	require.NoError(t, err)
	defer w.Close()

	s, resumed, err := w.OpenSession(ctx, "ner-1", "", false)
	require.NoError(t, err)
	assert.False(t, resumed)
	assert.Equal(t, "task-ner-1", s.ID())

	snap, err := w.Persistence.Manager.Load(ctx, "task-ner-1")
	require.NoError(t, err)
	assert.Equal(t, "task-ner-1", snap.SessionID)
	require.NotNil(t, snap.Task)
	assert.Equal(t, "ner-1", snap.Task.ID)
	assert.NotEmpty(t, snap.Annotations)

	_, resumed, err = w.OpenSession(ctx, "ner-1", "", false)
	require.NoError(t, err)
	assert.True(t, resumed)

	_, resumed, err = w.OpenSession(ctx, "ner-1", "", true)
	require.NoError(t, err)
	assert.False(t, resumed)
}

func TestWorkspace_ConcurrentOpenCreatesOnce(t *testing.T) {
	ctx := context.Background()
	w, err := OpenWorkspace(testConfig(t), logging.NewNop())
	require.NoError(t, err)
	defer w.Close()

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, resumed, err := w.OpenSession(ctx, "ner-1", "shared", false)
			if !assert.NoError(t, err) {
				return
			}
			if !resumed {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}
