package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/annotate/pkg/adapters/memory"
	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/annotate/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, memory.NewStore())
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	snap := &domain.Snapshot{Interfaces: []string{"submit"}}
	require.NoError(t, store.Save(ctx, "s1", snap))
	snap.Interfaces[0] = "mutated"

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"submit"}, loaded.Interfaces)
}
