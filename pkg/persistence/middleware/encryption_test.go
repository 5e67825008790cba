package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"
	"testing"

	"github.com/aretw0/annotate/pkg/adapters/memory"
	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/annotate/pkg/persistence/middleware"
	"github.com/aretw0/annotate/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func secretSnapshot(secret string) *domain.Snapshot {
	return &domain.Snapshot{
		SessionID: "test-session",
		Config:    "<View/>",
		Task:      &domain.Task{ID: "t1", Data: secret},
	}
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunSnapshotStoreContract(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := NewMockStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secureStore := mw(underlyingStore)
	ctx := context.Background()

	require.NoError(t, secureStore.Save(ctx, "test-session", secretSnapshot("my-secret-sauce")))

	stored, err := underlyingStore.Load(ctx, "test-session")
	require.NoError(t, err)
	assert.Nil(t, stored.Task, "the task must not be stored in clear")
	assert.Empty(t, stored.Config)
	assert.NotEmpty(t, stored.Sealed)
	assert.Equal(t, "test-session", stored.SessionID)

	loaded, err := secureStore.Load(ctx, "test-session")
	require.NoError(t, err)
	assert.Equal(t, "my-secret-sauce", loaded.Task.Data)
	assert.Empty(t, loaded.Sealed)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()
	sessionID := "rotation-session"

	secureStoreOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)
	require.NoError(t, secureStoreOld.Save(ctx, sessionID, secretSnapshot("encrypted-with-old-key")))

	secureStoreNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, sessionID)
	require.NoError(t, err, "fallback keys decrypt older snapshots")
	assert.Equal(t, "encrypted-with-old-key", loaded.Task.Data)

	loaded.Task.Data = "encrypted-with-new-key"
	require.NoError(t, secureStoreNew.Save(ctx, sessionID, loaded))

	_, err = secureStoreOld.Load(ctx, sessionID)
	assert.Error(t, err, "the old key alone cannot read snapshots sealed with the new key")
}

func TestEncryptionMiddleware_RejectsPlainSnapshots(t *testing.T) {
	underlyingStore := NewMockStore()
	ctx := context.Background()
	require.NoError(t, underlyingStore.Save(ctx, "plain", secretSnapshot("visible")))

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	_, err := secureStore.Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)

	got, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	got, err = middleware.ParseKey(hex.EncodeToString(key))
	require.NoError(t, err)
	assert.Equal(t, key, got)

	_, err = middleware.ParseKey("too-short")
	assert.Error(t, err)
}
