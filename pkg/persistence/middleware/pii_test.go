package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/annotate/pkg/adapters/memory"
	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/annotate/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlyingStore := NewMockStore()
	secureStore := middleware.NewPIIMiddleware([]string{"email", "ssn"})(underlyingStore)
	ctx := context.Background()

	snap := &domain.Snapshot{
		SessionID: "pii-session",
		Annotations: []domain.AnnotationRecord{{
			ID: "c1",
			Result: []domain.Region{{
				ID:    "r1",
				Label: "person",
				Value: map[string]any{
					"text":  "John",
					"email": "john@example.com",
					"meta":  map[string]any{"ssn_number": "999-99-9999", "city": "Recife"},
				},
			}},
			Draft: []domain.Region{{ID: "r1", Value: map[string]any{"user_email": "x@y.z"}}},
		}},
	}

	require.NoError(t, secureStore.Save(ctx, "pii-session", snap))

	original := snap.Annotations[0].Result[0].Value
	assert.Equal(t, "john@example.com", original["email"], "the in-memory snapshot must not be modified")

	stored, err := underlyingStore.Load(ctx, "pii-session")
	require.NoError(t, err)

	value := stored.Annotations[0].Result[0].Value
	assert.Equal(t, "John", value["text"])
	assert.Equal(t, middleware.Mask, value["email"])
	meta := value["meta"].(map[string]any)
	assert.Equal(t, middleware.Mask, meta["ssn_number"])
	assert.Equal(t, "Recife", meta["city"])
	assert.Equal(t, middleware.Mask, stored.Annotations[0].Draft[0].Value["user_email"])
}

func TestChain_MaskThenEncrypt(t *testing.T) {
	inner := memory.NewStore()
	store := middleware.Chain(inner,
		middleware.NewPIIMiddleware([]string{"email"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)}),
	)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", &domain.Snapshot{
		SessionID:   "s1",
		Annotations: []domain.AnnotationRecord{{ID: "c1", Result: []domain.Region{{ID: "r1", Value: map[string]any{"email": "a@b.c"}}}}},
	}))

	raw, err := inner.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Annotations[0].Result[0].Value["email"])
}
