package registry_test

import (
	"testing"

	"github.com/aretw0/annotate/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := registry.NewRegistry[int]()

	r.Register("b", 2)
	r.Register("a", 1)
	r.Register("a", 10)

	v, ok := r.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)
	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.Equal(t, 2, r.Len())

	r.Unregister("a")
	r.Unregister("missing")
	_, ok = r.Lookup("a")
	assert.False(t, ok)

	_, err := r.MustLookup("a")
	assert.ErrorContains(t, err, "not registered: a")
}
