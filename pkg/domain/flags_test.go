package domain_test

import (
	"testing"

	"github.com/aretw0/annotate/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagPatch_Apply(t *testing.T) {
	start := domain.Flags{IsLoading: true, ShowingSettings: true}

	got := domain.FlagPatch{IsLoading: domain.Bool(false), NoTask: domain.Bool(true)}.Apply(start)

	assert.Equal(t, domain.Flags{NoTask: true, ShowingSettings: true}, got)
	assert.True(t, start.IsLoading, "Apply must not mutate its input")
	assert.True(t, domain.FlagPatch{}.Empty())
	assert.False(t, domain.FlagPatch{NoAccess: domain.Bool(false)}.Empty())
}

func TestParseFlagPatch(t *testing.T) {
	t.Run("Known And Unknown Keys", func(t *testing.T) {
		patch, ignored, err := domain.ParseFlagPatch(map[string]any{
			"isSubmitting":       true,
			"showingDescription": false,
			"zeta":               1,
			"alpha":              "x",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha", "zeta"}, ignored)
		require.NotNil(t, patch.IsSubmitting)
		assert.True(t, *patch.IsSubmitting)
		require.NotNil(t, patch.ShowingDescription)
		assert.False(t, *patch.ShowingDescription)
		assert.Nil(t, patch.NoTask)
	})

	t.Run("Non Boolean Value", func(t *testing.T) {
		_, _, err := domain.ParseFlagPatch(map[string]any{"noTask": "true"})
		assert.ErrorIs(t, err, domain.ErrInvalidFlag)
	})

	t.Run("Every Name Is Recognized", func(t *testing.T) {
		values := map[string]any{}
		for _, name := range domain.FlagNames {
			values[name] = true
		}
		patch, ignored, err := domain.ParseFlagPatch(values)
		require.NoError(t, err)
		assert.Empty(t, ignored)

		all := patch.Apply(domain.Flags{}).Map()
		assert.Len(t, all, len(domain.FlagNames))
		for name, v := range all {
			assert.True(t, v, name)
		}
	})
}
