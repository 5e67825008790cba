package session_test

import (
	"testing"

	"github.com/aretw0/annotate/pkg/annotation"
	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/annotate/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_SetFlags(t *testing.T) {
	s := session.NewState()

	s.SetFlags(domain.FlagPatch{IsLoading: domain.Bool(true), NoTask: domain.Bool(true)})
	s.SetFlags(domain.FlagPatch{NoTask: domain.Bool(false)})

	f := s.Flags()
	assert.True(t, f.IsLoading)
	assert.False(t, f.NoTask)
	assert.False(t, f.IsSubmitting)
}

func TestState_SetFlagsFromMap(t *testing.T) {
	s := session.NewState()

	ignored, err := s.SetFlagsFromMap(map[string]any{
		domain.FlagLabeledSuccess: true,
		"task":                    "hijack",
		"config":                  "<View/>",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"config", "task"}, ignored)
	assert.True(t, s.Flags().LabeledSuccess)
	assert.Nil(t, s.Task(), "only the seven flags are writable")
	assert.Empty(t, s.Config())

	_, err = s.SetFlagsFromMap(map[string]any{
		domain.FlagNoAccess:     "yes",
		domain.FlagIsSubmitting: true,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidFlag)
	assert.False(t, s.Flags().IsSubmitting, "a bad value rejects the whole patch")
}

func TestState_Toggles(t *testing.T) {
	s := session.NewState()
	s.ToggleSettings()
	s.ToggleDescription()
	s.ToggleDescription()
	assert.True(t, s.Flags().ShowingSettings)
	assert.False(t, s.Flags().ShowingDescription)
}

func TestState_Interfaces(t *testing.T) {
	s := session.NewState(session.WithInterfaces(domain.CapabilitySubmit))

	assert.True(t, s.HasInterface(domain.CapabilitySubmit))
	assert.False(t, s.HasInterface(domain.CapabilitySkip))

	s.AddInterface(domain.CapabilitySkip)
	s.AddInterface(domain.CapabilitySkip)
	assert.True(t, s.HasInterface(domain.CapabilitySkip))
	assert.Equal(t, []string{"submit", "skip", "skip"}, s.Interfaces())
}

func TestState_AssignTask(t *testing.T) {
	s := session.NewState()

	require.NoError(t, s.AssignTask(domain.TaskInput{ID: "1", Data: map[string]any{"a": 1}}))
	assert.Equal(t, `{"a":1}`, s.Task().Data)

	require.NoError(t, s.AssignTask(domain.TaskInput{ID: "2", Data: "raw"}))
	assert.Equal(t, "raw", s.Task().Data)
	assert.Equal(t, "2", s.Task().ID)

	err := s.AssignTask(domain.TaskInput{ID: "3", Data: func() {}})
	assert.Error(t, err)
	assert.Equal(t, "2", s.Task().ID, "failed assignment keeps the previous task")
}

func TestState_AssignConfig(t *testing.T) {
	s := session.NewState()
	require.NoError(t, s.AssignConfig("<View><Text name=\"t\"/></View>"))
	assert.Equal(t, "<View><Text name=\"t\"/></View>", s.Config())

	assert.Error(t, s.AssignConfig("<View>"))
}

func TestState_InitializeStore(t *testing.T) {
	s := session.NewState()
	require.NoError(t, s.AssignConfig("<View/>"))

	err := s.InitializeStore(domain.StoreInput{
		Predictions: []domain.PredictionInput{
			{ID: "p1", Result: []domain.Region{{ID: "r1", Label: "cat"}}},
		},
		Completions: []domain.CompletionInput{
			{ID: "c1", Result: []domain.Region{{ID: "r1", Label: "cat"}}},
			{
				ID:     "c2",
				Result: []domain.Region{{ID: "r1", Label: "cat"}},
				Draft:  []domain.Region{{ID: "r1", Label: "dog"}, {ID: "r2", Label: "dog"}},
			},
		},
	})
	require.NoError(t, err)

	sel := s.Annotations().Selected()
	require.NotNil(t, sel)
	assert.Equal(t, "c2", sel.ID())
	assert.False(t, sel.History().CanUndo(), "history starts clean after loading")

	c := s.Annotations().(*annotation.Collection)
	assert.Equal(t, 2, c.Current().Len(), "the draft wins over the result")
	assert.Len(t, c.Predictions(), 1)
}

func TestState_ResetState(t *testing.T) {
	s := session.NewState()
	require.NoError(t, s.InitializeStore(domain.StoreInput{
		Completions: []domain.CompletionInput{{ID: "c1"}},
	}))
	old := s.Annotations()
	require.NotNil(t, old.Selected())

	s.ResetState()

	assert.NotSame(t, old, s.Annotations())
	assert.Nil(t, s.Annotations().Selected())
	assert.Empty(t, s.Annotations().(*annotation.Collection).Records())
}

func TestState_SnapshotRestore(t *testing.T) {
	s := session.NewState(session.WithID("s1"), session.WithInterfaces(domain.CapabilitySubmit))
	require.NoError(t, s.AssignConfig("<View/>"))
	require.NoError(t, s.AssignTask(domain.TaskInput{ID: "t1", Data: "hello"}))
	s.SetDescription("label the greeting")
	require.NoError(t, s.InitializeStore(domain.StoreInput{
		Predictions: []domain.PredictionInput{{ID: "p1", Result: []domain.Region{{ID: "r1", Label: "x"}}}},
		Completions: []domain.CompletionInput{{ID: "c1", Result: []domain.Region{{ID: "r1", Label: "y"}}}},
	}))
	s.Annotations().Selected().SendUserGenerate()
	s.SetFlags(domain.FlagPatch{IsSubmitting: domain.Bool(true), ShowingSettings: domain.Bool(true)})

	snap := s.Snapshot()
	assert.Equal(t, "s1", snap.SessionID)
	assert.Equal(t, "c1", snap.Selected)
	assert.Len(t, snap.Annotations, 2)

	restored := session.NewState()
	require.NoError(t, restored.Restore(&snap))

	assert.Equal(t, "s1", restored.ID())
	assert.Equal(t, "hello", restored.Task().Data)
	assert.Equal(t, "label the greeting", restored.Description())
	assert.True(t, restored.HasInterface(domain.CapabilitySubmit))
	assert.True(t, restored.Flags().ShowingSettings)
	assert.False(t, restored.Flags().IsSubmitting, "an in-flight guard never survives a restore")

	sel := restored.Annotations().Selected()
	require.NotNil(t, sel)
	assert.Equal(t, "c1", sel.ID())
	assert.True(t, sel.SentUserGenerate())
}

func TestState_RestoreLoadsResultNotDraft(t *testing.T) {
	s := session.NewState(session.WithID("s1"))
	require.NoError(t, s.AssignTask(domain.TaskInput{ID: "t1", Data: "hello"}))
	a := s.Annotations().(*annotation.Collection).Create()
	a.AddRegion(domain.Region{ID: "r1"})
	a.SaveDraft()
	a.AddRegion(domain.Region{ID: "r2"})
	a.SendUserGenerate()

	snap := s.Snapshot()
	restored := session.NewState()
	require.NoError(t, restored.Restore(&snap))

	cur := restored.Annotations().(*annotation.Collection).Current()
	require.NotNil(t, cur)
	assert.Equal(t, 2, cur.Len())
	assert.Len(t, cur.Draft(), 1)
	assert.True(t, cur.SentUserGenerate())
}
