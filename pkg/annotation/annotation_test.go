package annotation_test

import (
	"testing"

	"github.com/aretw0/annotate/pkg/annotation"
	"github.com/aretw0/annotate/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnnotation(t *testing.T, labels ...string) *annotation.Annotation {
	t.Helper()
	a := annotation.NewCollection().Create()
	for _, l := range labels {
		a.AddRegion(domain.Region{ID: l, Label: l})
	}
	a.ReinitHistory()
	return a
}

func TestAnnotation_SelectNextWraps(t *testing.T) {
	a := newAnnotation(t, "a", "b", "c")
	a.UnselectAll()
	require.Nil(t, a.HighlightedNode())

	var seen []string
	for i := 0; i < 4; i++ {
		a.SelectNext()
		seen = append(seen, a.HighlightedNode().ID())
	}
	assert.Equal(t, []string{"a", "b", "c", "a"}, seen)
}

func TestAnnotation_SelectNextEmptyIsNoop(t *testing.T) {
	a := newAnnotation(t)
	a.SelectNext()
	assert.Nil(t, a.HighlightedNode())
}

func TestAnnotation_DeleteRegion(t *testing.T) {
	a := newAnnotation(t, "a", "b")
	a.Highlight("b")
	a.HighlightedNode().DeleteRegion()

	assert.Equal(t, 1, a.Len())
	assert.Nil(t, a.HighlightedNode(), "deleting the highlighted region clears the highlight")
	assert.Nil(t, a.Region("b"))
}

func TestAnnotation_RelationMode(t *testing.T) {
	a := newAnnotation(t, "a", "b")
	a.Highlight("a")
	a.StartRelationMode(a.HighlightedNode())
	assert.True(t, a.RelationMode())

	assert.True(t, a.CompleteRelation("b"))
	assert.False(t, a.RelationMode())
	assert.Equal(t, []annotation.Relation{{From: "a", To: "b"}}, a.Relations())

	a.Region("b").DeleteRegion()
	assert.Empty(t, a.Relations(), "relations touching a deleted region are dropped")
}

func TestAnnotation_ToggleHidden(t *testing.T) {
	a := newAnnotation(t, "a")
	r := a.Region("a")
	r.ToggleHidden()
	assert.True(t, r.Hidden())
	r.ToggleHidden()
	assert.False(t, r.Hidden())
}

func TestAnnotation_UndoRedo(t *testing.T) {
	a := newAnnotation(t, "a", "b")
	h := a.History()
	assert.False(t, h.CanUndo())

	a.DeleteAllRegions()
	assert.Equal(t, 0, a.Len())
	require.True(t, h.CanUndo())

	h.Undo()
	assert.Equal(t, 2, a.Len())
	require.True(t, h.CanRedo())

	h.Redo()
	assert.Equal(t, 0, a.Len())
	assert.False(t, h.CanRedo())
}

func TestAnnotation_DraftLifecycle(t *testing.T) {
	a := newAnnotation(t, "a")
	draft := a.SaveDraft()
	assert.Len(t, draft, 1)

	a.DropDraft()
	assert.Nil(t, a.Draft())
}

func TestAnnotation_BeforeSendClearsPendingEdits(t *testing.T) {
	a := newAnnotation(t, "a")
	a.Highlight("a")
	a.StartRelationMode(a.HighlightedNode())

	a.BeforeSend()
	assert.False(t, a.RelationMode())
	assert.Nil(t, a.HighlightedNode())
}
