package loam_test

import (
	"context"
	"testing"

	"github.com/aretw0/annotate/internal/testutils"
	"github.com/aretw0/annotate/pkg/adapters/loam"
	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/annotate/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.TaskSource = (*loam.Source)(nil)

func TestSource_LoadTask(t *testing.T) {
	dir := testutils.WriteTaskDir(t, map[string]string{"ner-1.md": testutils.NERTask})
	src, err := loam.Open(dir)
	require.NoError(t, err)

	bundle, err := src.LoadTask(context.Background(), "ner-1")
	require.NoError(t, err)

	assert.Equal(t, "ner-1", bundle.Task.ID)
	assert.Equal(t, "p1", bundle.Task.ProjectID)
	assert.Contains(t, bundle.Config, "<View>")
	assert.Equal(t, []string{"submit", "skip", "controls"}, bundle.Interfaces)
	assert.Equal(t, "Tag every **person** and **location** in the sentence.", bundle.Description)

	require.NotNil(t, bundle.Project)
	assert.Equal(t, "People", bundle.Project.Title)

	require.Len(t, bundle.Store.Completions, 1)
	c := bundle.Store.Completions[0]
	assert.Equal(t, "c1", c.ID)
	require.Len(t, c.Result, 1)
	assert.Equal(t, "PER", c.Result[0].Label)
	assert.Len(t, c.Draft, 2)

	require.Len(t, bundle.Store.Predictions, 1)
	assert.Equal(t, "v2", bundle.Store.Predictions[0].Model)

	data, err := domain.NormalizeTaskData(bundle.Task.Data)
	require.NoError(t, err)
	assert.Contains(t, data, "Barack Obama")
}

func TestSource_LoadTask_AcceptsExtension(t *testing.T) {
	dir := testutils.WriteTaskDir(t, map[string]string{"ner-1.md": testutils.NERTask})
	src, err := loam.Open(dir)
	require.NoError(t, err)

	bundle, err := src.LoadTask(context.Background(), "ner-1.md")
	require.NoError(t, err)
	assert.Equal(t, "ner-1", bundle.Task.ID)
}

func TestSource_LoadTask_NotFound(t *testing.T) {
	dir := testutils.WriteTaskDir(t, map[string]string{"ner-1.md": testutils.NERTask})
	src, err := loam.Open(dir)
	require.NoError(t, err)

	_, err = src.LoadTask(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestSource_ListTasks(t *testing.T) {
	dir := testutils.WriteTaskDir(t, map[string]string{
		"ner-1.md":    testutils.NERTask,
		"plain.json":  `{"data": "just text", "config": "<View/>"}`,
		"implicit.md": "---\ndata: hello\n---\n",
	})
	src, err := loam.Open(dir)
	require.NoError(t, err)

	ids, err := src.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"implicit", "ner-1", "plain"}, ids)
}

func TestSource_ListTasks_DetectsCollisions(t *testing.T) {
	dir := testutils.WriteTaskDir(t, map[string]string{
		"foo.md":   "---\nid: foo\ndata: a\n---\n",
		"foo.json": `{"id": "foo", "data": "b"}`,
	})
	src, err := loam.Open(dir)
	require.NoError(t, err)

	_, err = src.ListTasks(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
}
