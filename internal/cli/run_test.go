package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/annotate/internal/config"
	"github.com/aretw0/annotate/internal/logging"
	"github.com/aretw0/annotate/internal/testutils"
	"github.com/aretw0/annotate/pkg/adapters/sqlite"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	tasks := testutils.WriteTaskDir(t, map[string]string{"ner-1.md": testutils.NERTask})
	work := t.TempDir()
	return config.Config{
		Log:   config.LogConfig{Level: "error"},
		Guard: config.GuardConfig{MaxHold: 2 * time.Second, LatePolicy: "notify"},
		Store: config.StoreConfig{
			Backend: config.BackendFile,
			Dir:     filepath.Join(work, "sessions"),
		},
		Bridge: config.BridgeConfig{SQLitePath: filepath.Join(work, "db", "results.db")},
		Tasks:  config.TasksConfig{Dir: tasks},
		HTTP:   config.HTTPConfig{Addr: ":0"},
	}
}

func runLines(t *testing.T, cfg config.Config, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	err := Run(context.Background(), RunOptions{
		TaskID: "ner-1",
		Quiet:  true,
		Config: cfg,
		In:     strings.NewReader(strings.Join(lines, "\n") + "\n"),
		Out:    &out,
		Color:  []termenv.OutputOption{termenv.WithProfile(termenv.Ascii)},
	})
	require.NoError(t, err)
	return out.String()
}

func TestRun_SubmitRecordsAndPersists(t *testing.T) {
	cfg := testConfig(t)

	out := runLines(t, cfg, ":submit", "q")
	assert.NotContains(t, out, "[error]")

	results, err := sqlite.Open(cfg.Bridge.SQLitePath)
	require.NoError(t, err)
	defer results.Close()
	counts, err := results.Counts(context.Background(), "ner-1")
	require.NoError(t, err)
	assert.Equal(t, 1, counts[sqlite.KindLoad])
	assert.Equal(t, 1, counts[sqlite.KindSubmit])

	p, err := OpenPersistence(cfg, logging.NewNop())
	require.NoError(t, err)
	defer p.Close()
	snap, err := p.Manager.Load(context.Background(), "task-ner-1")
	require.NoError(t, err)
	assert.Equal(t, "ner-1", snap.Task.ID)
	assert.False(t, snap.Flags.IsSubmitting)
}

func TestRun_CtrlSRecordsDraft(t *testing.T) {
	cfg := testConfig(t)

	out := runLines(t, cfg, "ctrl+s", "q")
	assert.NotContains(t, out, "Failed")

	results, err := sqlite.Open(cfg.Bridge.SQLitePath)
	require.NoError(t, err)
	defer results.Close()
	counts, err := results.Counts(context.Background(), "ner-1")
	require.NoError(t, err)
	assert.Equal(t, 1, counts[sqlite.KindDraft])
	assert.Zero(t, counts[sqlite.KindSubmit])

	p, err := OpenPersistence(cfg, logging.NewNop())
	require.NoError(t, err)
	defer p.Close()
	snap, err := p.Manager.Load(context.Background(), "task-ner-1")
	require.NoError(t, err)
	for _, rec := range snap.Annotations {
		if rec.ID == "c1" {
			assert.Equal(t, rec.Result, rec.Draft)
		}
	}
}

func TestRun_ResumesStoredSession(t *testing.T) {
	cfg := testConfig(t)
	runLines(t, cfg, "q")

	var out bytes.Buffer
	err := Run(context.Background(), RunOptions{
		TaskID: "ner-1",
		Config: cfg,
		In:     strings.NewReader("q\n"),
		Out:    &out,
		Color:  []termenv.OutputOption{termenv.WithProfile(termenv.Ascii)},
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Resuming session 'task-ner-1'.")
	assert.Contains(t, out.String(), "Session 'task-ner-1' saved.")
}

func TestRun_UnknownInput(t *testing.T) {
	cfg := testConfig(t)

	out := runLines(t, cfg, ":submt", "x", ":update", "q")
	assert.Contains(t, out, `Unknown command "submt", did you mean submit?`)
	assert.Contains(t, out, "No command bound to x")
	assert.Contains(t, out, "update is not available right now", "the task does not enable update")
}

func TestRun_MissingTask(t *testing.T) {
	cfg := testConfig(t)
	err := Run(context.Background(), RunOptions{
		TaskID: "nope",
		Quiet:  true,
		Config: cfg,
		In:     strings.NewReader(""),
		Out:    &bytes.Buffer{},
	})
	assert.Error(t, err)
}

func TestDefaultKeys(t *testing.T) {
	keys := DefaultKeys()
	require.NotEmpty(t, keys)
	found := false
	for _, k := range keys {
		if k.Keys == "ctrl+enter" {
			found = true
			assert.Equal(t, "Submit a task", k.Description)
		}
	}
	assert.True(t, found)
}
