package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/annotate/internal/logging"
	"github.com/aretw0/annotate/pkg/adapters/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServe_DrivesSessionsOverHTTP(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan http.Handler, 1)
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ServeOptions{Config: cfg, Ready: func(h http.Handler) { ready <- h }})
	}()

	var h http.Handler
	select {
	case h = <-ready:
	case err := <-done:
		t.Fatalf("serve returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not become ready")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "task-ner-1")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/task-ner-1/commands/save-draft", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sessions/task-ner-1/commands/submit", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var res map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, true, res["handled"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}

	results, err := sqlite.Open(cfg.Bridge.SQLitePath)
	require.NoError(t, err)
	defer results.Close()
	counts, err := results.Counts(context.Background(), "ner-1")
	require.NoError(t, err)
	assert.Equal(t, 1, counts[sqlite.KindSubmit])
	assert.Equal(t, 1, counts[sqlite.KindDraft])

	p, err := OpenPersistence(cfg, logging.NewNop())
	require.NoError(t, err)
	defer p.Close()
	ids, err := p.Manager.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"task-ner-1"}, ids)
}

func TestServe_UnknownTask(t *testing.T) {
	cfg := testConfig(t)
	err := Serve(context.Background(), ServeOptions{TaskIDs: []string{"missing"}, Config: cfg})
	assert.Error(t, err)
}
