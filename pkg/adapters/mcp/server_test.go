package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/annotate"
	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/annotate/pkg/ports"
	"github.com/aretw0/annotate/pkg/registry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opts ...Option) (*Server, *annotate.Session) {
	t.Helper()
	sessions := registry.NewRegistry[ports.Controller]()
	s, err := annotate.New(context.Background(),
		annotate.WithID("s1"),
		annotate.WithRegistry(sessions),
		annotate.WithGuardTimings(50*time.Millisecond, 200*time.Millisecond),
		annotate.WithBundle(&domain.TaskBundle{
			Task:   domain.TaskInput{ID: "t1", Data: "text"},
			Config: "<View/>",
			Store: domain.StoreInput{
				Completions: []domain.CompletionInput{{ID: "c1", Result: []domain.Region{{ID: "r1", Label: "PER"}}}},
			},
		}),
	)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return NewServer(sessions, opts...), s
}

func request(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestServer_ListCommands(t *testing.T) {
	srv, _ := setup(t)

	res, err := srv.handleListCommands(context.Background(), request(map[string]any{"session_id": "s1"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var commands []ports.CommandInfo
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &commands))
	assert.NotEmpty(t, commands)

	var skip ports.CommandInfo
	for _, c := range commands {
		if c.Command == "skip" {
			skip = c
		}
	}
	assert.Equal(t, "ctrl+space", skip.Keys)
	assert.False(t, skip.Active)
}

func TestServer_UnknownSession(t *testing.T) {
	srv, _ := setup(t)

	res, err := srv.handleGetSession(context.Background(), request(map[string]any{"session_id": "nope"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	_, err = srv.handleExecute(context.Background(), request(nil), map[string]any{"command": "undo"})
	assert.Error(t, err, "no session_id and no default session")
}

func TestServer_DefaultSession(t *testing.T) {
	srv, _ := setup(t, WithDefaultSession("s1"))

	res, err := srv.handleGetSession(context.Background(), request(map[string]any{}))
	require.NoError(t, err)

	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &snap))
	assert.Equal(t, "s1", snap.SessionID)
	assert.Equal(t, "c1", snap.Selected)
}

func TestServer_ExecuteAndPressKeys(t *testing.T) {
	var changes int
	srv, s := setup(t, WithAfterChange(func(context.Context, ports.Controller) { changes++ }))
	ctx := context.Background()

	out, err := srv.handleExecute(ctx, request(nil), map[string]any{"session_id": "s1", "command": "delete-all-regions"})
	require.NoError(t, err)
	assert.True(t, out.Handled)
	assert.Empty(t, s.Snapshot().Annotations[0].Result)

	_, err = srv.handleExecute(ctx, request(nil), map[string]any{"session_id": "s1", "command": "fly"})
	assert.ErrorIs(t, err, domain.ErrUnknownCommand)

	out, err = srv.handlePressKeys(ctx, request(nil), map[string]any{"session_id": "s1", "keys": "ctrl+space"})
	require.NoError(t, err)
	assert.False(t, out.Handled, "skip is disabled without the capability")

	s.AddInterface(domain.CapabilitySkip)
	out, err = srv.handlePressKeys(ctx, request(nil), map[string]any{"session_id": "s1", "keys": "ctrl+space"})
	require.NoError(t, err)
	assert.True(t, out.Handled)
	assert.True(t, out.Flags.IsSubmitting)

	_, err = srv.handlePressKeys(ctx, request(nil), map[string]any{"session_id": "s1", "keys": " "})
	assert.Error(t, err)

	assert.Equal(t, 3, changes)
}

func TestServer_SetFlags(t *testing.T) {
	srv, s := setup(t)
	ctx := context.Background()

	out, err := srv.handleSetFlags(ctx, request(nil), map[string]any{
		"session_id": "s1",
		"flags":      `{"showingDescription": true, "config": "<View/>"}`,
	})
	require.NoError(t, err)
	assert.True(t, out.Flags.ShowingDescription)
	assert.Equal(t, []string{"config"}, out.Ignored)
	assert.True(t, s.Flags().ShowingDescription)

	out, err = srv.handleSetFlags(ctx, request(nil), map[string]any{
		"session_id": "s1",
		"flags":      map[string]any{"noAccess": true},
	})
	require.NoError(t, err)
	assert.Empty(t, out.Ignored)
	assert.True(t, s.Flags().NoAccess)

	_, err = srv.handleSetFlags(ctx, request(nil), map[string]any{"session_id": "s1", "flags": "{"})
	assert.Error(t, err)
	_, err = srv.handleSetFlags(ctx, request(nil), map[string]any{"session_id": "s1", "flags": `{"labeledSuccess": 1}`})
	assert.ErrorIs(t, err, domain.ErrInvalidFlag)
}
