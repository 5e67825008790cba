// Package mcp exposes live annotation sessions as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/annotate"
	"github.com/aretw0/annotate/internal/logging"
	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/annotate/pkg/ports"
	"github.com/aretw0/annotate/pkg/registry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// CommandResult is the structured output of execute_command and press_keys.
type CommandResult struct {
	SessionID string       `json:"session_id" jsonschema_description:"The session the command ran on"`
	Command   string       `json:"command,omitempty" jsonschema_description:"The command name, when run by name"`
	Keys      string       `json:"keys,omitempty" jsonschema_description:"The key combination, when run by keys"`
	Handled   bool         `json:"handled" jsonschema_description:"Whether a command handled the request"`
	Flags     domain.Flags `json:"flags" jsonschema_description:"Session flags after the command"`
}

// FlagsResult is the structured output of set_flags.
type FlagsResult struct {
	SessionID string       `json:"session_id"`
	Flags     domain.Flags `json:"flags"`
	Ignored   []string     `json:"ignored" jsonschema_description:"Keys that are not flags and were left alone"`
}

// Server exposes the sessions of a registry as MCP tools.
type Server struct {
	sessions       *registry.Registry[ports.Controller]
	defaultSession string
	afterChange    func(ctx context.Context, c ports.Controller)
	logger         *slog.Logger
	mcpServer      *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithDefaultSession makes session_id optional: tools without one target id.
func WithDefaultSession(id string) Option {
	return func(s *Server) {
		s.defaultSession = id
	}
}

// WithAfterChange registers a callback run after every tool call that may have changed a session.
func WithAfterChange(fn func(ctx context.Context, c ports.Controller)) Option {
	return func(s *Server) {
		s.afterChange = fn
	}
}

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(sessions *registry.Registry[ports.Controller], opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("annotate-mcp", strings.TrimSpace(annotate.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	sessionParam := mcp.WithString("session_id", mcp.Description("Target session (optional when the server has a default session)"))

	s.mcpServer.AddTool(mcp.NewTool("list_commands",
		mcp.WithDescription("List the commands of a session with their keys and whether they are currently available."),
		sessionParam,
	), s.handleListCommands)

	s.mcpServer.AddTool(mcp.NewTool("execute_command",
		mcp.WithDescription("Run a command by name, e.g. submit, skip, save-draft or undo."),
		sessionParam,
		mcp.WithString("command", mcp.Required(), mcp.Description("Command name as returned by list_commands")),
		mcp.WithOutputSchema[CommandResult](),
	), mcp.NewStructuredToolHandler(s.handleExecute))

	s.mcpServer.AddTool(mcp.NewTool("press_keys",
		mcp.WithDescription("Press a key combination, e.g. ctrl+enter, as if typed on the keyboard."),
		sessionParam,
		mcp.WithString("keys", mcp.Required(), mcp.Description("Key combination")),
		mcp.WithOutputSchema[CommandResult](),
	), mcp.NewStructuredToolHandler(s.handlePressKeys))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the full snapshot of a session: task, flags, interfaces and annotations."),
		sessionParam,
	), s.handleGetSession)

	s.mcpServer.AddTool(mcp.NewTool("set_flags",
		mcp.WithDescription("Set session flags. Unknown keys are ignored and reported."),
		sessionParam,
		mcp.WithString("flags", mcp.Required(), mcp.Description(`JSON object of flag values, e.g. {"showingSettings": true}`)),
		mcp.WithOutputSchema[FlagsResult](),
	), mcp.NewStructuredToolHandler(s.handleSetFlags))
}

func (s *Server) resolve(args map[string]any) (ports.Controller, error) {
	id, _ := args["session_id"].(string)
	if id == "" {
		id = s.defaultSession
	}
	if id == "" {
		return nil, errors.New("session_id is required")
	}
	c, ok := s.sessions.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return c, nil
}

func (s *Server) changed(ctx context.Context, c ports.Controller) {
	if s.afterChange != nil {
		s.afterChange(ctx, c)
	}
}

func (s *Server) handleListCommands(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := s.resolve(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	jsonBytes, _ := json.Marshal(c.Commands())
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, err := s.resolve(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	jsonBytes, _ := json.Marshal(c.Snapshot())
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleExecute(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (CommandResult, error) {
	c, err := s.resolve(args)
	if err != nil {
		return CommandResult{}, err
	}
	command, _ := args["command"].(string)

	handled, err := c.Execute(ctx, command)
	if err != nil {
		return CommandResult{}, fmt.Errorf("execute failed: %w", err)
	}
	s.changed(ctx, c)
	return CommandResult{SessionID: c.ID(), Command: command, Handled: handled, Flags: c.Snapshot().Flags}, nil
}

func (s *Server) handlePressKeys(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (CommandResult, error) {
	c, err := s.resolve(args)
	if err != nil {
		return CommandResult{}, err
	}
	keys, _ := args["keys"].(string)
	if strings.TrimSpace(keys) == "" {
		return CommandResult{}, errors.New("keys is required")
	}

	handled, err := c.Dispatch(ctx, keys)
	if err != nil {
		return CommandResult{}, fmt.Errorf("press keys failed: %w", err)
	}
	s.changed(ctx, c)
	return CommandResult{SessionID: c.ID(), Keys: keys, Handled: handled, Flags: c.Snapshot().Flags}, nil
}

func (s *Server) handleSetFlags(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (FlagsResult, error) {
	c, err := s.resolve(args)
	if err != nil {
		return FlagsResult{}, err
	}

	var values map[string]any
	switch v := args["flags"].(type) {
	case string:
		if err := json.Unmarshal([]byte(v), &values); err != nil {
			return FlagsResult{}, fmt.Errorf("flags must be a JSON object: %w", err)
		}
	case map[string]any:
		values = v
	default:
		return FlagsResult{}, errors.New("flags must be a JSON object")
	}

	ignored, err := c.SetFlagsFromMap(values)
	if err != nil {
		return FlagsResult{}, err
	}
	if ignored == nil {
		ignored = []string{}
	}
	s.changed(ctx, c)
	return FlagsResult{SessionID: c.ID(), Flags: c.Snapshot().Flags, Ignored: ignored}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("annotate://sessions", "Live sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, _ := json.Marshal(s.sessions.Names())
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "annotate://sessions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
