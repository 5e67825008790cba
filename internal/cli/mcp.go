package cli

import (
	"context"
	"log/slog"

	"github.com/aretw0/annotate"
	"github.com/aretw0/annotate/internal/config"
	"github.com/aretw0/annotate/internal/logging"
	mcpadapter "github.com/aretw0/annotate/pkg/adapters/mcp"
	"github.com/aretw0/annotate/pkg/bridge"
	"github.com/aretw0/annotate/pkg/ports"
	"github.com/aretw0/annotate/pkg/registry"
)

// MCPOptions contains the configuration for the mcp command.
type MCPOptions struct {
	TaskID    string
	SessionID string
	Fresh     bool
	// SSEAddr serves the SSE transport on this address instead of stdio.
	SSEAddr string
	BaseURL string
	Config  config.Config
	Logger  *slog.Logger
}

// ServeMCP exposes one task's session as MCP tools until ctx is done or stdin closes.
func ServeMCP(ctx context.Context, opts MCPOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	ws, err := OpenWorkspace(opts.Config, logger)
	if err != nil {
		return err
	}
	defer ws.Close()

	sessions := registry.NewRegistry[ports.Controller]()
	s, _, err := ws.OpenSession(ctx, opts.TaskID, opts.SessionID, opts.Fresh,
		annotate.WithRegistry(sessions),
		annotate.WithNotifier(bridge.LogNotifier(logger)),
	)
	if err != nil {
		return err
	}
	defer func() {
		s.Close()
		if err := ws.Persist(context.WithoutCancel(ctx), s); err != nil {
			logger.Error("failed to persist session", "session_id", s.ID(), "err", err)
		}
	}()

	srv := mcpadapter.NewServer(sessions,
		mcpadapter.WithDefaultSession(s.ID()),
		mcpadapter.WithLogger(logger),
		mcpadapter.WithAfterChange(func(ctx context.Context, c ports.Controller) {
			if err := ws.Persist(ctx, c); err != nil {
				logger.Error("failed to persist session", "session_id", c.ID(), "err", err)
			}
		}),
	)

	if opts.SSEAddr != "" {
		return srv.ServeSSE(ctx, opts.SSEAddr, opts.BaseURL)
	}
	return srv.ServeStdio()
}
