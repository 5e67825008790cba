package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/annotate"
	"github.com/aretw0/annotate/internal/config"
	"github.com/aretw0/annotate/pkg/adapters/loam"
	"github.com/aretw0/annotate/pkg/adapters/sqlite"
	"github.com/aretw0/annotate/pkg/ports"
	"github.com/aretw0/annotate/pkg/session"
)

// Workspace wires the configured task source, snapshot store and result bridge.
type Workspace struct {
	Config      config.Config
	Tasks       *loam.Source
	Persistence *Persistence
	Results     *sqlite.Bridge
	logger      *slog.Logger
}

// OpenWorkspace opens every backend named by cfg.
func OpenWorkspace(cfg config.Config, logger *slog.Logger) (*Workspace, error) {
	src, err := loam.Open(cfg.Tasks.Dir)
	if err != nil {
		return nil, err
	}

	persistence, err := OpenPersistence(cfg, logger)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.Bridge.SQLitePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			_ = persistence.Close()
			return nil, fmt.Errorf("failed to create bridge directory: %w", err)
		}
	}
	results, err := sqlite.Open(cfg.Bridge.SQLitePath, sqlite.WithLogger(logger))
	if err != nil {
		_ = persistence.Close()
		return nil, err
	}

	return &Workspace{
		Config:      cfg,
		Tasks:       src,
		Persistence: persistence,
		Results:     results,
		logger:      logger,
	}, nil
}

// Close releases the backends.
func (w *Workspace) Close() error {
	return errors.Join(w.Results.Close(), w.Persistence.Close())
}

// DefaultSessionID is the session a task is annotated in when no ID is given.
func DefaultSessionID(taskID string) string {
	return "task-" + strings.ReplaceAll(taskID, "/", "-")
}

// OpenSession loads a task and builds its session, resuming the stored snapshot unless fresh.
// It reports whether the session was resumed.
func (w *Workspace) OpenSession(ctx context.Context, taskID, sessionID string, fresh bool, extra ...annotate.Option) (*annotate.Session, bool, error) {
	bundle, err := w.Tasks.LoadTask(ctx, taskID)
	if err != nil {
		return nil, false, err
	}
	if sessionID == "" {
		sessionID = DefaultSessionID(bundle.Task.ID)
	}

	manager := w.Persistence.Manager
	if fresh {
		if err := manager.Delete(ctx, sessionID); err != nil {
			w.logger.Warn("failed to reset session", "session_id", sessionID, "err", err)
		}
	}

	interfaces := bundle.Interfaces
	if len(interfaces) == 0 {
		interfaces = w.Config.Session.Interfaces
	}
	initial, err := session.SnapshotFromBundle(sessionID, bundle, interfaces...)
	if err != nil {
		return nil, false, fmt.Errorf("error initializing session: %w", err)
	}
	snap, created, err := manager.LoadOrInit(ctx, sessionID, initial)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load session: %w", err)
	}

	opts, err := SessionOptions(w.Config, bundle.Interfaces)
	if err != nil {
		return nil, false, err
	}
	opts = append(opts,
		annotate.WithID(sessionID),
		annotate.WithBridge(w.Results),
		annotate.WithLogger(w.logger),
		annotate.WithSnapshot(snap),
	)
	opts = append(opts, extra...)

	s, err := annotate.New(ctx, opts...)
	if err != nil {
		return nil, false, fmt.Errorf("error initializing session: %w", err)
	}
	return s, !created, nil
}

// Persist saves the snapshot of a session controller built by OpenSession.
func (w *Workspace) Persist(ctx context.Context, c ports.Controller) error {
	s, ok := c.(*annotate.Session)
	if !ok {
		return fmt.Errorf("cannot persist %T", c)
	}
	return w.Persistence.Manager.Persist(ctx, s.State())
}
