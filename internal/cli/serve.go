package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/annotate"
	"github.com/aretw0/annotate/internal/config"
	"github.com/aretw0/annotate/internal/logging"
	httpadapter "github.com/aretw0/annotate/pkg/adapters/http"
	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/annotate/pkg/observability"
	"github.com/aretw0/annotate/pkg/ports"
	"github.com/aretw0/annotate/pkg/registry"
)

// ServeOptions contains the configuration for the serve command.
type ServeOptions struct {
	// TaskIDs are opened as sessions at startup. Empty opens every task of the task directory.
	TaskIDs []string
	Config  config.Config
	Logger  *slog.Logger
	// Ready, when set, receives the handler once every session is open.
	Ready func(http.Handler)
}

// Serve exposes one session per task over HTTP until ctx is done.
func Serve(ctx context.Context, opts ServeOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if _, err := httpadapter.LoadSpec(ctx); err != nil {
		return err
	}

	ws, err := OpenWorkspace(opts.Config, logger)
	if err != nil {
		return err
	}
	defer ws.Close()

	taskIDs := opts.TaskIDs
	if len(taskIDs) == 0 {
		if taskIDs, err = ws.Tasks.ListTasks(ctx); err != nil {
			return err
		}
	}

	metrics := observability.NewMetrics(observability.WithProcessCollectors())
	sessions := registry.NewRegistry[ports.Controller]()
	persist := func(ctx context.Context, c ports.Controller) {
		if err := ws.Persist(ctx, c); err != nil {
			logger.Error("failed to persist session", "session_id", c.ID(), "err", err)
		}
	}

	srv := httpadapter.New(sessions,
		httpadapter.WithRateLimit(opts.Config.HTTP.RateLimit, opts.Config.HTTP.Burst),
		httpadapter.WithMetrics(metrics.Handler()),
		httpadapter.WithAfterChange(persist),
		httpadapter.WithLogger(logger),
	)
	hooks := observability.Combine(metrics.Hooks(), srv.Hooks(), observability.LogHooks(logger))

	var open []*annotate.Session
	defer func() {
		for _, s := range open {
			s.Close()
			persist(context.WithoutCancel(ctx), s)
		}
	}()
	for _, id := range taskIDs {
		s, resumed, err := ws.OpenSession(ctx, id, "", false,
			annotate.WithRegistry(sessions),
			annotate.WithLifecycleHooks(hooks),
			annotate.WithNotifier(ports.NotifierFunc(func(msg string, sev domain.Severity) {
				logger.Info("notification", "task_id", id, "severity", sev, "message", msg)
			})),
		)
		if err != nil {
			return fmt.Errorf("task %s: %w", id, err)
		}
		open = append(open, s)
		logger.Info("session open", "session_id", s.ID(), "task_id", id, "resumed", resumed)
	}

	handler := srv.Handler()
	if opts.Ready != nil {
		opts.Ready(handler)
		<-ctx.Done()
		return nil
	}

	httpServer := &http.Server{Addr: opts.Config.HTTP.Addr, Handler: handler}
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", opts.Config.HTTP.Addr, "sessions", len(open))
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
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
