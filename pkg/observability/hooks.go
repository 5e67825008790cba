package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/annotate/pkg/domain"
)

// LogHooks logs every lifecycle event at debug level, rejections at warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommand: func(ctx context.Context, e *domain.CommandEvent) {
			logger.DebugContext(ctx, "command",
				"session_id", e.SessionID,
				"command", e.Command,
				"keys", e.Keys,
				"handled", e.Handled,
			)
		},
		OnGuardEngage: func(ctx context.Context, e *domain.GuardEvent) {
			logger.DebugContext(ctx, "guard_engage", "session_id", e.SessionID, "action", e.Action)
		},
		OnGuardRelease: func(ctx context.Context, e *domain.GuardEvent) {
			level := slog.LevelDebug
			if e.Outcome == domain.GuardRejected || e.Outcome == domain.GuardLateRejected {
				level = slog.LevelWarn
			}
			attrs := []any{
				"session_id", e.SessionID,
				"action", e.Action,
				"outcome", string(e.Outcome),
				"held", e.Held,
			}
			if e.Err != nil {
				attrs = append(attrs, "err", e.Err)
			}
			logger.Log(ctx, level, "guard_release", attrs...)
		},
	}
}

// Combine fans every event out to each set of hooks, in order.
func Combine(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommand: func(ctx context.Context, e *domain.CommandEvent) {
			for _, h := range all {
				if h.OnCommand != nil {
					h.OnCommand(ctx, e)
				}
			}
		},
		OnGuardEngage: func(ctx context.Context, e *domain.GuardEvent) {
			for _, h := range all {
				if h.OnGuardEngage != nil {
					h.OnGuardEngage(ctx, e)
				}
			}
		},
		OnGuardRelease: func(ctx context.Context, e *domain.GuardEvent) {
			for _, h := range all {
				if h.OnGuardRelease != nil {
					h.OnGuardRelease(ctx, e)
				}
			}
		},
	}
}
