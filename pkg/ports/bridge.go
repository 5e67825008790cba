package ports

import (
	"context"

	"github.com/aretw0/annotate/pkg/domain"
)

// Session is the read-only view of a session handed to bridge hooks.
type Session interface {
	ID() string
	Config() string
	Task() *domain.Task
	Project() *domain.Project
	Flags() domain.Flags
	HasInterface(name string) bool
	Alert() Notifier
}

// EnvironmentBridge is the host-supplied set of persistence callbacks.
// Every hook blocks until it settles; the controller decides where to wait for it.
// Implementations should honor ctx cancellation, which the controller uses to signal
// that it stopped waiting.
type EnvironmentBridge interface {
	// OnLoad fires once after the session has been fully constructed.
	OnLoad(ctx context.Context, s Session)

	SubmitCompletion(ctx context.Context, s Session, a Annotation) error
	UpdateCompletion(ctx context.Context, s Session, a Annotation) error
	SkipTask(ctx context.Context, s Session) error

	// SubmitDraft persists an autosave draft. Hosts without drafts resolve immediately.
	SubmitDraft(ctx context.Context, s Session, a Annotation) error

	// Alert is the host's status-presentation channel. May be nil.
	Alert() Notifier
}
