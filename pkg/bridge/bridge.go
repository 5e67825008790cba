// Package bridge builds environment bridges from partial sets of host callbacks.
package bridge

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/annotate/pkg/ports"
)

// Funcs holds whichever hooks a host provides. Nil hooks resolve immediately with success.
type Funcs struct {
	OnLoad           func(ctx context.Context, s ports.Session)
	SubmitCompletion func(ctx context.Context, s ports.Session, a ports.Annotation) error
	UpdateCompletion func(ctx context.Context, s ports.Session, a ports.Annotation) error
	SkipTask         func(ctx context.Context, s ports.Session) error
	SubmitDraft      func(ctx context.Context, s ports.Session, a ports.Annotation) error
	Notifier         ports.Notifier
}

type funcsBridge struct {
	f Funcs
}

// New returns a bridge over f. Panics raised by hooks are returned as errors.
func New(f Funcs) ports.EnvironmentBridge {
	return &funcsBridge{f: f}
}

// Nop returns a bridge where every hook succeeds immediately.
func Nop() ports.EnvironmentBridge {
	return New(Funcs{})
}

func (b *funcsBridge) OnLoad(ctx context.Context, s ports.Session) {
	if b.f.OnLoad == nil {
		return
	}
	_ = guard(func() error {
		b.f.OnLoad(ctx, s)
		return nil
	})
}

func (b *funcsBridge) SubmitCompletion(ctx context.Context, s ports.Session, a ports.Annotation) error {
	if b.f.SubmitCompletion == nil {
		return nil
	}
	return guard(func() error { return b.f.SubmitCompletion(ctx, s, a) })
}

func (b *funcsBridge) UpdateCompletion(ctx context.Context, s ports.Session, a ports.Annotation) error {
	if b.f.UpdateCompletion == nil {
		return nil
	}
	return guard(func() error { return b.f.UpdateCompletion(ctx, s, a) })
}

func (b *funcsBridge) SkipTask(ctx context.Context, s ports.Session) error {
	if b.f.SkipTask == nil {
		return nil
	}
	return guard(func() error { return b.f.SkipTask(ctx, s) })
}

func (b *funcsBridge) SubmitDraft(ctx context.Context, s ports.Session, a ports.Annotation) error {
	if b.f.SubmitDraft == nil {
		return nil
	}
	return guard(func() error { return b.f.SubmitDraft(ctx, s, a) })
}

func (b *funcsBridge) Alert() ports.Notifier {
	return b.f.Notifier
}

func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bridge hook panicked: %v", r)
		}
	}()
	return fn()
}

// LogNotifier presents notifications as log records.
func LogNotifier(logger *slog.Logger) ports.Notifier {
	return ports.NotifierFunc(func(message string, severity domain.Severity) {
		level := slog.LevelInfo
		switch severity {
		case domain.SeverityWarning:
			level = slog.LevelWarn
		case domain.SeverityError:
			level = slog.LevelError
		}
		logger.Log(context.Background(), level, message, "severity", string(severity))
	})
}
