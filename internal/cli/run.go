package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/annotate"
	"github.com/aretw0/annotate/internal/config"
	"github.com/aretw0/annotate/internal/logging"
	"github.com/aretw0/annotate/internal/presentation/tui"
	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/annotate/pkg/observability"
	"github.com/aretw0/annotate/pkg/router"
	"github.com/muesli/termenv"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	TaskID    string
	SessionID string
	Fresh     bool
	Quiet     bool
	Config    config.Config
	Logger    *slog.Logger

	// In is read for keys; a terminal is read raw, anything else line by line.
	In  io.Reader
	Out io.Writer
	// Color forces a termenv profile on the output. Nil detects it.
	Color []termenv.OutputOption
}

// Run annotates one task interactively. The session is resumed from the snapshot store when
// one exists, results go to the sqlite bridge, and the snapshot is saved on exit.
func Run(ctx context.Context, opts RunOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	ws, err := OpenWorkspace(opts.Config, logger)
	if err != nil {
		return err
	}
	defer ws.Close()

	notifier := NewNotifier(opts.Out, opts.Color...)
	s, resumed, err := ws.OpenSession(ctx, opts.TaskID, opts.SessionID, opts.Fresh,
		annotate.WithNotifier(notifier),
		annotate.WithLifecycleHooks(observability.LogHooks(logger)),
	)
	if err != nil {
		return err
	}
	sessionID := s.ID()
	manager := ws.Persistence.Manager

	if !opts.Quiet {
		tui.PrintBanner(opts.Out, annotate.Version, opts.Color...)
		if resumed {
			notifier.Printf("Resuming session '%s'.", sessionID)
		} else {
			notifier.Printf("Session '%s' active.", sessionID)
		}
	}

	renderMarkdown, err := tui.NewRenderer("", 80)
	if err != nil {
		logger.Warn("markdown rendering unavailable", "err", err)
	}

	var kb *Keyboard
	kb = NewKeyboard(
		WithKeyboardLogger(logger),
		OnUnknownKey(func(combo string) {
			notifier.ShowModal(fmt.Sprintf("No command bound to %s (press ? for help)", combo), domain.SeverityInfo)
		}),
		OnCommandLine(func(name string) {
			runCommand(ctx, s, notifier, name)
		}),
	)
	s.BindHotkeys(ctx, kb)
	kb.AddKey("?", func() {
		for _, h := range kb.Help() {
			notifier.Printf("%-16s %s", h.Keys, h.Description)
		}
	}, "Show keys")
	kb.AddKey("d", func() {
		s.ToggleDescription()
		if !s.Flags().ShowingDescription {
			return
		}
		showDescription(s.State().Description(), renderMarkdown, notifier)
	}, "Toggle the task description")
	kb.AddKey("ctrl+s", func() {
		if _, err := s.Execute(ctx, router.CommandSaveDraft); err != nil {
			notifier.ShowModal("Failed to save draft: "+err.Error(), domain.SeverityError)
			return
		}
		if err := manager.Persist(ctx, s.State()); err != nil {
			notifier.ShowModal("Failed to save session: "+err.Error(), domain.SeverityError)
			return
		}
		notifier.ShowModal("Session saved", domain.SeveritySuccess)
	}, "Save a draft and the session")

	var listenErr error
	if f, ok := opts.In.(*os.File); ok {
		notifier.RawMode(isTerminal(f))
		listenErr = kb.Listen(ctx, f)
		notifier.RawMode(false)
	} else {
		listenErr = kb.ReadLines(ctx, opts.In)
	}

	s.Close()
	// Persist even if ctx was cancelled by a signal.
	if err := manager.Persist(context.WithoutCancel(ctx), s.State()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if !opts.Quiet {
		notifier.Printf("Session '%s' saved.", sessionID)
	}
	return listenErr
}

func runCommand(ctx context.Context, s *annotate.Session, n *Notifier, name string) {
	handled, err := s.Execute(ctx, name)
	switch {
	case errors.Is(err, domain.ErrUnknownCommand):
		var names []string
		for _, c := range s.Commands() {
			names = append(names, c.Command)
		}
		msg := fmt.Sprintf("Unknown command %q", name)
		if suggestions := Suggest(name, names); len(suggestions) > 0 {
			msg += fmt.Sprintf(", did you mean %s?", strings.Join(suggestions, " or "))
		}
		n.ShowModal(msg, domain.SeverityWarning)
	case err != nil:
		n.ShowModal(err.Error(), domain.SeverityError)
	case !handled:
		n.ShowModal(fmt.Sprintf("%s is not available right now", name), domain.SeverityInfo)
	}
}

func showDescription(description string, render func(string) (string, error), n *Notifier) {
	if description == "" {
		description = "_This task has no description._"
	}
	if render != nil {
		if rendered, err := render(description); err == nil {
			description = rendered
		}
	}
	n.Block(description)
}

// DefaultKeys lists the default bindings, for help output outside a session.
func DefaultKeys() []KeyHelp {
	var out []KeyHelp
	for _, b := range router.DefaultBindings(nil) {
		out = append(out, KeyHelp{Keys: b.Keys, Description: b.Description})
	}
	return out
}
