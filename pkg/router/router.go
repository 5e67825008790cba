package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/annotate/internal/logging"
	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/annotate/pkg/ports"
)

// ErrNotApplicable is returned by handlers whose precondition does not hold.
// The router turns it into an unhandled dispatch, never into an error.
var ErrNotApplicable = errors.New("command not applicable")

// Handler runs a command against the annotation selected at invocation time (possibly nil).
type Handler func(ctx context.Context, selected ports.Annotation) error

// Binding ties a command to a key combination, an optional capability and a handler.
type Binding struct {
	Command     string
	Keys        string
	Capability  string
	Description string
	Handler     Handler
}

// Capabilities answers capability membership at dispatch time.
type Capabilities interface {
	HasInterface(name string) bool
}

// Selector returns the currently selected annotation, or nil.
type Selector func() ports.Annotation

// Router dispatches commands. Safe for concurrent use.
type Router struct {
	mu        sync.RWMutex
	bindings  []Binding
	byCommand map[string]int
	byKeys    map[string]int

	caps      Capabilities
	selected  Selector
	sessionID string
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger configures a logger for the Router.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithHooks registers lifecycle hooks fired on every dispatch.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Router) {
		r.hooks = hooks
	}
}

// WithSessionID tags emitted events and log lines with the session ID.
func WithSessionID(id string) Option {
	return func(r *Router) {
		r.sessionID = id
	}
}

// New creates a router with no bindings.
func New(caps Capabilities, selected Selector, opts ...Option) *Router {
	r := &Router{
		byCommand: make(map[string]int),
		byKeys:    make(map[string]int),
		caps:      caps,
		selected:  selected,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a binding. Commands and key combinations must be unique.
func (r *Router) Register(b Binding) error {
	if b.Command == "" || b.Handler == nil {
		return fmt.Errorf("binding needs a command and a handler")
	}
	b.Keys = NormalizeKeys(b.Keys)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byCommand[b.Command]; exists {
		return fmt.Errorf("command %q already bound", b.Command)
	}
	if b.Keys != "" {
		if i, exists := r.byKeys[b.Keys]; exists {
			return fmt.Errorf("keys %q already bound to %q", b.Keys, r.bindings[i].Command)
		}
		r.byKeys[b.Keys] = len(r.bindings)
	}
	r.byCommand[b.Command] = len(r.bindings)
	r.bindings = append(r.bindings, b)
	return nil
}

// Rebind moves a command to a new key combination.
func (r *Router) Rebind(command, keys string) error {
	keys = NormalizeKeys(keys)

	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.byCommand[command]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownCommand, command)
	}
	if j, taken := r.byKeys[keys]; keys != "" && taken && j != i {
		return fmt.Errorf("keys %q already bound to %q", keys, r.bindings[j].Command)
	}
	delete(r.byKeys, r.bindings[i].Keys)
	r.bindings[i].Keys = keys
	if keys != "" {
		r.byKeys[keys] = i
	}
	return nil
}

// ApplyKeymap rebinds every command in the map (command name to key combination).
func (r *Router) ApplyKeymap(keymap map[string]string) error {
	for command, keys := range keymap {
		if err := r.Rebind(command, keys); err != nil {
			return fmt.Errorf("failed to apply keymap: %w", err)
		}
	}
	return nil
}

// Bindings returns every binding in registration order.
func (r *Router) Bindings() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Binding(nil), r.bindings...)
}

// Active returns the bindings whose capability is currently enabled.
func (r *Router) Active() []Binding {
	var out []Binding
	for _, b := range r.Bindings() {
		if r.enabled(b) {
			out = append(out, b)
		}
	}
	return out
}

// Describe lists every binding with its current availability.
func (r *Router) Describe() []ports.CommandInfo {
	bindings := r.Bindings()
	out := make([]ports.CommandInfo, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, ports.CommandInfo{
			Command:     b.Command,
			Keys:        b.Keys,
			Capability:  b.Capability,
			Description: b.Description,
			Active:      r.enabled(b),
		})
	}
	return out
}

// BindTo registers every key combination with the hotkey collaborator.
// The registered callbacks dispatch, so capabilities are still checked when the key is pressed.
func (r *Router) BindTo(ctx context.Context, binder ports.HotkeyBinder) {
	for _, b := range r.Bindings() {
		if b.Keys == "" {
			continue
		}
		keys := b.Keys
		binder.AddKey(keys, func() {
			if _, err := r.Dispatch(ctx, keys); err != nil {
				r.logger.Error("hotkey failed", "session_id", r.sessionID, "keys", keys, "err", err)
			}
		}, b.Description)
	}
}

// Dispatch runs the command bound to the key combination.
// Unbound keys, disabled capabilities and unmet preconditions report handled=false with no error.
func (r *Router) Dispatch(ctx context.Context, combo string) (bool, error) {
	keys := NormalizeKeys(combo)
	r.mu.RLock()
	i, ok := r.byKeys[keys]
	var b Binding
	if ok {
		b = r.bindings[i]
	}
	r.mu.RUnlock()

	if !ok {
		r.emit(ctx, "", keys, false)
		return false, nil
	}
	return r.run(ctx, b, keys)
}

// Execute runs a command by name. Unknown names yield domain.ErrUnknownCommand.
func (r *Router) Execute(ctx context.Context, command string) (bool, error) {
	r.mu.RLock()
	i, ok := r.byCommand[command]
	var b Binding
	if ok {
		b = r.bindings[i]
	}
	r.mu.RUnlock()

	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrUnknownCommand, command)
	}
	return r.run(ctx, b, "")
}

func (r *Router) run(ctx context.Context, b Binding, keys string) (bool, error) {
	if !r.enabled(b) {
		r.logger.Debug("command disabled", "session_id", r.sessionID, "command", b.Command, "capability", b.Capability)
		r.emit(ctx, b.Command, keys, false)
		return false, nil
	}

	var selected ports.Annotation
	if r.selected != nil {
		selected = r.selected()
	}

	err := b.Handler(ctx, selected)
	handled := true
	switch {
	case err == nil:
	case errors.Is(err, ErrNotApplicable), errors.Is(err, domain.ErrNoSelection):
		handled, err = false, nil
	case errors.Is(err, domain.ErrValidationFailed):
		err = nil
	}

	r.logger.Debug("command dispatched", "session_id", r.sessionID, "command", b.Command, "handled", handled)
	r.emit(ctx, b.Command, keys, handled)
	return handled, err
}

func (r *Router) enabled(b Binding) bool {
	if b.Capability == "" {
		return true
	}
	return r.caps != nil && r.caps.HasInterface(b.Capability)
}

func (r *Router) emit(ctx context.Context, command, keys string, handled bool) {
	if r.hooks.OnCommand == nil {
		return
	}
	r.hooks.OnCommand(ctx, &domain.CommandEvent{
		Timestamp: time.Now(),
		SessionID: r.sessionID,
		Command:   command,
		Keys:      keys,
		Handled:   handled,
	})
}
