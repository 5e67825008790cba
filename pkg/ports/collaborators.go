package ports

import (
	"context"

	"github.com/aretw0/annotate/pkg/domain"
)

// Notifier presents a message to the user. Nothing is returned to the caller.
type Notifier interface {
	ShowModal(message string, severity domain.Severity)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string, severity domain.Severity)

// ShowModal calls f.
func (f NotifierFunc) ShowModal(message string, severity domain.Severity) {
	f(message, severity)
}

// HotkeyBinder registers physical key combinations, e.g. "ctrl+enter".
type HotkeyBinder interface {
	AddKey(combo string, handler func(), description string)
}

// TaskSource loads task bundles from wherever the host keeps them.
// Returns domain.ErrTaskNotFound if the task does not exist.
type TaskSource interface {
	LoadTask(ctx context.Context, id string) (*domain.TaskBundle, error)
	ListTasks(ctx context.Context) ([]string, error)
}

// Controller is the surface adapters (HTTP, MCP, CLI) use to drive one session.
type Controller interface {
	ID() string
	Snapshot() domain.Snapshot
	// Execute runs a command by name. Returns domain.ErrUnknownCommand for names outside the table.
	Execute(ctx context.Context, command string) (bool, error)
	// Dispatch runs whatever command is bound to the key combination.
	Dispatch(ctx context.Context, combo string) (bool, error)
	SetFlagsFromMap(values map[string]any) ([]string, error)
	AddInterface(name string)
	Commands() []CommandInfo
}

// CommandInfo describes a bound command for help listings.
type CommandInfo struct {
	Command     string `json:"command"`
	Keys        string `json:"keys"`
	Capability  string `json:"capability,omitempty"`
	Description string `json:"description,omitempty"`
	Active      bool   `json:"active"`
}

// ControllerLookup resolves a session ID to its controller.
type ControllerLookup func(sessionID string) (Controller, bool)
