package router

import (
	"context"

	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/annotate/pkg/ports"
)

// Command names.
const (
	CommandDeleteAllRegions     = "delete-all-regions"
	CommandStartRelation        = "start-relation"
	CommandUnselectAll          = "unselect-all"
	CommandToggleHidden         = "toggle-hidden"
	CommandUndo                 = "undo"
	CommandRedo                 = "redo"
	CommandEscape               = "escape"
	CommandDeleteSelectedRegion = "delete-selected-region"
	CommandCycleNext            = "cycle-next"
	CommandSubmit               = "submit"
	CommandSkip                 = "skip"
	CommandUpdate               = "update"
	CommandSaveDraft            = "save-draft"
)

// Submitter runs the request flows triggered by submit, skip, update and save-draft.
type Submitter interface {
	SubmitCompletion(ctx context.Context) error
	UpdateCompletion(ctx context.Context) error
	SkipTask(ctx context.Context) error
	SubmitDraft(ctx context.Context) error
}

// DefaultBindings returns the standard binding table.
func DefaultBindings(s Submitter) []Binding {
	return []Binding{
		{
			Command:     CommandDeleteAllRegions,
			Keys:        "ctrl+backspace",
			Description: "Delete all regions",
			Handler: onSelection(func(sel ports.Annotation) error {
				sel.DeleteAllRegions()
				return nil
			}),
		},
		{
			Command:     CommandStartRelation,
			Keys:        "r",
			Description: "Create a relation between regions",
			Handler: onSelection(func(sel ports.Annotation) error {
				hl := sel.HighlightedNode()
				if hl == nil || sel.RelationMode() {
					return ErrNotApplicable
				}
				sel.StartRelationMode(hl)
				return nil
			}),
		},
		{
			Command:     CommandUnselectAll,
			Keys:        "u",
			Description: "Unselect all regions",
			Handler: onSelection(func(sel ports.Annotation) error {
				if sel.RelationMode() {
					return ErrNotApplicable
				}
				sel.UnselectAll()
				return nil
			}),
		},
		{
			Command:     CommandToggleHidden,
			Keys:        "h",
			Description: "Hide selected region",
			Handler: onSelection(func(sel ports.Annotation) error {
				hl := sel.HighlightedNode()
				if hl == nil || sel.RelationMode() {
					return ErrNotApplicable
				}
				hl.ToggleHidden()
				return nil
			}),
		},
		{
			Command:     CommandUndo,
			Keys:        "ctrl+z",
			Description: "Undo",
			Handler: onSelection(func(sel ports.Annotation) error {
				h := sel.History()
				if h == nil || !h.CanUndo() {
					return ErrNotApplicable
				}
				h.Undo()
				return nil
			}),
		},
		{
			Command:     CommandRedo,
			Keys:        "ctrl+shift+z",
			Description: "Redo",
			Handler: onSelection(func(sel ports.Annotation) error {
				h := sel.History()
				if h == nil || !h.CanRedo() {
					return ErrNotApplicable
				}
				h.Redo()
				return nil
			}),
		},
		{
			Command:     CommandEscape,
			Keys:        "escape",
			Description: "Exit relation mode or unselect region",
			Handler: onSelection(func(sel ports.Annotation) error {
				switch {
				case sel.RelationMode():
					sel.StopRelationMode()
				case sel.HighlightedNode() != nil:
					sel.UnselectAll()
				default:
					return ErrNotApplicable
				}
				return nil
			}),
		},
		{
			Command:     CommandDeleteSelectedRegion,
			Keys:        "backspace",
			Description: "Delete selected region",
			Handler: onSelection(func(sel ports.Annotation) error {
				hl := sel.HighlightedNode()
				if hl == nil {
					return ErrNotApplicable
				}
				hl.DeleteRegion()
				return nil
			}),
		},
		{
			Command:     CommandCycleNext,
			Keys:        "alt+tab",
			Description: "Circular traversal through regions",
			Handler: onSelection(func(sel ports.Annotation) error {
				sel.SelectNext()
				return nil
			}),
		},
		{
			Command:     CommandSubmit,
			Keys:        "ctrl+enter",
			Description: "Submit a task",
			Handler: func(ctx context.Context, _ ports.Annotation) error {
				return s.SubmitCompletion(ctx)
			},
		},
		{
			Command:     CommandSkip,
			Keys:        "ctrl+space",
			Capability:  domain.CapabilitySkip,
			Description: "Skip a task",
			Handler: func(ctx context.Context, _ ports.Annotation) error {
				return s.SkipTask(ctx)
			},
		},
		{
			Command:     CommandUpdate,
			Keys:        "alt+enter",
			Capability:  domain.CapabilityUpdate,
			Description: "Update a task",
			Handler: func(ctx context.Context, _ ports.Annotation) error {
				return s.UpdateCompletion(ctx)
			},
		},
		{
			// No default keys: hosts bind it next to their own save action.
			Command:     CommandSaveDraft,
			Description: "Save a draft of the selected annotation",
			Handler: func(ctx context.Context, sel ports.Annotation) error {
				if sel == nil {
					return ErrNotApplicable
				}
				return s.SubmitDraft(ctx)
			},
		},
	}
}

// onSelection adapts fn into a Handler that is a no-op without a selection.
func onSelection(fn func(sel ports.Annotation) error) Handler {
	return func(_ context.Context, sel ports.Annotation) error {
		if sel == nil {
			return ErrNotApplicable
		}
		return fn(sel)
	}
}

// NewDefault creates a router carrying DefaultBindings.
func NewDefault(caps Capabilities, selected Selector, s Submitter, opts ...Option) *Router {
	r := New(caps, selected, opts...)
	for _, b := range DefaultBindings(s) {
		// The default table has unique commands and keys.
		_ = r.Register(b)
	}
	return r
}
