package annotation

import "github.com/aretw0/annotate/pkg/domain"

// maxHistory bounds the number of undo steps kept per annotation.
const maxHistory = 100

// History is a snapshot based undo/redo stack. Guarded by the owning annotation's mutex.
type History struct {
	annotation *Annotation
	undo       [][]domain.Region
	redo       [][]domain.Region
}

// CanUndo reports whether a step can be undone.
func (h *History) CanUndo() bool {
	h.annotation.mu.Lock()
	defer h.annotation.mu.Unlock()
	return len(h.undo) > 0
}

// CanRedo reports whether an undone step can be reapplied.
func (h *History) CanRedo() bool {
	h.annotation.mu.Lock()
	defer h.annotation.mu.Unlock()
	return len(h.redo) > 0
}

// Undo restores the state before the last recorded change.
func (h *History) Undo() {
	a := h.annotation
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(h.undo) == 0 {
		return
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, a.serialize())
	a.restore(prev)
}

// Redo reapplies the last undone change.
func (h *History) Redo() {
	a := h.annotation
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(h.redo) == 0 {
		return
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, a.serialize())
	a.restore(next)
}

// record pushes the current state before a change. Caller holds the annotation mutex.
func (h *History) record() {
	h.undo = append(h.undo, h.annotation.serialize())
	if len(h.undo) > maxHistory {
		h.undo = h.undo[len(h.undo)-maxHistory:]
	}
	h.redo = nil
}

// reset drops every step. Caller holds the annotation mutex.
func (h *History) reset() {
	h.undo = nil
	h.redo = nil
}
