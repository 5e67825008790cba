package domain

import (
	"fmt"
	"sort"
)

// Flag names as they appear on the wire (HTTP, MCP, snapshots).
const (
	FlagIsLoading          = "isLoading"
	FlagIsSubmitting       = "isSubmitting"
	FlagNoTask             = "noTask"
	FlagNoAccess           = "noAccess"
	FlagLabeledSuccess     = "labeledSuccess"
	FlagShowingSettings    = "showingSettings"
	FlagShowingDescription = "showingDescription"
)

// FlagNames lists every recognized flag, in a stable order.
var FlagNames = []string{
	FlagShowingSettings,
	FlagShowingDescription,
	FlagIsLoading,
	FlagIsSubmitting,
	FlagNoTask,
	FlagNoAccess,
	FlagLabeledSuccess,
}

// Flags is the fixed set of UI flags carried by a session.
type Flags struct {
	IsLoading          bool `json:"isLoading"`
	IsSubmitting       bool `json:"isSubmitting"`
	NoTask             bool `json:"noTask"`
	NoAccess           bool `json:"noAccess"`
	LabeledSuccess     bool `json:"labeledSuccess"`
	ShowingSettings    bool `json:"showingSettings"`
	ShowingDescription bool `json:"showingDescription"`
}

// FlagPatch is a partial update over Flags. Nil fields are left untouched.
type FlagPatch struct {
	IsLoading          *bool
	IsSubmitting       *bool
	NoTask             *bool
	NoAccess           *bool
	LabeledSuccess     *bool
	ShowingSettings    *bool
	ShowingDescription *bool
}

// Bool returns a pointer to v, for building patches inline.
func Bool(v bool) *bool {
	return &v
}

// Apply returns f with every non-nil field of p written over it.
func (p FlagPatch) Apply(f Flags) Flags {
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&f.IsLoading, p.IsLoading)
	set(&f.IsSubmitting, p.IsSubmitting)
	set(&f.NoTask, p.NoTask)
	set(&f.NoAccess, p.NoAccess)
	set(&f.LabeledSuccess, p.LabeledSuccess)
	set(&f.ShowingSettings, p.ShowingSettings)
	set(&f.ShowingDescription, p.ShowingDescription)
	return f
}

// Empty reports whether the patch changes nothing.
func (p FlagPatch) Empty() bool {
	return p == FlagPatch{}
}

// ParseFlagPatch decodes a loosely-typed map into a FlagPatch.
// Keys outside FlagNames are ignored and returned, sorted, so boundaries can report them.
// A recognized key holding a non-boolean value fails the whole decode.
func ParseFlagPatch(values map[string]any) (FlagPatch, []string, error) {
	var patch FlagPatch
	var ignored []string

	targets := map[string]**bool{
		FlagIsLoading:          &patch.IsLoading,
		FlagIsSubmitting:       &patch.IsSubmitting,
		FlagNoTask:             &patch.NoTask,
		FlagNoAccess:           &patch.NoAccess,
		FlagLabeledSuccess:     &patch.LabeledSuccess,
		FlagShowingSettings:    &patch.ShowingSettings,
		FlagShowingDescription: &patch.ShowingDescription,
	}

	for key, raw := range values {
		target, ok := targets[key]
		if !ok {
			ignored = append(ignored, key)
			continue
		}
		v, ok := raw.(bool)
		if !ok {
			return FlagPatch{}, nil, fmt.Errorf("%w: %s must be a boolean, got %T", ErrInvalidFlag, key, raw)
		}
		*target = Bool(v)
	}

	sort.Strings(ignored)
	return patch, ignored, nil
}

// Map returns the flags keyed by their wire names.
func (f Flags) Map() map[string]bool {
	return map[string]bool{
		FlagIsLoading:          f.IsLoading,
		FlagIsSubmitting:       f.IsSubmitting,
		FlagNoTask:             f.NoTask,
		FlagNoAccess:           f.NoAccess,
		FlagLabeledSuccess:     f.LabeledSuccess,
		FlagShowingSettings:    f.ShowingSettings,
		FlagShowingDescription: f.ShowingDescription,
	}
}
