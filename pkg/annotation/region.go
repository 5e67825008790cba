package annotation

import "github.com/aretw0/annotate/pkg/domain"

// Region implements ports.Region. Its fields are guarded by the owning annotation.
type Region struct {
	annotation *Annotation
	id         string
	label      string
	value      map[string]any
	hidden     bool
}

// ID returns the region id.
func (r *Region) ID() string { return r.id }

// Label returns the region label.
func (r *Region) Label() string {
	r.annotation.mu.Lock()
	defer r.annotation.mu.Unlock()
	return r.label
}

// Hidden reports whether the region is hidden.
func (r *Region) Hidden() bool {
	r.annotation.mu.Lock()
	defer r.annotation.mu.Unlock()
	return r.hidden
}

// ToggleHidden flips the hidden state.
func (r *Region) ToggleHidden() {
	r.annotation.mu.Lock()
	defer r.annotation.mu.Unlock()
	r.hidden = !r.hidden
}

// DeleteRegion removes the region from its annotation.
func (r *Region) DeleteRegion() {
	r.annotation.deleteRegion(r.id)
}

func (r *Region) record() domain.Region {
	return domain.Region{
		ID:     r.id,
		Label:  r.label,
		Value:  cloneValue(r.value),
		Hidden: r.hidden,
	}
}

func cloneValue(v map[string]any) map[string]any {
	if v == nil {
		return nil
	}
	out := make(map[string]any, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

func cloneRegions(in []domain.Region) []domain.Region {
	if in == nil {
		return nil
	}
	out := make([]domain.Region, len(in))
	for i, r := range in {
		r.Value = cloneValue(r.Value)
		out[i] = r
	}
	return out
}
