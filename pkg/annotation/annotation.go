package annotation

import (
	"sync"

	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/annotate/pkg/ports"
	"github.com/google/uuid"
)

// Relation links two regions of the same annotation.
type Relation struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Annotation implements ports.Annotation.
type Annotation struct {
	mu sync.Mutex

	id         string
	prediction bool
	validator  Validator

	regions     []*Region
	highlighted string
	draft       []domain.Region

	relationMode bool
	relationFrom string
	relations    []Relation

	userGenerated bool
	history       *History
}

func newAnnotation(id string, prediction bool, validator Validator) *Annotation {
	a := &Annotation{id: id, prediction: prediction, validator: validator}
	a.history = &History{annotation: a}
	return a
}

// ID returns the annotation id.
func (a *Annotation) ID() string { return a.id }

// Prediction reports whether this is a read-only candidate.
func (a *Annotation) Prediction() bool { return a.prediction }

// Len returns the number of regions.
func (a *Annotation) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.regions)
}

// Result returns the persisted form of the current regions.
func (a *Annotation) Result() []domain.Region {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.serialize()
}

// Draft returns the autosave draft, if any.
func (a *Annotation) Draft() []domain.Region {
	a.mu.Lock()
	defer a.mu.Unlock()
	return cloneRegions(a.draft)
}

// Record returns the snapshot form of the annotation.
func (a *Annotation) Record() domain.AnnotationRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return domain.AnnotationRecord{
		ID:            a.id,
		Prediction:    a.prediction,
		Result:        a.serialize(),
		Draft:         cloneRegions(a.draft),
		UserGenerated: a.userGenerated,
	}
}

// AddRegion appends a region and highlights it. Returns the region.
func (a *Annotation) AddRegion(in domain.Region) *Region {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history.record()
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	r := a.newRegion(in)
	a.regions = append(a.regions, r)
	a.highlighted = r.id
	return r
}

// Region looks a region up by id.
func (a *Annotation) Region(id string) *Region {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lookup(id)
}

// Highlight selects the region with the given id. Unknown ids clear the selection.
func (a *Annotation) Highlight(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lookup(id) == nil {
		id = ""
	}
	a.highlighted = id
}

// HighlightedNode returns the highlighted region or nil.
func (a *Annotation) HighlightedNode() ports.Region {
	a.mu.Lock()
	defer a.mu.Unlock()
	r := a.lookup(a.highlighted)
	if r == nil {
		return nil
	}
	return r
}

// DeleteAllRegions removes every region.
func (a *Annotation) DeleteAllRegions() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.regions) == 0 {
		return
	}
	a.history.record()
	a.regions = nil
	a.relations = nil
	a.highlighted = ""
}

// UnselectAll clears the region selection.
func (a *Annotation) UnselectAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.highlighted = ""
}

// SelectNext moves the selection to the next region, wrapping around.
func (a *Annotation) SelectNext() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.regions) == 0 {
		return
	}
	next := 0
	for i, r := range a.regions {
		if r.id == a.highlighted {
			next = (i + 1) % len(a.regions)
			break
		}
	}
	a.highlighted = a.regions[next].id
}

// RelationMode reports whether the annotation is waiting for a relation target.
func (a *Annotation) RelationMode() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.relationMode
}

// StartRelationMode anchors a new relation at from.
func (a *Annotation) StartRelationMode(from ports.Region) {
	if from == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.relationMode = true
	a.relationFrom = from.ID()
}

// StopRelationMode leaves relation mode without creating a relation.
func (a *Annotation) StopRelationMode() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.relationMode = false
	a.relationFrom = ""
}

// CompleteRelation links the anchor to the region with id to and leaves relation mode.
func (a *Annotation) CompleteRelation(to string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.relationMode || a.lookup(to) == nil || to == a.relationFrom {
		return false
	}
	a.history.record()
	a.relations = append(a.relations, Relation{From: a.relationFrom, To: to})
	a.relationMode = false
	a.relationFrom = ""
	return true
}

// Relations returns the relations between regions.
func (a *Annotation) Relations() []Relation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Relation(nil), a.relations...)
}

// History returns the undo/redo history.
func (a *Annotation) History() ports.History {
	return a.history
}

// ReinitHistory forgets every recorded step.
func (a *Annotation) ReinitHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history.reset()
}

// BeforeSend finalizes pending edits: relation mode is left and the selection cleared.
func (a *Annotation) BeforeSend() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.relationMode = false
	a.relationFrom = ""
	a.highlighted = ""
}

// Validate runs the collection's validator.
func (a *Annotation) Validate() bool {
	if a.validator == nil {
		return true
	}
	return a.validator(a)
}

// SendUserGenerate marks the annotation as produced by the user.
func (a *Annotation) SendUserGenerate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.userGenerated = true
}

// SentUserGenerate reports whether SendUserGenerate was called.
func (a *Annotation) SentUserGenerate() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userGenerated
}

// SaveDraft stores the current regions as the autosave draft.
func (a *Annotation) SaveDraft() []domain.Region {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft = a.serialize()
	return cloneRegions(a.draft)
}

// DropDraft discards the autosave draft.
func (a *Annotation) DropDraft() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft = nil
}

func (a *Annotation) setDraft(regions []domain.Region) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft = cloneRegions(regions)
}

func (a *Annotation) deleteRegion(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	idx := -1
	for i, r := range a.regions {
		if r.id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	a.history.record()
	a.regions = append(a.regions[:idx], a.regions[idx+1:]...)
	kept := a.relations[:0]
	for _, rel := range a.relations {
		if rel.From != id && rel.To != id {
			kept = append(kept, rel)
		}
	}
	a.relations = kept
	if a.highlighted == id {
		a.highlighted = ""
	}
	if a.relationFrom == id {
		a.relationMode = false
		a.relationFrom = ""
	}
}

// load replaces the regions without recording history. Caller must not hold mu.
func (a *Annotation) load(regions []domain.Region) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.restore(regions)
}

// restore replaces the regions. Caller holds mu.
func (a *Annotation) restore(regions []domain.Region) {
	a.regions = make([]*Region, 0, len(regions))
	for _, in := range regions {
		if in.ID == "" {
			in.ID = uuid.NewString()
		}
		a.regions = append(a.regions, a.newRegion(in))
	}
	if a.lookup(a.highlighted) == nil {
		a.highlighted = ""
	}
}

func (a *Annotation) serialize() []domain.Region {
	out := make([]domain.Region, 0, len(a.regions))
	for _, r := range a.regions {
		out = append(out, r.record())
	}
	return out
}

func (a *Annotation) lookup(id string) *Region {
	if id == "" {
		return nil
	}
	for _, r := range a.regions {
		if r.id == id {
			return r
		}
	}
	return nil
}

func (a *Annotation) newRegion(in domain.Region) *Region {
	return &Region{
		annotation: a,
		id:         in.ID,
		label:      in.Label,
		value:      cloneValue(in.Value),
		hidden:     in.Hidden,
	}
}
