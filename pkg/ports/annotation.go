package ports

import "github.com/aretw0/annotate/pkg/domain"

// Region is a labeled region inside an annotation, as seen by commands.
type Region interface {
	ID() string
	ToggleHidden()
	DeleteRegion()
}

// History exposes undo/redo availability for an annotation.
type History interface {
	CanUndo() bool
	CanRedo() bool
	Undo()
	Redo()
}

// Annotation is the contract the controller consumes from one annotation.
type Annotation interface {
	ID() string

	// Submission contract.
	BeforeSend()
	Validate() bool
	SendUserGenerate()
	SentUserGenerate() bool
	SaveDraft() []domain.Region
	DropDraft()

	// Command contract.
	DeleteAllRegions()
	// HighlightedNode returns the highlighted region or nil. The reference is looked up, never owned.
	HighlightedNode() Region
	RelationMode() bool
	StartRelationMode(from Region)
	StopRelationMode()
	UnselectAll()
	SelectNext()
	History() History
}

// AnnotationCollection holds the annotations and predictions of a task and tracks the selection.
type AnnotationCollection interface {
	// Selected returns the selected annotation or nil.
	Selected() Annotation
	Select(id string) error
	InitRoot(config string) error
	AddCompletion(in domain.CompletionInput) (Annotation, error)
	AddPrediction(in domain.PredictionInput) (Annotation, error)
	// RestoreRecord re-adds an annotation from a snapshot without preferring its draft.
	RestoreRecord(rec domain.AnnotationRecord) (Annotation, error)
}

// AnnotationRecorder is implemented by collections that can serialize their contents.
type AnnotationRecorder interface {
	Records() []domain.AnnotationRecord
}

// Reinitializer is implemented by annotations that can drop their history after bulk loading.
type Reinitializer interface {
	ReinitHistory()
}

// CollectionFactory creates a fresh, empty collection. Used on construction and on reset.
type CollectionFactory func() AnnotationCollection
