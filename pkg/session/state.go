package session

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/annotate/internal/logging"
	"github.com/aretw0/annotate/pkg/annotation"
	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/annotate/pkg/ports"
)

// State is the top-level per-task state container. Safe for concurrent use.
type State struct {
	mu sync.RWMutex

	id          string
	config      string
	task        *domain.Task
	project     *domain.Project
	description string
	interfaces  []string
	flags       domain.Flags

	annotations ports.AnnotationCollection
	factory     ports.CollectionFactory
	alert       ports.Notifier
	logger      *slog.Logger
}

// StateOption configures a State.
type StateOption func(*State)

// WithID sets the session ID.
func WithID(id string) StateOption {
	return func(s *State) {
		s.id = id
	}
}

// WithInterfaces enables the given capabilities at construction.
func WithInterfaces(names ...string) StateOption {
	return func(s *State) {
		s.interfaces = append(s.interfaces, names...)
	}
}

// WithCollectionFactory replaces the reference annotation model.
func WithCollectionFactory(f ports.CollectionFactory) StateOption {
	return func(s *State) {
		s.factory = f
	}
}

// WithAlert sets the host's status-presentation channel.
func WithAlert(n ports.Notifier) StateOption {
	return func(s *State) {
		s.alert = n
	}
}

// WithStateLogger configures a logger for the State.
func WithStateLogger(logger *slog.Logger) StateOption {
	return func(s *State) {
		s.logger = logger
	}
}

// NewState creates the state with an empty annotation collection.
func NewState(opts ...StateOption) *State {
	s := &State{
		factory: annotation.Factory(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.annotations = s.factory()
	return s
}

// ID returns the session ID.
func (s *State) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Config returns the labeling config.
func (s *State) Config() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Task returns the assigned task or nil.
func (s *State) Task() *domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.task == nil {
		return nil
	}
	t := *s.task
	return &t
}

// Project returns the project or nil.
func (s *State) Project() *domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.project == nil {
		return nil
	}
	p := *s.project
	return &p
}

// Description returns the task description shown when ShowingDescription is set.
func (s *State) Description() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.description
}

// Alert returns the host's status-presentation channel. May be nil.
func (s *State) Alert() ports.Notifier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alert
}

// Flags returns a copy of the UI flags.
func (s *State) Flags() domain.Flags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags
}

// SetFlags overwrites every flag present in the patch.
func (s *State) SetFlags(patch domain.FlagPatch) {
	if patch.Empty() {
		return
	}
	s.mu.Lock()
	s.flags = patch.Apply(s.flags)
	s.mu.Unlock()
}

// SetFlagsFromMap applies the recognized keys of values and returns the ignored ones.
// Nothing is applied when a recognized key holds a non-boolean.
func (s *State) SetFlagsFromMap(values map[string]any) ([]string, error) {
	patch, ignored, err := domain.ParseFlagPatch(values)
	if err != nil {
		return nil, err
	}
	if len(ignored) > 0 {
		s.logger.Debug("ignored unknown flags", "session_id", s.ID(), "keys", ignored)
	}
	s.SetFlags(patch)
	return ignored, nil
}

// ToggleSettings flips ShowingSettings.
func (s *State) ToggleSettings() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags.ShowingSettings = !s.flags.ShowingSettings
}

// ToggleDescription flips ShowingDescription.
func (s *State) ToggleDescription() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags.ShowingDescription = !s.flags.ShowingDescription
}

// HasInterface reports whether the capability is enabled.
func (s *State) HasInterface(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.interfaces, name)
}

// AddInterface enables a capability. Duplicates are kept; membership is all that is ever asked.
func (s *State) AddInterface(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interfaces = append(s.interfaces, name)
}

// Interfaces returns the enabled capabilities in insertion order.
func (s *State) Interfaces() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.interfaces)
}

// AssignTask stores the task, serializing non-string data first.
func (s *State) AssignTask(in domain.TaskInput) error {
	task, err := domain.NewTask(in)
	if err != nil {
		return fmt.Errorf("failed to assign task %q: %w", in.ID, err)
	}
	s.mu.Lock()
	s.task = task
	s.mu.Unlock()
	return nil
}

// SetProject stores the project.
func (s *State) SetProject(p *domain.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project = p
}

// SetDescription stores the task description.
func (s *State) SetDescription(description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.description = description
}

// AssignConfig stores the labeling config and re-initializes the collection against it.
func (s *State) AssignConfig(config string) error {
	s.mu.Lock()
	s.config = config
	cs := s.annotations
	s.mu.Unlock()

	if err := cs.InitRoot(config); err != nil {
		return fmt.Errorf("failed to initialize annotation root: %w", err)
	}
	return nil
}

// Annotations returns the current collection.
func (s *State) Annotations() ports.AnnotationCollection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.annotations
}

// ResetState replaces the collection with a fresh, empty one. The old collection is discarded.
func (s *State) ResetState() {
	fresh := s.factory()
	s.mu.Lock()
	s.annotations = fresh
	s.mu.Unlock()
	s.logger.Debug("annotation collection reset", "session_id", s.ID())
}

// InitializeStore populates the collection from persisted predictions and completions.
// Each item is selected as it is added, so the last completion (or prediction) ends up selected.
func (s *State) InitializeStore(in domain.StoreInput) error {
	cs := s.Annotations()
	if err := cs.InitRoot(s.Config()); err != nil {
		return fmt.Errorf("failed to initialize annotation root: %w", err)
	}

	for _, p := range in.Predictions {
		obj, err := cs.AddPrediction(p)
		if err != nil {
			return fmt.Errorf("failed to add prediction %q: %w", p.ID, err)
		}
		if err := cs.Select(obj.ID()); err != nil {
			return err
		}
	}

	for _, c := range in.Completions {
		obj, err := cs.AddCompletion(c)
		if err != nil {
			return fmt.Errorf("failed to add completion %q: %w", c.ID, err)
		}
		if err := cs.Select(obj.ID()); err != nil {
			return err
		}
		if r, ok := obj.(ports.Reinitializer); ok {
			r.ReinitHistory()
		}
	}

	s.logger.Debug("annotation store initialized",
		"session_id", s.ID(),
		"predictions", len(in.Predictions),
		"completions", len(in.Completions),
	)
	return nil
}

// Snapshot returns a serializable picture of the session.
func (s *State) Snapshot() domain.Snapshot {
	s.mu.RLock()
	snap := domain.Snapshot{
		SessionID:   s.id,
		Config:      s.config,
		Description: s.description,
		Interfaces:  slices.Clone(s.interfaces),
		Flags:       s.flags,
		SavedAt:     time.Now().UTC(),
	}
	if s.task != nil {
		t := *s.task
		snap.Task = &t
	}
	if s.project != nil {
		p := *s.project
		snap.Project = &p
	}
	cs := s.annotations
	s.mu.RUnlock()

	if sel := cs.Selected(); sel != nil {
		snap.Selected = sel.ID()
	}
	if rec, ok := cs.(ports.AnnotationRecorder); ok {
		snap.Annotations = rec.Records()
	}
	return snap
}

// Restore rebuilds the session from a snapshot. IsSubmitting never survives a restore.
func (s *State) Restore(snap *domain.Snapshot) error {
	fresh := s.factory()
	if err := fresh.InitRoot(snap.Config); err != nil {
		return fmt.Errorf("failed to initialize annotation root: %w", err)
	}

	for _, rec := range snap.Annotations {
		if _, err := fresh.RestoreRecord(rec); err != nil {
			return fmt.Errorf("failed to restore annotation %q: %w", rec.ID, err)
		}
	}
	if snap.Selected != "" {
		if err := fresh.Select(snap.Selected); err != nil {
			return err
		}
	}

	flags := snap.Flags
	flags.IsSubmitting = false

	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.SessionID != "" {
		s.id = snap.SessionID
	}
	s.config = snap.Config
	s.task = snap.Task
	s.project = snap.Project
	s.description = snap.Description
	s.interfaces = slices.Clone(snap.Interfaces)
	s.flags = flags
	s.annotations = fresh
	return nil
}
