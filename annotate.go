package annotate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/annotate/internal/logging"
	"github.com/aretw0/annotate/pkg/bridge"
	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/annotate/pkg/ports"
	"github.com/aretw0/annotate/pkg/registry"
	"github.com/aretw0/annotate/pkg/router"
	"github.com/aretw0/annotate/pkg/session"
	"github.com/aretw0/annotate/pkg/submission"
	"github.com/google/uuid"
)

// Session is the high-level entry point: one labeling task with its state, command router and
// submission controller wired together.
type Session struct {
	state      *session.State
	router     *router.Router
	submission *submission.Controller
	bridge     ports.EnvironmentBridge
	registry   *registry.Registry[ports.Controller]
	logger     *slog.Logger
}

type settings struct {
	id          string
	bridge      ports.EnvironmentBridge
	notifier    ports.Notifier
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
	registry    *registry.Registry[ports.Controller]
	factory     ports.CollectionFactory
	interfaces  []string
	task        *domain.TaskInput
	config      string
	project     *domain.Project
	description string
	store       *domain.StoreInput
	restore     *domain.Snapshot
	keymap      map[string]string
	subOpts     []submission.Option
}

// Option defines a functional option for configuring a Session.
type Option func(*settings)

// WithID sets the session ID (default: a random UUID).
func WithID(id string) Option {
	return func(s *settings) {
		s.id = id
	}
}

// WithBridge sets the host callbacks. Without it every hook succeeds immediately.
func WithBridge(b ports.EnvironmentBridge) Option {
	return func(s *settings) {
		s.bridge = b
	}
}

// WithNotifier sets where failures are shown to the user.
func WithNotifier(n ports.Notifier) Option {
	return func(s *settings) {
		s.notifier = n
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks for commands and the submit guard.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *settings) {
		s.hooks = hooks
	}
}

// WithRegistry publishes the session under its ID for hosts to look up.
func WithRegistry(r *registry.Registry[ports.Controller]) Option {
	return func(s *settings) {
		s.registry = r
	}
}

// WithCollectionFactory replaces the reference annotation model.
func WithCollectionFactory(f ports.CollectionFactory) Option {
	return func(s *settings) {
		s.factory = f
	}
}

// WithInterfaces enables capabilities such as "submit", "skip" and "update".
func WithInterfaces(names ...string) Option {
	return func(s *settings) {
		s.interfaces = append(s.interfaces, names...)
	}
}

// WithTask assigns the task at construction.
func WithTask(task domain.TaskInput) Option {
	return func(s *settings) {
		s.task = &task
	}
}

// WithConfig sets the labeling config.
func WithConfig(config string) Option {
	return func(s *settings) {
		s.config = config
	}
}

// WithProject sets the project the task belongs to.
func WithProject(p *domain.Project) Option {
	return func(s *settings) {
		s.project = p
	}
}

// WithDescription sets the task description.
func WithDescription(description string) Option {
	return func(s *settings) {
		s.description = description
	}
}

// WithStore populates the annotation collection from persisted completions and predictions.
func WithStore(in domain.StoreInput) Option {
	return func(s *settings) {
		s.store = &in
	}
}

// WithBundle applies everything a task source returned for one task.
func WithBundle(b *domain.TaskBundle) Option {
	return func(s *settings) {
		if b == nil {
			return
		}
		task := b.Task
		s.task = &task
		s.config = b.Config
		s.project = b.Project
		s.description = b.Description
		s.interfaces = append(s.interfaces, b.Interfaces...)
		store := b.Store
		s.store = &store
	}
}

// WithSnapshot resumes a previously persisted session. Task, config and store options are ignored.
func WithSnapshot(snap *domain.Snapshot) Option {
	return func(s *settings) {
		s.restore = snap
	}
}

// WithKeymap overrides default key combinations (command name to keys).
func WithKeymap(keymap map[string]string) Option {
	return func(s *settings) {
		s.keymap = keymap
	}
}

// WithGuardTimings sets the minimum and maximum hold of the submit guard.
func WithGuardTimings(minHold, maxHold time.Duration) Option {
	return func(s *settings) {
		s.subOpts = append(s.subOpts, submission.WithMinHold(minHold), submission.WithMaxHold(maxHold))
	}
}

// WithUnguardedUpdate makes updates call the host directly and return its error.
func WithUnguardedUpdate() Option {
	return func(s *settings) {
		s.subOpts = append(s.subOpts, submission.WithUnguardedUpdate())
	}
}

// WithLatePolicy sets what happens to rejections arriving after the guard ceiling.
func WithLatePolicy(p submission.LatePolicy) Option {
	return func(s *settings) {
		s.subOpts = append(s.subOpts, submission.WithLatePolicy(p))
	}
}

// New builds a session and fires the bridge's load hook once it is ready.
func New(ctx context.Context, opts ...Option) (*Session, error) {
	cfg := &settings{
		logger: logging.NewNop(),
		bridge: bridge.Nop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.id == "" {
		if cfg.restore != nil && cfg.restore.SessionID != "" {
			cfg.id = cfg.restore.SessionID
		} else {
			cfg.id = uuid.NewString()
		}
	}
	logger := cfg.logger.With("session_id", cfg.id)

	stateOpts := []session.StateOption{
		session.WithID(cfg.id),
		session.WithInterfaces(cfg.interfaces...),
		session.WithAlert(cfg.notifier),
		session.WithStateLogger(logger),
	}
	if cfg.factory != nil {
		stateOpts = append(stateOpts, session.WithCollectionFactory(cfg.factory))
	}
	state := session.NewState(stateOpts...)

	if err := populate(state, cfg); err != nil {
		return nil, err
	}

	subOpts := append([]submission.Option{
		submission.WithLogger(logger),
		submission.WithHooks(cfg.hooks),
	}, cfg.subOpts...)
	sub := submission.New(state, cfg.bridge, subOpts...)

	r := router.NewDefault(state, func() ports.Annotation {
		return state.Annotations().Selected()
	}, sub,
		router.WithLogger(logger),
		router.WithHooks(cfg.hooks),
		router.WithSessionID(cfg.id),
	)
	if len(cfg.keymap) > 0 {
		if err := r.ApplyKeymap(cfg.keymap); err != nil {
			return nil, err
		}
	}

	s := &Session{
		state:      state,
		router:     r,
		submission: sub,
		bridge:     cfg.bridge,
		registry:   cfg.registry,
		logger:     logger,
	}
	if s.registry != nil {
		s.registry.Register(cfg.id, s)
	}

	cfg.bridge.OnLoad(ctx, state)
	logger.Info("session ready", "interfaces", state.Interfaces())
	return s, nil
}

func populate(state *session.State, cfg *settings) error {
	if cfg.restore != nil {
		snap := *cfg.restore
		snap.SessionID = cfg.id
		if err := state.Restore(&snap); err != nil {
			return fmt.Errorf("failed to restore session: %w", err)
		}
		for _, name := range cfg.interfaces {
			if !state.HasInterface(name) {
				state.AddInterface(name)
			}
		}
		return nil
	}

	if err := state.AssignConfig(cfg.config); err != nil {
		return err
	}
	if cfg.task != nil {
		if err := state.AssignTask(*cfg.task); err != nil {
			return err
		}
	} else {
		state.SetFlags(domain.FlagPatch{NoTask: domain.Bool(true)})
	}
	state.SetProject(cfg.project)
	state.SetDescription(cfg.description)
	if cfg.store != nil {
		if err := state.InitializeStore(*cfg.store); err != nil {
			return err
		}
	}
	return nil
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.state.ID()
}

// State returns the underlying session state.
func (s *Session) State() *session.State {
	return s.state
}

// Router returns the command router.
func (s *Session) Router() *router.Router {
	return s.router
}

// Submission returns the submission controller.
func (s *Session) Submission() *submission.Controller {
	return s.submission
}

// Snapshot returns a serializable picture of the session.
func (s *Session) Snapshot() domain.Snapshot {
	return s.state.Snapshot()
}

// Execute runs a command by name.
func (s *Session) Execute(ctx context.Context, command string) (bool, error) {
	return s.router.Execute(ctx, command)
}

// Dispatch runs the command bound to a key combination.
func (s *Session) Dispatch(ctx context.Context, combo string) (bool, error) {
	return s.router.Dispatch(ctx, combo)
}

// Commands lists the binding table with current availability.
func (s *Session) Commands() []ports.CommandInfo {
	return s.router.Describe()
}

// BindHotkeys registers the binding table with a hotkey collaborator.
func (s *Session) BindHotkeys(ctx context.Context, binder ports.HotkeyBinder) {
	s.router.BindTo(ctx, binder)
}

// SetFlags applies a structured flag patch.
func (s *Session) SetFlags(patch domain.FlagPatch) {
	s.state.SetFlags(patch)
}

// SetFlagsFromMap applies recognized flags and returns the ignored keys.
func (s *Session) SetFlagsFromMap(values map[string]any) ([]string, error) {
	return s.state.SetFlagsFromMap(values)
}

// Flags returns the current flags.
func (s *Session) Flags() domain.Flags {
	return s.state.Flags()
}

// HasInterface reports whether a capability is enabled.
func (s *Session) HasInterface(name string) bool {
	return s.state.HasInterface(name)
}

// AddInterface enables a capability; bindings that need it work from the next dispatch on.
func (s *Session) AddInterface(name string) {
	s.state.AddInterface(name)
}

// AssignTask replaces the task.
func (s *Session) AssignTask(task domain.TaskInput) error {
	if err := s.state.AssignTask(task); err != nil {
		return err
	}
	s.state.SetFlags(domain.FlagPatch{NoTask: domain.Bool(false)})
	return nil
}

// AssignConfig replaces the labeling config.
func (s *Session) AssignConfig(config string) error {
	return s.state.AssignConfig(config)
}

// ToggleSettings flips the settings panel flag.
func (s *Session) ToggleSettings() {
	s.state.ToggleSettings()
}

// ToggleDescription flips the description panel flag.
func (s *Session) ToggleDescription() {
	s.state.ToggleDescription()
}

// ResetState discards every annotation.
func (s *Session) ResetState() {
	s.state.ResetState()
}

// SubmitCompletion submits the selected annotation.
func (s *Session) SubmitCompletion(ctx context.Context) error {
	return s.submission.SubmitCompletion(ctx)
}

// UpdateCompletion re-submits the selected annotation.
func (s *Session) UpdateCompletion(ctx context.Context) error {
	return s.submission.UpdateCompletion(ctx)
}

// SkipTask skips the task.
func (s *Session) SkipTask(ctx context.Context) error {
	return s.submission.SkipTask(ctx)
}

// SubmitDraft autosaves the selected annotation.
func (s *Session) SubmitDraft(ctx context.Context) error {
	return s.submission.SubmitDraft(ctx, s.state.Annotations().Selected())
}

// Close waits for pending guards and removes the session from its registry.
func (s *Session) Close() {
	s.submission.Wait()
	if s.registry != nil {
		s.registry.Unregister(s.ID())
	}
	s.logger.Debug("session closed")
}
