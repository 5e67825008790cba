package submission

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

const (
	// DefaultMinHold keeps the guard up long enough to swallow a double click.
	DefaultMinHold = 500 * time.Millisecond
	// DefaultMaxHold stops a hung request from disabling submission forever.
	DefaultMaxHold = 5 * time.Second

	DefaultSubmitMessage = "Error during submit"
	DefaultUpdateMessage = "Error during update"
	DefaultSkipMessage   = "Error during skip, try again"
)

// Action names reported in guard events.
const (
	ActionSubmit = "submit"
	ActionUpdate = "update"
	ActionSkip   = "skip"
	ActionCustom = "custom"
)

// LatePolicy decides what happens to a rejection that arrives after the ceiling released the guard.
type LatePolicy int

const (
	// LateNotify reports late rejections through the notifier.
	LateNotify LatePolicy = iota
	// LateDiscard logs late rejections and drops them.
	LateDiscard
)

// Action is a guarded bridge call. ctx is cancelled when the guard stops waiting for it.
type Action func(ctx context.Context) error

// Session is what the controller needs from the session state.
type Session interface {
	ports.Session
	SetFlags(patch domain.FlagPatch)
	Annotations() ports.AnnotationCollection
}

// Controller runs the submission flows for one session. Safe for concurrent use.
type Controller struct {
	session Session
	bridge  ports.EnvironmentBridge

	notifier        ports.Notifier
	minHold         time.Duration
	maxHold         time.Duration
	unguardedUpdate bool
	late            LatePolicy
	hooks           domain.LifecycleHooks
	logger          *slog.Logger

	wg sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithMinHold sets how long the guard stays up at minimum.
func WithMinHold(d time.Duration) Option {
	return func(c *Controller) {
		c.minHold = d
	}
}

// WithMaxHold sets the ceiling after which the guard releases regardless of the call.
func WithMaxHold(d time.Duration) Option {
	return func(c *Controller) {
		c.maxHold = d
	}
}

// WithUnguardedUpdate makes UpdateCompletion call the bridge directly, returning its error.
func WithUnguardedUpdate() Option {
	return func(c *Controller) {
		c.unguardedUpdate = true
	}
}

// WithLatePolicy sets the handling of rejections arriving after the ceiling.
func WithLatePolicy(p LatePolicy) Option {
	return func(c *Controller) {
		c.late = p
	}
}

// WithNotifier overrides the notification channel.
// Without it the session's alert channel is used, then the bridge's.
func WithNotifier(n ports.Notifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

// WithHooks registers guard lifecycle hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithLogger configures a logger for the Controller.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New creates a controller over the session and bridge.
func New(session Session, bridge ports.EnvironmentBridge, opts ...Option) *Controller {
	c := &Controller{
		session: session,
		bridge:  bridge,
		minHold: DefaultMinHold,
		maxHold: DefaultMaxHold,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitCompletion sends the selected annotation to the host.
// It returns once the guard is engaged; the outcome is reported through the notifier.
func (c *Controller) SubmitCompletion(ctx context.Context) error {
	sel, err := c.prepare()
	if err != nil {
		return err
	}
	sel.SendUserGenerate()
	sel.DropDraft()
	c.guard(ctx, ActionSubmit, func(ctx context.Context) error {
		return c.bridge.SubmitCompletion(ctx, c.session, sel)
	}, DefaultSubmitMessage)
	return nil
}

// UpdateCompletion sends an already submitted annotation again.
// With WithUnguardedUpdate the bridge is called directly and its error returned.
func (c *Controller) UpdateCompletion(ctx context.Context) error {
	sel, err := c.prepare()
	if err != nil {
		return err
	}
	sel.DropDraft()

	if c.unguardedUpdate {
		if err := c.call(ctx, func(ctx context.Context) error {
			return c.bridge.UpdateCompletion(ctx, c.session, sel)
		}); err != nil {
			return fmt.Errorf("update failed: %w", err)
		}
	} else {
		c.guard(ctx, ActionUpdate, func(ctx context.Context) error {
			return c.bridge.UpdateCompletion(ctx, c.session, sel)
		}, DefaultUpdateMessage)
	}

	if !sel.SentUserGenerate() {
		sel.SendUserGenerate()
	}
	return nil
}

// SkipTask tells the host the task was skipped. No selection is needed.
func (c *Controller) SkipTask(ctx context.Context) error {
	c.guard(ctx, ActionSkip, func(ctx context.Context) error {
		return c.bridge.SkipTask(ctx, c.session)
	}, DefaultSkipMessage)
	return nil
}

// SubmitDraft stores the current regions of a as its draft and hands the draft to the host.
// It blocks until the host settles.
func (c *Controller) SubmitDraft(ctx context.Context, a ports.Annotation) error {
	if a == nil {
		return domain.ErrNoSelection
	}
	a.SaveDraft()
	return c.call(ctx, func(ctx context.Context) error {
		return c.bridge.SubmitDraft(ctx, c.session, a)
	})
}

// HandleSubmitting runs action under the duplicate-request guard.
// The returned channel is closed when the guard releases.
func (c *Controller) HandleSubmitting(ctx context.Context, action Action, defaultMessage string) <-chan struct{} {
	return c.guard(ctx, ActionCustom, action, defaultMessage)
}

// Wait blocks until every engaged guard has released.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) prepare() (ports.Annotation, error) {
	sel := c.session.Annotations().Selected()
	if sel == nil {
		return nil, domain.ErrNoSelection
	}
	sel.BeforeSend()
	if !sel.Validate() {
		c.logger.Debug("annotation failed validation", "session_id", c.session.ID(), "annotation_id", sel.ID())
		return nil, domain.ErrValidationFailed
	}
	return sel, nil
}

func (c *Controller) guard(ctx context.Context, name string, action Action, defaultMessage string) <-chan struct{} {
	released := make(chan struct{})
	start := time.Now()

	c.session.SetFlags(domain.FlagPatch{IsSubmitting: domain.Bool(true)})
	c.emit(ctx, c.hooks.OnGuardEngage, &domain.GuardEvent{Action: name})

	// The action outlives the triggering request; only the ceiling cancels it.
	actx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	result := make(chan error, 1)
	go func() {
		result <- c.call(actx, action)
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		minTimer := time.NewTimer(c.minHold)
		defer minTimer.Stop()
		maxTimer := time.NewTimer(c.maxHold)
		defer maxTimer.Stop()

		var (
			settled    bool
			minElapsed bool
			outcome    = domain.GuardSettled
			failure    error
		)

		release := func() {
			cancel()
			c.session.SetFlags(domain.FlagPatch{IsSubmitting: domain.Bool(false)})
			c.emit(ctx, c.hooks.OnGuardRelease, &domain.GuardEvent{
				Action:  name,
				Outcome: outcome,
				Held:    time.Since(start),
				Err:     failure,
			})
			close(released)
		}

		for {
			select {
			case err := <-result:
				settled = true
				result = nil
				if err != nil {
					outcome, failure = domain.GuardRejected, err
					c.notify(err, defaultMessage)
				}
				if minElapsed {
					release()
					return
				}
			case <-minTimer.C:
				minElapsed = true
				if settled {
					release()
					return
				}
			case <-maxTimer.C:
				outcome = domain.GuardTimeout
				c.logger.Warn("request still pending, releasing submit guard",
					"session_id", c.session.ID(),
					"action", name,
					"max_hold", c.maxHold,
				)
				pending := result
				release()
				if !settled {
					go c.awaitLate(ctx, name, pending, defaultMessage)
				}
				return
			}
		}
	}()

	return released
}

// awaitLate applies the late policy to an action that outlived the ceiling.
func (c *Controller) awaitLate(ctx context.Context, name string, result <-chan error, defaultMessage string) {
	err := <-result
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	c.emit(ctx, c.hooks.OnGuardRelease, &domain.GuardEvent{
		Action:  name,
		Outcome: domain.GuardLateRejected,
		Err:     err,
	})
	if c.late == LateDiscard {
		c.logger.Warn("late rejection discarded", "session_id", c.session.ID(), "action", name, "err", err)
		return
	}
	c.notify(err, defaultMessage)
}

// call runs action, turning a panic into an error.
func (c *Controller) call(ctx context.Context, action Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bridge panic: %v", r)
		}
	}()
	return action(ctx)
}

func (c *Controller) notify(err error, defaultMessage string) {
	message := err.Error()
	if message == "" {
		message = defaultMessage
	}
	c.logger.Error("request failed", "session_id", c.session.ID(), "err", err)

	if n := c.resolveNotifier(); n != nil {
		n.ShowModal(message, domain.SeverityWarning)
	}
}

func (c *Controller) resolveNotifier() ports.Notifier {
	if c.notifier != nil {
		return c.notifier
	}
	if n := c.session.Alert(); n != nil {
		return n
	}
	if c.bridge != nil {
		return c.bridge.Alert()
	}
	return nil
}

func (c *Controller) emit(ctx context.Context, hook func(context.Context, *domain.GuardEvent), e *domain.GuardEvent) {
	if hook == nil {
		return
	}
	e.Timestamp = time.Now()
	e.SessionID = c.session.ID()
	hook(ctx, e)
}
