package annotate_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/annotate"
	"github.com/aretw0/annotate/pkg/annotation"
	"github.com/aretw0/annotate/pkg/bridge"
	"github.com/aretw0/annotate/pkg/domain"
	"github.com/aretw0/annotate/pkg/ports"
	"github.com/aretw0/annotate/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notifierSpy struct {
	mu       sync.Mutex
	messages []string
}

func (n *notifierSpy) ShowModal(message string, _ domain.Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *notifierSpy) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func fastGuard() annotate.Option {
	return annotate.WithGuardTimings(10*time.Millisecond, 200*time.Millisecond)
}

func TestNew_Defaults(t *testing.T) {
	s, err := annotate.New(context.Background())
	require.NoError(t, err)
	defer s.Close()

	assert.NotEmpty(t, s.ID())
	assert.True(t, s.Flags().NoTask, "a session without a task says so")
	assert.Nil(t, s.State().Annotations().Selected())
}

func TestNew_OnLoadFiresOnce(t *testing.T) {
	var loads int
	var seen ports.Session
	b := bridge.New(bridge.Funcs{
		OnLoad: func(_ context.Context, s ports.Session) {
			loads++
			seen = s
		},
	})

	s, err := annotate.New(context.Background(),
		annotate.WithID("s1"),
		annotate.WithBridge(b),
		annotate.WithTask(domain.TaskInput{ID: "t1", Data: map[string]any{"text": "hi"}}),
	)
	require.NoError(t, err)

	assert.Equal(t, 1, loads)
	require.NotNil(t, seen)
	assert.Equal(t, "s1", seen.ID())
	assert.Equal(t, `{"text":"hi"}`, seen.Task().Data)
	assert.False(t, s.Flags().NoTask)
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := annotate.New(context.Background(), annotate.WithConfig("<View>"))
	assert.Error(t, err)
}

func TestSession_SubmitFlow(t *testing.T) {
	ctx := context.Background()
	submitted := make(chan string, 1)
	spy := &notifierSpy{}

	s, err := annotate.New(ctx,
		fastGuard(),
		annotate.WithNotifier(spy),
		annotate.WithBundle(&domain.TaskBundle{
			Task:   domain.TaskInput{ID: "t1", Data: "text"},
			Config: "<View/>",
			Store: domain.StoreInput{
				Completions: []domain.CompletionInput{{ID: "c1", Result: []domain.Region{{ID: "r1", Label: "pos"}}}},
			},
		}),
		annotate.WithBridge(bridge.New(bridge.Funcs{
			SubmitCompletion: func(_ context.Context, _ ports.Session, a ports.Annotation) error {
				submitted <- a.ID()
				return nil
			},
		})),
	)
	require.NoError(t, err)

	handled, err := s.Dispatch(ctx, "ctrl+enter")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.True(t, s.Flags().IsSubmitting)

	s.Close()
	assert.Equal(t, "c1", <-submitted)
	assert.False(t, s.Flags().IsSubmitting)
	assert.Empty(t, spy.all())
}

func TestSession_SkipNeedsCapability(t *testing.T) {
	ctx := context.Background()
	spy := &notifierSpy{}

	s, err := annotate.New(ctx,
		fastGuard(),
		annotate.WithNotifier(spy),
		annotate.WithBridge(bridge.New(bridge.Funcs{
			SkipTask: func(context.Context, ports.Session) error { return errors.New("X") },
		})),
	)
	require.NoError(t, err)

	handled, err := s.Dispatch(ctx, "ctrl+space")
	require.NoError(t, err)
	assert.False(t, handled)

	s.AddInterface(domain.CapabilitySkip)
	handled, err = s.Dispatch(ctx, "ctrl+space")
	require.NoError(t, err)
	assert.True(t, handled)

	s.Close()
	assert.Equal(t, []string{"X"}, spy.all())
	assert.False(t, s.Flags().IsSubmitting)
}

func TestSession_Registry(t *testing.T) {
	reg := registry.NewRegistry[ports.Controller]()
	s, err := annotate.New(context.Background(), annotate.WithID("pub"), annotate.WithRegistry(reg))
	require.NoError(t, err)

	got, ok := reg.Lookup("pub")
	require.True(t, ok)
	assert.Same(t, s, got)

	s.Close()
	_, ok = reg.Lookup("pub")
	assert.False(t, ok)
}

func TestSession_Keymap(t *testing.T) {
	ctx := context.Background()
	s, err := annotate.New(ctx, annotate.WithKeymap(map[string]string{"undo": "ctrl+u"}))
	require.NoError(t, err)

	a := s.State().Annotations().(*annotation.Collection).Create()
	a.AddRegion(domain.Region{ID: "r1"})

	handled, _ := s.Dispatch(ctx, "ctrl+u")
	assert.True(t, handled)
	assert.Equal(t, 0, a.Len())

	_, err = annotate.New(ctx, annotate.WithKeymap(map[string]string{"fly": "f"}))
	assert.ErrorIs(t, err, domain.ErrUnknownCommand)
}

func TestSession_SnapshotResume(t *testing.T) {
	ctx := context.Background()
	s, err := annotate.New(ctx,
		annotate.WithID("s1"),
		annotate.WithInterfaces(domain.CapabilityUpdate),
		annotate.WithConfig("<View/>"),
		annotate.WithTask(domain.TaskInput{ID: "t1", Data: "x"}),
		annotate.WithStore(domain.StoreInput{
			Completions: []domain.CompletionInput{{ID: "c1", Result: []domain.Region{{ID: "r1"}}}},
		}),
	)
	require.NoError(t, err)
	s.ToggleDescription()
	snap := s.Snapshot()
	s.Close()

	resumed, err := annotate.New(ctx, annotate.WithSnapshot(&snap), annotate.WithInterfaces(domain.CapabilitySkip))
	require.NoError(t, err)
	defer resumed.Close()

	assert.Equal(t, "s1", resumed.ID())
	assert.True(t, resumed.HasInterface(domain.CapabilityUpdate))
	assert.True(t, resumed.HasInterface(domain.CapabilitySkip))
	assert.True(t, resumed.Flags().ShowingDescription)
	require.NotNil(t, resumed.State().Annotations().Selected())
	assert.Equal(t, "c1", resumed.State().Annotations().Selected().ID())
}

func TestSession_Commands(t *testing.T) {
	s, err := annotate.New(context.Background(), annotate.WithInterfaces(domain.CapabilityUpdate))
	require.NoError(t, err)

	active := map[string]bool{}
	for _, c := range s.Commands() {
		active[c.Command] = c.Active
	}
	assert.True(t, active["update"])
	assert.False(t, active["skip"])
	assert.True(t, active["submit"])
	assert.True(t, active["save-draft"])

	_, err = s.Execute(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrUnknownCommand)
}

func regionIDs(regions []domain.Region) []string {
	ids := make([]string, 0, len(regions))
	for _, r := range regions {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestSession_ResumeKeepsEditsOverDraft(t *testing.T) {
	ctx := context.Background()
	s, err := annotate.New(ctx,
		annotate.WithID("s1"),
		annotate.WithConfig("<View/>"),
		annotate.WithTask(domain.TaskInput{ID: "t1", Data: "x"}),
		annotate.WithStore(domain.StoreInput{
			Completions: []domain.CompletionInput{{
				ID:     "c1",
				Result: []domain.Region{{ID: "r1"}},
				Draft:  []domain.Region{{ID: "r1"}, {ID: "r2"}},
			}},
		}),
	)
	require.NoError(t, err)

	_, err = s.Dispatch(ctx, "alt+tab")
	require.NoError(t, err)
	handled, err := s.Execute(ctx, "delete-selected-region")
	require.NoError(t, err)
	require.True(t, handled)

	snap := s.Snapshot()
	s.Close()
	require.Len(t, snap.Annotations, 1)
	assert.Equal(t, []string{"r2"}, regionIDs(snap.Annotations[0].Result))

	resumed, err := annotate.New(ctx, annotate.WithSnapshot(&snap))
	require.NoError(t, err)
	defer resumed.Close()

	rec := resumed.Snapshot().Annotations[0]
	assert.Equal(t, []string{"r2"}, regionIDs(rec.Result), "the edited result survives, not the draft")
	assert.Equal(t, []string{"r1", "r2"}, regionIDs(rec.Draft))
}
