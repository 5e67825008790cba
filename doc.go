/*
Package annotate is the controller behind a labeling session: it owns the lifecycle of one task,
routes user commands to the annotation currently being edited, and runs the submit, update and
skip requests against the host with a duplicate-request guard.

# Concept

The host supplies an environment bridge (how results are persisted), a notifier (how failures
are shown) and optionally a hotkey binder. The session keeps the labeling config, the task, the
enabled capabilities ("interfaces") and a small set of UI flags. Everything that happens to an
annotation goes through a static command table evaluated at dispatch time.

# Usage

	s, err := annotate.New(ctx,
		annotate.WithConfig(`<View><Image name="img" value="$image"/></View>`),
		annotate.WithTask(domain.TaskInput{ID: "42", Data: map[string]any{"image": "cat.png"}}),
		annotate.WithInterfaces(domain.CapabilitySubmit, domain.CapabilitySkip),
		annotate.WithBridge(bridge.New(bridge.Funcs{
			SubmitCompletion: func(ctx context.Context, s ports.Session, a ports.Annotation) error {
				return api.Save(ctx, s.Task().ID, a.ID())
			},
		})),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	// ctrl+enter submits the selected annotation.
	s.Dispatch(ctx, "ctrl+enter")

# Guard

While a request is in flight the IsSubmitting flag is raised. It is lowered once the request has
settled and at least 500ms have passed, or after 5s regardless. Failures reach the notifier; a
validation failure is silent.
*/
package annotate
