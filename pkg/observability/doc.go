/*
Package observability turns session lifecycle events into logs and Prometheus metrics.

Everything here plugs into domain.LifecycleHooks, so a host opts in by passing the hooks to the
session:

	metrics := observability.NewMetrics()
	hooks := observability.Combine(metrics.Hooks(), observability.LogHooks(logger))
	s, err := annotate.New(ctx, annotate.WithLifecycleHooks(hooks))
*/
package observability
