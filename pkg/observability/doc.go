/*
Package observability turns engine lifecycle hooks into Prometheus metrics
and structured log lines.

Both helpers return a domain.LifecycleHooks value, so they compose with
LifecycleHooks.Merge and arcade.WithLifecycleHooks:

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	eng, err := arcade.New(graph, arcade.WithLifecycleHooks(
		metrics.Hooks().Merge(observability.LoggingHooks(logger)),
	))
*/
package observability
