// Package metrics provides Prometheus instrumentation for loadflow components.
//
// # Quick Start
//
// Wrap a loader in an instrumented publisher:
//
//	pub := progress.NewWithMetrics[string](loader, "downloads")
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Available Metrics
//
//   - loadflow_progress_subscriptions_total: Subscriptions created
//   - loadflow_progress_active_subscriptions: Subscriptions not yet terminated
//   - loadflow_progress_events_total: Load results delivered
//   - loadflow_progress_last_value: Most recent progress fraction
//   - loadflow_progress_terminations_total{outcome}: finished, failed or cancelled
//   - loadflow_progress_load_duration_seconds{outcome}: First request to termination
//   - loadflow_remote_polls_total: Remote job state reads
//   - loadflow_remote_errors_total: Failed remote job state reads
//
// # Runtime Control
//
// Components implementing Instrumentable can be switched at runtime:
//
//	pub.DisableMetrics()
//	_ = pub.EnableMetrics(metrics.Config{Enabled: true, Registry: reg})
package metrics
