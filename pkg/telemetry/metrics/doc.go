// Package metrics exposes Prometheus instrumentation for the client.
//
// ClientMetrics implements the routeway.MetricsRecorder interface, so
// wiring is a single option:
//
//	m := metrics.New(nil)
//	client, err := routeway.New(routeway.WithMetricsRecorder(m))
//
// The registry is injectable for tests and for applications that run
// their own; passing nil creates a private registry reachable via
// Registry().
package metrics
