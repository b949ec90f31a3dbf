// Package telemetry groups the observability components of the
// client.
//
// # Components
//
//   - logging: structured slog loggers with credential redaction
//   - metrics: Prometheus instrumentation for requests, retries,
//     stream chunks, and token counts
//
// Both components attach to a client through options:
//
//	logger, _ := logging.New(logging.Config{Format: "json"})
//	m := metrics.New(nil)
//
//	client, err := routeway.New(
//		routeway.WithLogger(logger),
//		routeway.WithMetricsRecorder(m),
//	)
//
// # Credential Protection
//
// Log output always passes through a redactor that masks API keys and
// bearer tokens before they reach the sink:
//
//   - API keys: sk-abc123 → sk-***
//   - Bearer tokens: Bearer eyJhb... → Bearer ***
package telemetry
