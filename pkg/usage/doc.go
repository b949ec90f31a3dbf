// Package usage persists per-call token usage to a local SQLite
// ledger.
//
// The Ledger implements routeway.UsageRecorder, so attaching it to a
// client is one option:
//
//	ledger, err := usage.Open(usage.Config{Path: "routeway-usage.db"})
//	client, err := routeway.New(routeway.WithUsageRecorder(ledger))
//
// Records accumulate per request; Summary aggregates them by model for
// cost review, and a Scheduler can prune old records on a cron
// schedule.
package usage
