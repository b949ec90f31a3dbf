package usage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"mercator-hq/routeway/pkg/routeway"
)

const schema = `
CREATE TABLE IF NOT EXISTS usage_records (
	id                TEXT PRIMARY KEY,
	recorded_at       TIMESTAMP NOT NULL,
	model             TEXT NOT NULL,
	endpoint          TEXT NOT NULL,
	streamed          INTEGER NOT NULL,
	prompt_tokens     INTEGER NOT NULL,
	completion_tokens INTEGER NOT NULL,
	total_tokens      INTEGER NOT NULL,
	reasoning_tokens  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_usage_recorded_at ON usage_records(recorded_at);
CREATE INDEX IF NOT EXISTS idx_usage_model ON usage_records(model);
`

// Config contains configuration for the ledger.
type Config struct {
	// Path is the SQLite database file path.
	Path string

	// BusyTimeout is how long to wait when the database is locked.
	// Default: 5 seconds.
	BusyTimeout time.Duration

	// Logger receives operational log entries. Defaults to
	// slog.Default.
	Logger *slog.Logger
}

// Record is one persisted usage entry.
type Record struct {
	ID               string
	RecordedAt       time.Time
	Model            string
	Endpoint         string
	Streamed         bool
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	ReasoningTokens  int
}

// ModelSummary aggregates usage for one model.
type ModelSummary struct {
	Model            string
	Requests         int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Ledger is a SQLite-backed usage store. It satisfies the
// routeway.UsageRecorder interface.
type Ledger struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates or opens the ledger database at cfg.Path and ensures
// the schema exists.
func Open(cfg Config) (*Ledger, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("usage ledger path must be non-empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "usage.ledger")

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening usage ledger: %w", err)
	}

	// A single writer avoids SQLITE_BUSY under concurrent streams.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", cfg.BusyTimeout.Milliseconds())); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating usage schema: %w", err)
	}

	logger.Debug("usage ledger opened", "path", cfg.Path)

	return &Ledger{db: db, logger: logger}, nil
}

// RecordUsage persists one completed call. Failures are logged and
// swallowed: a broken ledger must never fail an API call.
func (l *Ledger) RecordUsage(ctx context.Context, model, endpoint string, streamed bool, usage routeway.Usage) {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO usage_records
			(id, recorded_at, model, endpoint, streamed,
			 prompt_tokens, completion_tokens, total_tokens, reasoning_tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), time.Now().UTC(), model, endpoint, streamed,
		usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens, usage.ReasoningTokens,
	)
	if err != nil {
		l.logger.Error("failed to record usage", "model", model, "error", err)
	}
}

// Summary aggregates usage per model over the given window. A zero
// since means all records.
func (l *Ledger) Summary(ctx context.Context, since time.Time) ([]ModelSummary, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT model,
		       COUNT(*),
		       SUM(prompt_tokens),
		       SUM(completion_tokens),
		       SUM(total_tokens)
		FROM usage_records
		WHERE recorded_at >= ?
		GROUP BY model
		ORDER BY SUM(total_tokens) DESC`,
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying usage summary: %w", err)
	}
	defer rows.Close()

	var out []ModelSummary
	for rows.Next() {
		var s ModelSummary
		if err := rows.Scan(&s.Model, &s.Requests, &s.PromptTokens, &s.CompletionTokens, &s.TotalTokens); err != nil {
			return nil, fmt.Errorf("scanning usage summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Recent returns the most recent records, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, recorded_at, model, endpoint, streamed,
		       prompt_tokens, completion_tokens, total_tokens, reasoning_tokens
		FROM usage_records
		ORDER BY recorded_at DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying usage records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.RecordedAt, &r.Model, &r.Endpoint, &r.Streamed,
			&r.PromptTokens, &r.CompletionTokens, &r.TotalTokens, &r.ReasoningTokens); err != nil {
			return nil, fmt.Errorf("scanning usage record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune deletes records older than retentionDays. Zero or negative
// retention keeps everything.
func (l *Ledger) Prune(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM usage_records WHERE recorded_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning usage records: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned records: %w", err)
	}
	return deleted, nil
}

// Close releases the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}
