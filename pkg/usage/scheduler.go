package usage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler prunes the ledger on a cron schedule, for long-running
// applications that keep a client open for days.
type Scheduler struct {
	ledger        *Ledger
	schedule      string
	retentionDays int
	cron          *cron.Cron
	logger        *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler creates a scheduler that prunes records older than
// retentionDays per the cron expression schedule, for example
// "0 3 * * *" for daily at 3 AM.
func NewScheduler(ledger *Ledger, schedule string, retentionDays int) *Scheduler {
	return &Scheduler{
		ledger:        ledger,
		schedule:      schedule,
		retentionDays: retentionDays,
		cron:          cron.New(),
		logger:        ledger.logger.With("component", "usage.scheduler"),
	}
}

// Start begins scheduled pruning. An empty schedule is a no-op. The
// scheduler stops when the context is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.runPruning(ctx) }); err != nil {
		return fmt.Errorf("scheduling usage pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("usage retention scheduler started",
		"schedule", s.schedule,
		"retention_days", s.retentionDays,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) runPruning(ctx context.Context) {
	deleted, err := s.ledger.Prune(ctx, s.retentionDays)
	if err != nil {
		s.logger.Error("scheduled usage pruning failed", "error", err)
		return
	}
	if deleted > 0 {
		s.logger.Info("scheduled usage pruning completed", "deleted_count", deleted)
	} else {
		s.logger.Debug("scheduled usage pruning completed, nothing to delete")
	}
}

// Stop halts the scheduler and waits for any running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("usage retention scheduler stopped")
	}
}

// IsRunning reports whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled pruning time, or the zero time
// when nothing is scheduled.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
