package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeConfigFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_DeliversReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routeway.yaml")
	writeConfigFile(t, path, "timeout: 10s\n")

	w, err := NewWatcher(path, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reloads := make(chan *Config, 1)
	go w.Watch(ctx, func(cfg *Config) {
		select {
		case reloads <- cfg:
		default:
		}
	})

	// Let the watch loop register before mutating the file.
	time.Sleep(50 * time.Millisecond)
	writeConfigFile(t, path, "timeout: 42s\n")

	select {
	case cfg := <-reloads:
		if cfg.Timeout != 42*time.Second {
			t.Errorf("expected reloaded timeout, got %s", cfg.Timeout)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for reload")
	}

	w.Stop()
}

func TestWatcher_KeepsOldConfigOnBadReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routeway.yaml")
	writeConfigFile(t, path, "timeout: 10s\n")

	w, err := NewWatcher(path, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reloads := make(chan *Config, 2)
	go w.Watch(ctx, func(cfg *Config) { reloads <- cfg })

	time.Sleep(50 * time.Millisecond)
	writeConfigFile(t, path, "timeout: [broken\n")
	time.Sleep(3 * debounceInterval)

	select {
	case cfg := <-reloads:
		t.Fatalf("broken file should not trigger callback, got %+v", cfg)
	default:
	}

	// A subsequent good write still comes through.
	writeConfigFile(t, path, "timeout: 9s\n")
	select {
	case cfg := <-reloads:
		if cfg.Timeout != 9*time.Second {
			t.Errorf("expected recovered timeout, got %s", cfg.Timeout)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for recovery reload")
	}

	w.Stop()
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routeway.yaml")
	writeConfigFile(t, path, "timeout: 10s\n")

	w, err := NewWatcher(path, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reloads := make(chan *Config, 1)
	go w.Watch(ctx, func(cfg *Config) { reloads <- cfg })

	time.Sleep(50 * time.Millisecond)
	writeConfigFile(t, filepath.Join(dir, "other.yaml"), "timeout: 1s\n")
	time.Sleep(3 * debounceInterval)

	select {
	case <-reloads:
		t.Fatal("sibling file write should not trigger a reload")
	default:
	}

	w.Stop()
}

func TestWatcher_ContextCancellation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routeway.yaml")
	writeConfigFile(t, path, "timeout: 10s\n")

	w, err := NewWatcher(path, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Watch(ctx, func(*Config) {}) }()

	cancel()
	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not exit on cancellation")
	}
}
