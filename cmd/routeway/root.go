package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/routeway/pkg/config"
	"mercator-hq/routeway/pkg/routeway"
	"mercator-hq/routeway/pkg/telemetry/logging"
	"mercator-hq/routeway/pkg/usage"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "routeway",
	Short: "Routeway - command-line client for the Routeway API",
	Long: `Routeway is a command-line client for the Routeway chat completion API.

It provides:
  - Chat completions, blocking or streamed token by token
  - Model discovery
  - A local SQLite ledger of token usage

The API key is read from ROUTEWAY_API_KEY or the config file.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig resolves configuration from the --config file when given,
// otherwise from defaults and the environment.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.Default()
}

// newClient builds a client from the resolved configuration, wiring
// the logger and, when enabled, the usage ledger. The returned cleanup
// releases both.
func newClient(cfg *config.Config) (*routeway.Client, func(), error) {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{
		Level:  level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, nil, err
	}

	opts := []routeway.Option{
		routeway.WithBaseURL(cfg.BaseURL),
		routeway.WithTimeout(cfg.Timeout),
		routeway.WithLogger(logger),
	}
	if cfg.APIKey != "" {
		opts = append(opts, routeway.WithAPIKey(cfg.APIKey))
	}
	if cfg.MaxRetries != nil {
		opts = append(opts, routeway.WithMaxRetries(*cfg.MaxRetries))
	}
	if len(cfg.DefaultHeaders) > 0 {
		opts = append(opts, routeway.WithDefaultHeaders(cfg.DefaultHeaders))
	}

	var ledger *usage.Ledger
	if cfg.Usage.Enabled {
		ledger, err = usage.Open(usage.Config{Path: cfg.Usage.Path, Logger: logger})
		if err != nil {
			return nil, nil, fmt.Errorf("opening usage ledger: %w", err)
		}
		opts = append(opts, routeway.WithUsageRecorder(ledger))
	}

	client, err := routeway.New(opts...)
	if err != nil {
		if ledger != nil {
			ledger.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		client.Close()
		if ledger != nil {
			ledger.Close()
		}
	}
	return client, cleanup, nil
}

// openLedger opens the usage ledger directly, for commands that read
// it without making API calls.
func openLedger(cfg *config.Config) (*usage.Ledger, error) {
	return usage.Open(usage.Config{Path: cfg.Usage.Path})
}
