package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-match-stats/internal/config"
	"github.com/pable/go-match-stats/internal/logging"
	"github.com/pable/go-match-stats/internal/storage"
	"github.com/pable/go-match-stats/internal/storage/postgres"
)

var (
	v      = config.New()
	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "matchstats",
	Short: "Incremental player statistics for court matches",
	Long: `Ingest batches of match results into an append-only statistics ledger,
inspect per-player rolling form, and build classifier features for upcoming matches.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) { _ = logger.Sync() },
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String(config.KeyDB, v.GetString(config.KeyDB), "SQLite ledger path or postgres:// URL (env MATCHSTATS_DB)")
	flags.String(config.KeyModel, v.GetString(config.KeyModel), "path to the classifier JSON (env MATCHSTATS_MODEL)")
	flags.String(config.KeyLogLevel, "info", "log level: debug, info, warn, error")
	flags.String(config.KeyLogFormat, "console", "log format: console or json")
	for _, key := range []string{config.KeyDB, config.KeyModel, config.KeyLogLevel, config.KeyLogFormat} {
		_ = v.BindPFlag(key, flags.Lookup(key))
	}

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func setup(*cobra.Command, []string) error {
	c, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = c
	l, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// openStore opens the configured ledger: postgres for a URL, SQLite otherwise.
func openStore(ctx context.Context) (storage.Store, error) {
	if postgres.IsDSN(cfg.DB) {
		l, err := postgres.Open(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("open postgres ledger: %w", err)
		}
		return l, nil
	}
	if cfg.DB != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DB), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}
