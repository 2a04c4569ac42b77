package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-stats/internal/storage/postgres"
)

var dropForce bool

// dropCmd deletes the SQLite ledger file.
var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the ledger database",
	Long:  "Permanently delete the SQLite ledger together with its WAL files. All ingested statistics are lost. Re-ingest your batches afterwards to rebuild.",
	Args:  cobra.NoArgs,
	RunE:  runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "skip confirmation prompt")
}

func runDrop(cmd *cobra.Command, args []string) error {
	if postgres.IsDSN(cfg.DB) {
		return fmt.Errorf("drop only deletes SQLite ledgers; drop postgres tables with your own tooling")
	}
	if !dropForce {
		fmt.Fprintf(os.Stderr, "This will permanently delete: %s\n", cfg.DB)
		fmt.Fprintf(os.Stderr, "Re-run with --force to confirm.\n")
		return nil
	}
	if err := os.Remove(cfg.DB); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stdout, "Ledger does not exist, nothing to drop.")
			return nil
		}
		return fmt.Errorf("remove ledger: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(cfg.DB + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove ledger: %w", err)
		}
	}
	fmt.Fprintf(os.Stdout, "Deleted: %s\n", cfg.DB)
	return nil
}
