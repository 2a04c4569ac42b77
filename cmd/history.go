package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-stats/internal/report"
)

var (
	historyCourt string
	historyLast  int
)

var historyCmd = &cobra.Command{
	Use:   "history <name>",
	Short: "Chronological ledger rows for a player",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyCourt, "court", "", "only show matches on this court")
	historyCmd.Flags().IntVar(&historyLast, "last", 0, "only show the N most recent matches")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := store.PlayerRows(ctx, args[0])
	if err != nil {
		return fmt.Errorf("query history: %w", err)
	}
	if len(rows) == 0 {
		fmt.Println("no matches found")
		return nil
	}
	if historyLast > 0 && len(rows) > historyLast {
		rows = rows[len(rows)-historyLast:]
	}
	report.PrintHistory(os.Stdout, rows, historyCourt)
	return nil
}
