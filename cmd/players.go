package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-stats/internal/report"
)

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List every player in the ledger with their latest record",
	Args:  cobra.NoArgs,
	RunE:  runPlayers,
}

func runPlayers(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	players, err := store.Players(ctx)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	if len(players) == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'matchstats ingest <batch.xlsx>' to add some.")
		return nil
	}
	report.PrintPlayers(players)
	return nil
}
