package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-stats/internal/model"
	"github.com/pable/go-match-stats/internal/report"
)

// summaryCmd is the cobra command for displaying a high-level ledger overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the ledger",
	Long: `Display aggregate statistics about the ledger: row and match counts,
date range, number of players and ingestion runs, and the court breakdown.
The most active players follow.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

var summaryTop int

func init() {
	summaryCmd.Flags().IntVar(&summaryTop, "top", 10, "number of most active players to show")
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	ov, err := store.Overview(ctx)
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	if ov.Rows == 0 {
		fmt.Fprintln(os.Stdout, "No matches stored yet. Run 'matchstats ingest <batch.xlsx>' to add some.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n=== Ledger Summary ===\n")
	report.PrintOverview(os.Stdout, ov)

	players, err := store.Players(ctx)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}
	sortByMatches(players)
	if summaryTop > 0 && len(players) > summaryTop {
		players = players[:summaryTop]
	}
	fmt.Fprintf(os.Stdout, "\n--- Most Active Players ---\n\n")
	report.PrintPlayers(players)
	return nil
}

// sortByMatches orders players by matches played, most first, keeping name order on ties.
func sortByMatches(players []model.PlayerSummary) {
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Matches > players[j].Matches
	})
}
