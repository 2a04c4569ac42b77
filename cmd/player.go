package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-stats/internal/features"
	"github.com/pable/go-match-stats/internal/model"
	"github.com/pable/go-match-stats/internal/report"
	"github.com/pable/go-match-stats/internal/storage"
)

var playerCourt string

var playerCmd = &cobra.Command{
	Use:   "player <name> [<name>...]",
	Short: "Current rolling form for one or more players",
	Long: `Show each player's state as of their latest ledger row: cumulative record,
streak, court record, last-5 wins and the 30-day figures. With --court, court
figures refer to that surface instead of the one played last.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlayer,
}

func init() {
	playerCmd.Flags().StringVar(&playerCourt, "court", "", "court the court figures refer to")
}

func runPlayer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	states, err := latestStates(ctx, store, args, playerCourt)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return nil
	}
	fmt.Fprintln(os.Stdout)
	report.PrintStates(os.Stdout, states)
	return nil
}

// latestStates returns the current state of each named player that has ledger rows.
// Unknown players are reported on stderr and skipped.
func latestStates(ctx context.Context, store storage.Store, names []string, court string) ([]model.AggregateState, error) {
	asm := features.NewAssembler(store)
	var states []model.AggregateState
	for _, name := range names {
		s, err := asm.Latest(ctx, name, court)
		if err != nil {
			return nil, err
		}
		if s.Matches() == 0 {
			fmt.Fprintf(os.Stderr, "no matches for %q\n", name)
			continue
		}
		states = append(states, s)
	}
	return states, nil
}
