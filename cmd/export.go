package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-stats/internal/model"
	"github.com/pable/go-match-stats/internal/storage"
)

var (
	exportOut    string
	exportPlayer string
)

// exportColumns is the persisted ledger schema, in column order.
var exportColumns = []string{
	"player", "court", "stage", "date", "result", "is_player1", "match_id",
	"cumulative_wins", "cumulative_losses", "streak", "court_wins", "court_losses",
	"wins_last_5", "wins_last_30d", "matches_last_30d",
	"win_rt", "court_win_rt", "win_rt_last_30",
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the ledger as CSV",
	Long: `Write every ledger row as CSV in the persisted column order, sorted by date
then match id. The output can be fed to the training job or re-read for inspection.

Example:
  matchstats export --out ledger.csv
  matchstats export --player "Alpha" > alpha.csv`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().StringVar(&exportPlayer, "player", "", "only export this player's rows")
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	var rows []model.PlayerStatRow
	if exportPlayer != "" {
		rows, err = store.PlayerRows(ctx, exportPlayer)
	} else {
		rows, err = store.Load(ctx)
	}
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}

	var w io.Writer = os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		defer f.Close()
		w = f
	}
	if err := writeLedgerCSV(w, rows); err != nil {
		return err
	}
	if exportOut != "" {
		fmt.Fprintf(os.Stderr, "Wrote %d rows to %s\n", len(rows), exportOut)
	}
	return nil
}

func writeLedgerCSV(w io.Writer, rows []model.PlayerStatRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := range rows {
		r := &rows[i]
		rec := []string{
			r.Player,
			r.Court,
			r.Stage,
			storage.FormatDate(r.Date),
			strconv.Itoa(r.Result),
			strconv.FormatBool(r.IsPlayer1),
			strconv.FormatInt(r.MatchID, 10),
			strconv.Itoa(r.CumulativeWins),
			strconv.Itoa(r.CumulativeLosses),
			strconv.Itoa(r.Streak),
			strconv.Itoa(r.CourtWins),
			strconv.Itoa(r.CourtLosses),
			strconv.Itoa(r.WinsLast5),
			strconv.Itoa(r.WinsLast30d),
			strconv.Itoa(r.MatchesLast30d),
			storage.FormatValue(r.WinRt),
			storage.FormatValue(r.CourtWinRt),
			storage.FormatValue(r.WinRtLast30),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
