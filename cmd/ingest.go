package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-stats/internal/ingest"
	"github.com/pable/go-match-stats/internal/report"
)

var ingestShowRows bool

var ingestCmd = &cobra.Command{
	Use:   "ingest <batch.xlsx|batch.csv>",
	Short: "Ingest a batch of match results into the ledger",
	Long: `Normalize a .xlsx or .csv batch, skip malformed rows and matches already in
the ledger, compute each player's post-match statistics and append them in one transaction.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestShowRows, "rows", false, "print the appended ledger rows")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Fprintf(os.Stdout, "Ingesting %s...\n", args[0])
	sum, err := ingest.NewService(store, logger).IngestFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	report.PrintRunSummary(os.Stdout, sum.Run, sum.FirstMatchID, sum.LastMatchID)
	if ingestShowRows && len(sum.Rows) > 0 {
		report.PrintHistory(os.Stdout, sum.Rows, "")
	}
	return nil
}
