package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-match-stats/internal/features"
	"github.com/pable/go-match-stats/internal/predictor"
	"github.com/pable/go-match-stats/internal/report"
	"github.com/pable/go-match-stats/internal/storage"
)

var (
	predictR1       float64
	predictR2       float64
	predictCourt    string
	predictFeatures bool
)

var predictCmd = &cobra.Command{
	Use:   "predict <player1> <player2>",
	Short: "Predict the winner of an upcoming match",
	Long: `Assemble classifier features for player1 against player2 from the ledger and
score them with the model at --model. Ratings left unset (or zero) are treated as missing.`,
	Args: cobra.ExactArgs(2),
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().Float64Var(&predictR1, "r1", 0, "player1 rating")
	predictCmd.Flags().Float64Var(&predictR2, "r2", 0, "player2 rating")
	predictCmd.Flags().StringVar(&predictCourt, "court", "", "court the match is played on")
	predictCmd.Flags().BoolVar(&predictFeatures, "features", false, "also print the assembled features")
}

func runPredict(cmd *cobra.Command, args []string) error {
	var r1, r2 *float64
	if cmd.Flags().Changed("r1") {
		r1 = &predictR1
	}
	if cmd.Flags().Changed("r2") {
		r2 = &predictR2
	}

	clf, err := predictor.LoadModel(cfg.Model)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	return predictMatch(ctx, store, clf, args[0], args[1], r1, r2, predictCourt, predictFeatures)
}

func predictMatch(ctx context.Context, store storage.Store, p predictor.Predictor, player1, player2 string, r1, r2 *float64, court string, showFeatures bool) error {
	m, err := features.NewAssembler(store).Assemble(ctx, player1, player2, r1, r2, court)
	if err != nil {
		return fmt.Errorf("assemble features: %w", err)
	}
	if showFeatures {
		report.PrintFeatures(os.Stdout, m)
	}
	pred, err := p.Predict(ctx, m)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}
	logger.Sugar().Debugw("prediction",
		"player1", player1, "player2", player2, "court", court,
		"probability", pred.WinProbability)
	report.PrintPrediction(os.Stdout, player1, player2, pred)
	return nil
}
