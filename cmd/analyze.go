package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/pable/go-match-stats/internal/features"
	"github.com/pable/go-match-stats/internal/model"
	"github.com/pable/go-match-stats/internal/storage"
)

const analyzeSystemPrompt = `You are a tennis-style match analyst. You are given structured data
from a player statistics ledger and a question about the player.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise and concrete.

Metrics glossary:
- cumulative_wins / cumulative_losses: career record up to and including the match.
- win_rt: wins divided by losses (not a percentage). 1 with no losses yet.
- streak: positive = consecutive wins, negative = consecutive losses.
- court_wins / court_losses / court_win_rt: the same record restricted to one court surface.
- wins_last_5: wins among the five most recent matches.
- wins_last_30d / matches_last_30d: record within the 30 days ending at the match.
- win_rt_last_30: wins_last_30d divided by matches_last_30d.`

var (
	analyzeAIModel string
	analyzeAPIKey  string

	analyzeCourt string
	analyzeLast  int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "AI-powered grounded analysis (requires ANTHROPIC_API_KEY)",
}

var analyzePlayerCmd = &cobra.Command{
	Use:   "player <name> <question>",
	Short: "Analyze a player's ledger history with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzePlayer,
}

func init() {
	analyzeCmd.PersistentFlags().StringVar(&analyzeAIModel, "ai-model", "claude-haiku-4-5-20251001", "Anthropic model to use")
	analyzeCmd.PersistentFlags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")

	analyzePlayerCmd.Flags().StringVar(&analyzeCourt, "court", "", "court the current court figures refer to")
	analyzePlayerCmd.Flags().IntVar(&analyzeLast, "last", 20, "only include the N most recent matches (0 = all)")

	analyzeCmd.AddCommand(analyzePlayerCmd)
}

func runAnalyzePlayer(cmd *cobra.Command, args []string) error {
	name, question := args[0], args[1]
	ctx := cmd.Context()

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	contextJSON, err := playerContext(ctx, store, name, analyzeCourt, analyzeLast)
	if err != nil {
		return err
	}
	return callAnthropic(ctx, analyzeAPIKey, analyzeAIModel, contextJSON, question)
}

// playerContext serialises a player's current state and recent rows into compact JSON.
func playerContext(ctx context.Context, store storage.Store, name, court string, last int) (string, error) {
	rows, err := store.PlayerRows(ctx, name)
	if err != nil {
		return "", fmt.Errorf("query history: %w", err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("no data found for %q", name)
	}
	state, err := features.NewAssembler(store).Latest(ctx, name, court)
	if err != nil {
		return "", err
	}
	if last > 0 && len(rows) > last {
		rows = rows[len(rows)-last:]
	}

	type matchEntry struct {
		MatchID int64   `json:"match_id"`
		Date    string  `json:"date"`
		Stage   string  `json:"stage"`
		Court   string  `json:"court"`
		Won     bool    `json:"won"`
		Streak  int     `json:"streak"`
		Last5   int     `json:"wins_last_5"`
		WinRt   float64 `json:"win_rt"`
	}
	recent := make([]matchEntry, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		recent = append(recent, matchEntry{
			MatchID: r.MatchID,
			Date:    r.Date.Format("2006-01-02"),
			Stage:   r.Stage,
			Court:   r.Court,
			Won:     r.Result == 1,
			Streak:  r.Streak,
			Last5:   r.WinsLast5,
			WinRt:   round2(r.WinRt),
		})
	}

	doc := map[string]interface{}{
		"subject":          "player",
		"player":           name,
		"matches_included": len(recent),
		"current":          stateDoc(state),
		"recent_matches":   recent,
	}
	b, err := json.Marshal(doc)
	return string(b), err
}

func stateDoc(s model.AggregateState) map[string]interface{} {
	return map[string]interface{}{
		"as_of":             s.AsOf.Format("2006-01-02"),
		"cumulative_wins":   s.CumulativeWins,
		"cumulative_losses": s.CumulativeLosses,
		"win_rt":            round2(s.WinRt),
		"streak":            s.Streak,
		"court":             s.Court,
		"court_wins":        s.CourtWins,
		"court_losses":      s.CourtLosses,
		"court_win_rt":      round2(s.CourtWinRt),
		"wins_last_5":       s.WinsLast5,
		"wins_last_30d":     s.WinsLast30d,
		"matches_last_30d":  s.MatchesLast30d,
		"win_rt_last_30":    round2(s.WinRtLast30),
	}
}

// round2 rounds a float64 to 2 decimal places.
func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)

	fmt.Fprintln(os.Stdout, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed, check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
