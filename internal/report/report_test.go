package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pable/go-match-stats/internal/model"
	"github.com/pable/go-match-stats/internal/predictor"
)

func TestWilsonCI(t *testing.T) {
	lo, hi := wilsonCI(0, 0)
	if lo != 0 || hi != 1 {
		t.Errorf("empty sample: got (%v, %v), want (0, 1)", lo, hi)
	}
	lo, hi = wilsonCI(5, 10)
	if lo >= 0.5 || hi <= 0.5 {
		t.Errorf("interval (%v, %v) should contain 0.5", lo, hi)
	}
}

func TestStreak(t *testing.T) {
	cases := map[int]string{3: "W3", -2: "L2", 0: "—"}
	for in, want := range cases {
		if got := streak(in); got != want {
			t.Errorf("streak(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestPrintPrediction(t *testing.T) {
	var buf bytes.Buffer
	PrintPrediction(&buf, "Alpha", "Bravo", predictor.Prediction{WinProbability: 0.25, Prediction: false})
	out := buf.String()
	if !strings.Contains(out, "Predicted winner: Bravo (75.0%)") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "Confidence: 50%") {
		t.Errorf("confidence missing:\n%s", out)
	}
}

func TestPrintHistoryFiltersCourt(t *testing.T) {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []model.PlayerStatRow{
		{Player: "Alpha", Court: "hard", Stage: "group", Date: d, Result: 1, MatchID: 0, CumulativeWins: 1, Streak: 1},
		{Player: "Alpha", Court: "clay", Stage: "semifinal", Date: d.AddDate(0, 0, 1), MatchID: 1, CumulativeWins: 1, CumulativeLosses: 1, Streak: -1},
	}
	var buf bytes.Buffer
	PrintHistory(&buf, rows, "clay")
	out := buf.String()
	if strings.Contains(out, "2024-03-01") {
		t.Errorf("hard-court row should be filtered:\n%s", out)
	}
	if !strings.Contains(out, "2024-03-02") {
		t.Errorf("clay row missing:\n%s", out)
	}
}
