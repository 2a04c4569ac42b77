package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/pable/go-match-stats/internal/model"
	"github.com/pable/go-match-stats/internal/storage"
)

func sampleRows() []model.PlayerStatRow {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return []model.PlayerStatRow{
		{Player: "Alpha", Court: "hard", Stage: "group", Date: d, Result: 1, IsPlayer1: true, MatchID: 0,
			CumulativeWins: 1, Streak: 1, CourtWins: 1, WinsLast5: 1, WinsLast30d: 1, MatchesLast30d: 1,
			WinRt: 1, CourtWinRt: 1, WinRtLast30: 1, SourceKey: "k0"},
		{Player: "Bravo", Court: "hard", Stage: "group", Date: d, Result: 0, MatchID: 0,
			CumulativeLosses: 1, Streak: -1, CourtLosses: 1, MatchesLast30d: 1, SourceKey: "k0"},
	}
}

func TestWriteLedgerCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := writeLedgerCSV(&buf, sampleRows()); err != nil {
		t.Fatal(err)
	}
	recs, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("want header + 2 rows, got %d records", len(recs))
	}
	if len(recs[0]) != len(exportColumns) || recs[0][0] != "player" {
		t.Errorf("unexpected header %v", recs[0])
	}
	alpha := recs[1]
	if alpha[3] != "2024-03-01 00:00:00" || alpha[5] != "true" || alpha[15] != "1" {
		t.Errorf("unexpected row %v", alpha)
	}
}

func TestSortByMatches(t *testing.T) {
	players := []model.PlayerSummary{
		{Player: "A", Matches: 2},
		{Player: "B", Matches: 5},
		{Player: "C", Matches: 2},
	}
	sortByMatches(players)
	got := players[0].Player + players[1].Player + players[2].Player
	if got != "BAC" {
		t.Errorf("order = %s, want BAC", got)
	}
}

func TestPlayerContext(t *testing.T) {
	ctx := context.Background()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	run := model.IngestRun{RunID: "run-1", Source: "test.csv", StartedAt: time.Now().UTC().Truncate(time.Second)}
	if err := db.Append(ctx, run, sampleRows()); err != nil {
		t.Fatal(err)
	}

	out, err := playerContext(ctx, db, "Alpha", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Player  string         `json:"player"`
		Current map[string]any `json:"current"`
		Recent  []struct {
			Won bool `json:"won"`
		} `json:"recent_matches"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Player != "Alpha" || len(doc.Recent) != 1 || !doc.Recent[0].Won {
		t.Errorf("unexpected context %s", out)
	}
	if doc.Current["court"] != "hard" {
		t.Errorf("court = %v, want hard", doc.Current["court"])
	}

	if _, err := playerContext(ctx, db, "Nobody", "", 0); err == nil {
		t.Error("expected an error for an unknown player")
	}
}
