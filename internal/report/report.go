package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-match-stats/internal/features"
	"github.com/pable/go-match-stats/internal/model"
	"github.com/pable/go-match-stats/internal/predictor"
)

const dateOnly = "2006-01-02"

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintRunSummary prints the outcome of one ingestion run.
// firstID and lastID are -1 when nothing was appended.
func PrintRunSummary(w io.Writer, run model.IngestRun, firstID, lastID int64) {
	ids := "none"
	if firstID >= 0 {
		ids = fmt.Sprintf("%d..%d", firstID, lastID)
	}
	fmt.Fprintf(w, "\nRun: %s  |  Source: %s  |  Read: %d  |  Skipped: %d  |  Duplicates: %d  |  Rows: %d  |  Match ids: %s\n\n",
		shortID(run.RunID), run.Source, run.MatchesRead, run.MatchesSkipped, run.MatchesDuplicate, run.RowsAppended, ids)
}

// PrintPlayers prints the players table to stdout.
func PrintPlayers(players []model.PlayerSummary) {
	PrintPlayersTo(os.Stdout, players)
}

// PrintPlayersTo writes one row per player with the latest record and a
// 95% interval on the overall win share.
func PrintPlayersTo(w io.Writer, players []model.PlayerSummary) {
	table := newTable(w)
	table.Header("PLAYER", "M", "W", "L", "WIN%", "95% CI", "STREAK", "LAST_COURT", "LAST_PLAYED", "N")
	for _, p := range players {
		lo, hi := wilsonCI(p.Wins, p.Matches)
		table.Append(
			p.Player,
			strconv.Itoa(p.Matches),
			strconv.Itoa(p.Wins),
			strconv.Itoa(p.Losses),
			pct(p.Wins, p.Matches),
			fmt.Sprintf("%.0f–%.0f%%", lo*100, hi*100),
			streak(p.Streak),
			p.LastCourt,
			p.LastPlayed.Format(dateOnly),
			sampleFlag(p.Matches),
		)
	}
	table.Render()
}

// PrintStates prints the current aggregate state of each player.
func PrintStates(w io.Writer, states []model.AggregateState) {
	table := newTable(w)
	table.Header("PLAYER", "AS_OF", "W", "L", "WIN_RT", "STREAK", "COURT", "CW", "CL", "COURT_RT", "L5_W", "30D", "30D_RT")
	for i := range states {
		s := &states[i]
		asOf := "—"
		if !s.AsOf.IsZero() {
			asOf = s.AsOf.Format(dateOnly)
		}
		table.Append(
			s.Player,
			asOf,
			strconv.Itoa(s.CumulativeWins),
			strconv.Itoa(s.CumulativeLosses),
			fmt.Sprintf("%.2f", s.WinRt),
			streak(s.Streak),
			s.Court,
			strconv.Itoa(s.CourtWins),
			strconv.Itoa(s.CourtLosses),
			fmt.Sprintf("%.2f", s.CourtWinRt),
			strconv.Itoa(s.WinsLast5),
			fmt.Sprintf("%d/%d", s.WinsLast30d, s.MatchesLast30d),
			fmt.Sprintf("%.2f", s.WinRtLast30),
		)
	}
	table.Render()
}

// PrintHistory prints a player's ledger rows in chronological order.
// If court is non-empty, only rows on that court are shown.
func PrintHistory(w io.Writer, rows []model.PlayerStatRow, court string) {
	table := newTable(w)
	table.Header("MATCH", "DATE", "STAGE", "COURT", "RES", "W", "L", "STREAK", "CW", "CL", "L5_W", "30D", "WIN_RT")
	for i := range rows {
		r := &rows[i]
		if court != "" && r.Court != court {
			continue
		}
		table.Append(
			strconv.FormatInt(r.MatchID, 10),
			r.Date.Format(dateOnly),
			r.Stage,
			r.Court,
			result(r.Result),
			strconv.Itoa(r.CumulativeWins),
			strconv.Itoa(r.CumulativeLosses),
			streak(r.Streak),
			strconv.Itoa(r.CourtWins),
			strconv.Itoa(r.CourtLosses),
			strconv.Itoa(r.WinsLast5),
			fmt.Sprintf("%d/%d", r.WinsLast30d, r.MatchesLast30d),
			fmt.Sprintf("%.2f", r.WinRt),
		)
	}
	table.Render()
}

// PrintMatch prints the two ledger rows of one match, player1 first.
func PrintMatch(w io.Writer, rows []model.PlayerStatRow) {
	if len(rows) == 0 {
		return
	}
	first := &rows[0]
	fmt.Fprintf(w, "\nMatch: %d  |  Date: %s  |  Stage: %s  |  Court: %s\n\n",
		first.MatchID, first.Date.Format(model.DateLayout), first.Stage, first.Court)

	table := newTable(w)
	table.Header(" ", "PLAYER", "RES", "W", "L", "STREAK", "CW", "CL", "L5_W", "30D", "WIN_RT", "COURT_RT", "30D_RT")
	for i := range rows {
		r := &rows[i]
		side := "P2"
		if r.IsPlayer1 {
			side = "P1"
		}
		table.Append(
			side,
			r.Player,
			result(r.Result),
			strconv.Itoa(r.CumulativeWins),
			strconv.Itoa(r.CumulativeLosses),
			streak(r.Streak),
			strconv.Itoa(r.CourtWins),
			strconv.Itoa(r.CourtLosses),
			strconv.Itoa(r.WinsLast5),
			fmt.Sprintf("%d/%d", r.WinsLast30d, r.MatchesLast30d),
			fmt.Sprintf("%.2f", r.WinRt),
			fmt.Sprintf("%.2f", r.CourtWinRt),
			fmt.Sprintf("%.2f", r.WinRtLast30),
		)
	}
	table.Render()
}

// PrintFeatures prints a feature mapping in classifier order.
func PrintFeatures(w io.Writer, m features.Mapping) {
	table := newTable(w)
	table.Header("FEATURE", "VALUE")
	for _, name := range m.Names() {
		v, _ := m.Get(name)
		table.Append(name, strconv.FormatFloat(v, 'f', -1, 64))
	}
	table.Render()
}

// PrintPrediction prints the classifier verdict for player1 against player2.
func PrintPrediction(w io.Writer, player1, player2 string, p predictor.Prediction) {
	winner, prob := player1, p.WinProbability
	if !p.Prediction {
		winner, prob = player2, 1-p.WinProbability
	}
	fmt.Fprintf(w, "\n%s vs %s\n", player1, player2)
	fmt.Fprintf(w, "  Predicted winner: %s (%.1f%%)\n", winner, prob*100)
	fmt.Fprintf(w, "  P(%s wins): %.3f  |  Confidence: %.0f%%\n\n", player1, p.WinProbability, p.Confidence()*100)
}

// PrintRuns prints the ingestion run history, newest first.
func PrintRuns(w io.Writer, runs []model.IngestRun) {
	table := newTable(w)
	table.Header("RUN", "STARTED", "SOURCE", "READ", "SKIPPED", "DUPS", "ROWS")
	for _, r := range runs {
		table.Append(
			shortID(r.RunID),
			r.StartedAt.Format(model.DateLayout),
			r.Source,
			strconv.Itoa(r.MatchesRead),
			strconv.Itoa(r.MatchesSkipped),
			strconv.Itoa(r.MatchesDuplicate),
			strconv.Itoa(r.RowsAppended),
		)
	}
	table.Render()
}

// PrintOverview prints ledger-wide counts and the per-court match split.
func PrintOverview(w io.Writer, o model.LedgerOverview) {
	fmt.Fprintf(w, "\nRows: %d  |  Matches: %d  |  Players: %d  |  Runs: %d  |  Max match id: %d\n",
		o.Rows, o.Matches, o.Players, o.Runs, o.MaxMatchID)
	if o.EarliestMatch != "" {
		fmt.Fprintf(w, "Range: %s → %s\n", o.EarliestMatch, o.LatestMatch)
	}
	fmt.Fprintln(w)
	if len(o.Courts) == 0 {
		return
	}
	table := newTable(w)
	table.Header("COURT", "MATCHES", "SHARE")
	for _, c := range o.Courts {
		table.Append(c.Court, strconv.Itoa(c.Matches), pct(c.Matches, o.Matches))
	}
	table.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func pct(n, d int) string {
	if d == 0 {
		return "—"
	}
	return fmt.Sprintf("%.0f%%", float64(n)/float64(d)*100)
}

func streak(s int) string {
	switch {
	case s > 0:
		return "W" + strconv.Itoa(s)
	case s < 0:
		return "L" + strconv.Itoa(-s)
	}
	return "—"
}

func result(r int) string {
	if r == 1 {
		return "W"
	}
	return "L"
}

// sampleFlag marks records too short to read much into.
func sampleFlag(n int) string {
	switch {
	case n < 5:
		return "LOW"
	case n < 15:
		return "MED"
	}
	return ""
}

// wilsonCI computes the 95% Wilson score confidence interval for a proportion.
// Returns (lo, hi) as fractions in [0, 1].
func wilsonCI(hits, n int) (lo, hi float64) {
	if n == 0 {
		return 0, 1
	}
	z := 1.96
	p := float64(hits) / float64(n)
	nf := float64(n)
	denom := 1 + z*z/nf
	center := (p + z*z/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf)) / denom
	return math.Max(0, center-half), math.Min(1, center+half)
}
