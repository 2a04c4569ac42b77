package model

import "time"

// DateLayout is the canonical textual form of a match date in the ledger and in exports.
const DateLayout = "2006-01-02 15:04:05"

// ---- Input records produced by the parser ----

// MatchRecord is one normalized match row from an uploaded batch.
type MatchRecord struct {
	Player1 string
	Player2 string
	Date    time.Time
	Stage   string
	Court   string
	R1, R2  *float64 // nil when the rating column was empty or unparsable
	Sets    string   // "<int>-<int>", player1 first

	Player1Won bool
	SourceKey  string // content hash used to reject re-ingested matches

	// Line is the 1-based data row in the source file, for log messages.
	Line int
}

// Result returns 1 if player1 won, else 0.
func (m *MatchRecord) Result() int {
	if m.Player1Won {
		return 1
	}
	return 0
}

// SequencedMatch is a MatchRecord with its assigned ledger match id.
type SequencedMatch struct {
	MatchRecord
	MatchID int64
}

// ---- Ledger rows ----

// PlayerStatRow is one immutable ledger row: a player's state immediately after a match.
type PlayerStatRow struct {
	Player    string
	Court     string
	Stage     string
	Date      time.Time
	Result    int // 1 = this player won
	IsPlayer1 bool
	MatchID   int64

	CumulativeWins   int
	CumulativeLosses int
	Streak           int // >0 win run, <0 loss run
	CourtWins        int
	CourtLosses      int
	WinsLast5        int
	WinsLast30d      int
	MatchesLast30d   int

	WinRt       float64
	CourtWinRt  float64
	WinRtLast30 float64

	SourceKey string
}

// Matches returns the number of matches the row accounts for.
func (r *PlayerStatRow) Matches() int {
	return r.CumulativeWins + r.CumulativeLosses
}

// ---- Aggregates ----

// AggregateState is a point-in-time snapshot of a player's rolling statistics.
type AggregateState struct {
	Player string
	Court  string // surface the court figures refer to
	AsOf   time.Time

	CumulativeWins   int
	CumulativeLosses int
	Streak           int
	CourtWins        int
	CourtLosses      int
	WinsLast5        int
	WinsLast30d      int
	MatchesLast30d   int

	WinRt       float64
	CourtWinRt  float64
	WinRtLast30 float64
}

// Matches returns the number of matches folded into the state.
func (s *AggregateState) Matches() int {
	return s.CumulativeWins + s.CumulativeLosses
}

// RecomputeRatios refreshes the derived ratios from the counters.
func (s *AggregateState) RecomputeRatios() {
	s.WinRt = SafeRatio(s.CumulativeWins, s.CumulativeLosses, 1, 0)
	s.CourtWinRt = SafeRatio(s.CourtWins, s.CourtLosses, 1, 0)
	s.WinRtLast30 = SafeRatio(s.WinsLast30d, s.MatchesLast30d, 0, 0)
}

// Row materializes the state as the ledger row for the given match.
func (s *AggregateState) Row(m *SequencedMatch, isPlayer1 bool, result int) PlayerStatRow {
	return PlayerStatRow{
		Player:           s.Player,
		Court:            m.Court,
		Stage:            m.Stage,
		Date:             m.Date,
		Result:           result,
		IsPlayer1:        isPlayer1,
		MatchID:          m.MatchID,
		CumulativeWins:   s.CumulativeWins,
		CumulativeLosses: s.CumulativeLosses,
		Streak:           s.Streak,
		CourtWins:        s.CourtWins,
		CourtLosses:      s.CourtLosses,
		WinsLast5:        s.WinsLast5,
		WinsLast30d:      s.WinsLast30d,
		MatchesLast30d:   s.MatchesLast30d,
		WinRt:            s.WinRt,
		CourtWinRt:       s.CourtWinRt,
		WinRtLast30:      s.WinRtLast30,
		SourceKey:        m.SourceKey,
	}
}

// SafeRatio returns num/den, or whenPositive/whenZero when den is 0
// depending on whether num is positive.
func SafeRatio(num, den int, whenPositive, whenZero float64) float64 {
	if den != 0 {
		return float64(num) / float64(den)
	}
	if num > 0 {
		return whenPositive
	}
	return whenZero
}

// NextStreak applies one outcome to a signed streak.
func NextStreak(streak, result int) int {
	if result == 1 {
		if streak < 0 {
			return 1
		}
		return streak + 1
	}
	if streak > 0 {
		return -1
	}
	return streak - 1
}

// ---- Bookkeeping ----

// IngestRun records one ingestion of a batch file.
type IngestRun struct {
	RunID            string
	Source           string
	StartedAt        time.Time
	MatchesRead      int
	MatchesSkipped   int
	MatchesDuplicate int
	RowsAppended     int
}

// PlayerSummary is a lightweight record for the players command.
type PlayerSummary struct {
	Player     string
	Matches    int
	Wins       int
	Losses     int
	Streak     int
	LastCourt  string
	LastPlayed time.Time
}

// LedgerOverview holds high-level ledger statistics for the summary command.
type LedgerOverview struct {
	Rows          int
	Matches       int
	Players       int
	Runs          int
	MaxMatchID    int64
	EarliestMatch string
	LatestMatch   string
	Courts        []CourtCount
}

// CourtCount is the number of matches played on one surface.
type CourtCount struct {
	Court   string
	Matches int
}
