package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/pable/go-match-stats/internal/model"
	"github.com/pable/go-match-stats/internal/storage"
)

// Players returns every player with the record from their latest row.
func (l *Ledger) Players(ctx context.Context) ([]model.PlayerSummary, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT player, cumulative_wins, cumulative_losses, streak, court, date
		FROM (
			SELECT player, cumulative_wins, cumulative_losses, streak, court, date,
			       ROW_NUMBER() OVER (PARTITION BY player ORDER BY date DESC, match_id DESC) AS rn
			FROM player_stats
		) latest
		WHERE rn = 1
		ORDER BY player`)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var out []model.PlayerSummary
	for rows.Next() {
		var p model.PlayerSummary
		if err := rows.Scan(&p.Player, &p.Wins, &p.Losses, &p.Streak, &p.LastCourt, &p.LastPlayed); err != nil {
			return nil, err
		}
		p.Matches = p.Wins + p.Losses
		out = append(out, p)
	}
	return out, rows.Err()
}

// MatchRows returns the two rows of one match, player1 first.
func (l *Ledger) MatchRows(ctx context.Context, matchID int64) ([]model.PlayerStatRow, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT `+statColumns+` FROM player_stats
		WHERE match_id = $1
		ORDER BY is_player1 DESC, player`, matchID)
	if err != nil {
		return nil, fmt.Errorf("match rows %d: %w", matchID, err)
	}
	defer rows.Close()

	out, err := scanStatRows(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("match %d: %w", matchID, storage.ErrNotFound)
	}
	return out, nil
}

// Runs returns ingestion runs, newest first.
func (l *Ledger) Runs(ctx context.Context) ([]model.IngestRun, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT run_id, source, started_at, matches_read, matches_skipped, matches_duplicate, rows_appended
		FROM ingest_runs ORDER BY started_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []model.IngestRun
	for rows.Next() {
		var r model.IngestRun
		if err := rows.Scan(&r.RunID, &r.Source, &r.StartedAt,
			&r.MatchesRead, &r.MatchesSkipped, &r.MatchesDuplicate, &r.RowsAppended); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Overview returns ledger-wide counts, the date range and the per-court match counts.
func (l *Ledger) Overview(ctx context.Context) (model.LedgerOverview, error) {
	var ov model.LedgerOverview
	var maxID *int64
	var earliest, latest *time.Time
	err := l.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT match_id), COUNT(DISTINCT player),
		       MAX(match_id), MIN(date), MAX(date)
		FROM player_stats`).Scan(&ov.Rows, &ov.Matches, &ov.Players, &maxID, &earliest, &latest)
	if err != nil {
		return ov, fmt.Errorf("overview: %w", err)
	}
	ov.MaxMatchID = -1
	if maxID != nil {
		ov.MaxMatchID = *maxID
	}
	if earliest != nil {
		ov.EarliestMatch = storage.FormatDate(*earliest)
	}
	if latest != nil {
		ov.LatestMatch = storage.FormatDate(*latest)
	}

	if err := l.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ingest_runs`).Scan(&ov.Runs); err != nil {
		return ov, fmt.Errorf("count runs: %w", err)
	}

	rows, err := l.pool.Query(ctx, `
		SELECT court, COUNT(DISTINCT match_id) AS n
		FROM player_stats GROUP BY court ORDER BY n DESC, court`)
	if err != nil {
		return ov, fmt.Errorf("court counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c model.CourtCount
		if err := rows.Scan(&c.Court, &c.Matches); err != nil {
			return ov, err
		}
		ov.Courts = append(ov.Courts, c)
	}
	return ov, rows.Err()
}

// QueryRaw runs an arbitrary SQL statement and returns its columns and rows as strings.
func (l *Ledger) QueryRaw(ctx context.Context, query string) ([]string, [][]string, error) {
	rows, err := l.pool.Query(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}

	var out [][]string
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, nil, err
		}
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = storage.FormatValue(v)
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}
