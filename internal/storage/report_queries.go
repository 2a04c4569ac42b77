package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/pable/go-match-stats/internal/model"
)

// latestRowsSQL selects each player's most recent row.
const latestRowsSQL = `
	SELECT player, cumulative_wins, cumulative_losses, streak, court, date
	FROM (
		SELECT player, cumulative_wins, cumulative_losses, streak, court, date,
		       ROW_NUMBER() OVER (PARTITION BY player ORDER BY date DESC, match_id DESC) AS rn
		FROM player_stats
	)
	WHERE rn = 1
	ORDER BY player`

// Players returns every player with the record from their latest row.
func (db *DB) Players(ctx context.Context) ([]model.PlayerSummary, error) {
	rows, err := db.conn.QueryContext(ctx, latestRowsSQL)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	defer rows.Close()

	var out []model.PlayerSummary
	for rows.Next() {
		var p model.PlayerSummary
		var date string
		if err := rows.Scan(&p.Player, &p.Wins, &p.Losses, &p.Streak, &p.LastCourt, &date); err != nil {
			return nil, err
		}
		p.Matches = p.Wins + p.Losses
		p.LastPlayed, _ = time.Parse(model.DateLayout, date)
		out = append(out, p)
	}
	return out, rows.Err()
}

// MatchRows returns the two rows of one match, player1 first.
func (db *DB) MatchRows(ctx context.Context, matchID int64) ([]model.PlayerStatRow, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+statColumns+` FROM player_stats
		WHERE match_id = ?
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
		return nil, fmt.Errorf("match %d: %w", matchID, ErrNotFound)
	}
	return out, nil
}

// Runs returns ingestion runs, newest first.
func (db *DB) Runs(ctx context.Context) ([]model.IngestRun, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT run_id, source, started_at, matches_read, matches_skipped, matches_duplicate, rows_appended
		FROM ingest_runs ORDER BY started_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []model.IngestRun
	for rows.Next() {
		var r model.IngestRun
		var started string
		if err := rows.Scan(&r.RunID, &r.Source, &started,
			&r.MatchesRead, &r.MatchesSkipped, &r.MatchesDuplicate, &r.RowsAppended); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(model.DateLayout, started)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Overview returns ledger-wide counts, the date range and the per-court match counts.
func (db *DB) Overview(ctx context.Context) (model.LedgerOverview, error) {
	var ov model.LedgerOverview
	var earliest, latest sql.NullString
	var maxID sql.NullInt64
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT match_id), COUNT(DISTINCT player),
		       MAX(match_id), MIN(date), MAX(date)
		FROM player_stats`).Scan(&ov.Rows, &ov.Matches, &ov.Players, &maxID, &earliest, &latest)
	if err != nil {
		return ov, fmt.Errorf("overview: %w", err)
	}
	ov.MaxMatchID = -1
	if maxID.Valid {
		ov.MaxMatchID = maxID.Int64
	}
	ov.EarliestMatch = earliest.String
	ov.LatestMatch = latest.String

	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM ingest_runs").Scan(&ov.Runs); err != nil {
		return ov, fmt.Errorf("count runs: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
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
func (db *DB) QueryRaw(ctx context.Context, query string) ([]string, [][]string, error) {
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = FormatValue(v)
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

// FormatValue renders a driver value for display.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case time.Time:
		return FormatDate(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
