package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/pable/go-match-stats/internal/model"
)

// statColumns lists player_stats columns in scan order.
const statColumns = `player, court, stage, date, result, is_player1, match_id,
	cumulative_wins, cumulative_losses, streak, court_wins, court_losses,
	wins_last_5, wins_last_30d, matches_last_30d,
	win_rt, court_win_rt, win_rt_last_30, source_key`

// Load returns the whole ledger in history order.
func (db *DB) Load(ctx context.Context) ([]model.PlayerStatRow, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+statColumns+` FROM player_stats ORDER BY date, match_id, is_player1 DESC`)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	defer rows.Close()
	return scanStatRows(rows)
}

// MaxMatchID returns the highest match id, or -1 when the ledger is empty.
func (db *DB) MaxMatchID(ctx context.Context) (int64, error) {
	var id sql.NullInt64
	if err := db.conn.QueryRowContext(ctx, "SELECT MAX(match_id) FROM player_stats").Scan(&id); err != nil {
		return 0, fmt.Errorf("max match id: %w", err)
	}
	if !id.Valid {
		return -1, nil
	}
	return id.Int64, nil
}

// PlayerHistory returns the player's rows dated on or before through.
func (db *DB) PlayerHistory(ctx context.Context, player string, through time.Time) ([]model.PlayerStatRow, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+statColumns+` FROM player_stats
		WHERE player = ? AND date <= ?
		ORDER BY date, match_id`, player, FormatDate(through))
	if err != nil {
		return nil, fmt.Errorf("player history %s: %w", player, err)
	}
	defer rows.Close()
	return scanStatRows(rows)
}

// PlayerRows returns every row of the player.
func (db *DB) PlayerRows(ctx context.Context, player string) ([]model.PlayerStatRow, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+statColumns+` FROM player_stats
		WHERE player = ?
		ORDER BY date, match_id`, player)
	if err != nil {
		return nil, fmt.Errorf("player rows %s: %w", player, err)
	}
	defer rows.Close()
	return scanStatRows(rows)
}

// KnownSourceKeys returns the subset of keys already present in the ledger.
func (db *DB) KnownSourceKeys(ctx context.Context, keys []string) (map[string]bool, error) {
	known := make(map[string]bool)
	for start := 0; start < len(keys); start += sourceKeyChunk {
		end := min(start+sourceKeyChunk, len(keys))
		chunk := keys[start:end]

		args := make([]any, len(chunk))
		for i, k := range chunk {
			args[i] = k
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		rows, err := db.conn.QueryContext(ctx,
			`SELECT DISTINCT source_key FROM player_stats WHERE source_key IN (`+placeholders+`)`, args...)
		if err != nil {
			return nil, fmt.Errorf("known source keys: %w", err)
		}
		for rows.Next() {
			var k string
			if err := rows.Scan(&k); err != nil {
				rows.Close()
				return nil, err
			}
			known[k] = true
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return known, nil
}

// Append writes the run record and all rows in a single transaction.
func (db *DB) Append(ctx context.Context, run model.IngestRun, stats []model.PlayerStatRow) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO ingest_runs(run_id, source, started_at, matches_read, matches_skipped, matches_duplicate, rows_appended)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Source, FormatDate(run.StartedAt),
		run.MatchesRead, run.MatchesSkipped, run.MatchesDuplicate, len(stats),
	)
	if err != nil {
		return mapSQLiteError(fmt.Errorf("insert ingest run: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO player_stats(`+statColumns+`, run_id)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range stats {
		_, err = stmt.ExecContext(ctx,
			s.Player, s.Court, s.Stage, FormatDate(s.Date), s.Result, boolInt(s.IsPlayer1), s.MatchID,
			s.CumulativeWins, s.CumulativeLosses, s.Streak, s.CourtWins, s.CourtLosses,
			s.WinsLast5, s.WinsLast30d, s.MatchesLast30d,
			s.WinRt, s.CourtWinRt, s.WinRtLast30, s.SourceKey, run.RunID,
		)
		if err != nil {
			return mapSQLiteError(fmt.Errorf("insert player_stats for %s match %d: %w", s.Player, s.MatchID, err))
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStatRow(sc scanner) (model.PlayerStatRow, error) {
	var r model.PlayerStatRow
	var date string
	var isP1 int
	err := sc.Scan(
		&r.Player, &r.Court, &r.Stage, &date, &r.Result, &isP1, &r.MatchID,
		&r.CumulativeWins, &r.CumulativeLosses, &r.Streak, &r.CourtWins, &r.CourtLosses,
		&r.WinsLast5, &r.WinsLast30d, &r.MatchesLast30d,
		&r.WinRt, &r.CourtWinRt, &r.WinRtLast30, &r.SourceKey,
	)
	if err != nil {
		return r, err
	}
	r.IsPlayer1 = isP1 != 0
	if r.Date, err = time.Parse(model.DateLayout, date); err != nil {
		return r, fmt.Errorf("row %s/%d: bad date %q: %w", r.Player, r.MatchID, date, err)
	}
	return r, nil
}

func scanStatRows(rows *sql.Rows) ([]model.PlayerStatRow, error) {
	var out []model.PlayerStatRow
	for rows.Next() {
		r, err := scanStatRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// mapSQLiteError turns primary-key and unique violations into ErrDuplicateKey.
func mapSQLiteError(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		case sqlite3.SQLITE_CONSTRAINT:
			// Connections without extended result codes only report the primary code.
			if strings.Contains(se.Error(), "UNIQUE constraint failed") {
				return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
			}
		}
	}
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
