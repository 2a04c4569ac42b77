package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pable/go-match-stats/internal/model"
	"github.com/pable/go-match-stats/internal/storage"
)

// Ledger implements storage.Store using PostgreSQL.
type Ledger struct {
	pool *Pool
}

// NewLedger creates a Ledger on an existing pool.
func NewLedger(pool *Pool) *Ledger {
	return &Ledger{pool: pool}
}

// Compile-time interface check.
var _ storage.Store = (*Ledger)(nil)

// Open connects to dsn, applies the schema and returns the ledger.
func Open(ctx context.Context, dsn string) (*Ledger, error) {
	pool, err := NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return NewLedger(pool), nil
}

// Close closes the connection pool.
func (l *Ledger) Close() error {
	l.pool.Close()
	return nil
}

const statColumns = `player, court, stage, date, result, is_player1, match_id,
	cumulative_wins, cumulative_losses, streak, court_wins, court_losses,
	wins_last_5, wins_last_30d, matches_last_30d,
	win_rt, court_win_rt, win_rt_last_30, source_key`

// Load returns the whole ledger in history order.
func (l *Ledger) Load(ctx context.Context) ([]model.PlayerStatRow, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT `+statColumns+` FROM player_stats ORDER BY date, match_id, is_player1 DESC`)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	defer rows.Close()
	return scanStatRows(rows)
}

// MaxMatchID returns the highest match id, or -1 when the ledger is empty.
func (l *Ledger) MaxMatchID(ctx context.Context) (int64, error) {
	var id *int64
	if err := l.pool.QueryRow(ctx, `SELECT MAX(match_id) FROM player_stats`).Scan(&id); err != nil {
		return 0, fmt.Errorf("max match id: %w", err)
	}
	if id == nil {
		return -1, nil
	}
	return *id, nil
}

// PlayerHistory returns the player's rows dated on or before through.
func (l *Ledger) PlayerHistory(ctx context.Context, player string, through time.Time) ([]model.PlayerStatRow, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT `+statColumns+` FROM player_stats
		WHERE player = $1 AND date <= $2
		ORDER BY date, match_id`, player, through.UTC())
	if err != nil {
		return nil, fmt.Errorf("player history %s: %w", player, err)
	}
	defer rows.Close()
	return scanStatRows(rows)
}

// PlayerRows returns every row of the player.
func (l *Ledger) PlayerRows(ctx context.Context, player string) ([]model.PlayerStatRow, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT `+statColumns+` FROM player_stats
		WHERE player = $1
		ORDER BY date, match_id`, player)
	if err != nil {
		return nil, fmt.Errorf("player rows %s: %w", player, err)
	}
	defer rows.Close()
	return scanStatRows(rows)
}

// KnownSourceKeys returns the subset of keys already present in the ledger.
func (l *Ledger) KnownSourceKeys(ctx context.Context, keys []string) (map[string]bool, error) {
	known := make(map[string]bool)
	if len(keys) == 0 {
		return known, nil
	}
	rows, err := l.pool.Query(ctx,
		`SELECT DISTINCT source_key FROM player_stats WHERE source_key = ANY($1)`, keys)
	if err != nil {
		return nil, fmt.Errorf("known source keys: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		known[k] = true
	}
	return known, rows.Err()
}

// Append writes the run and all rows atomically. Fails the entire batch on any duplicate.
func (l *Ledger) Append(ctx context.Context, run model.IngestRun, stats []model.PlayerStatRow) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO ingest_runs (
			run_id, source, started_at, matches_read, matches_skipped, matches_duplicate, rows_appended
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.RunID, run.Source, run.StartedAt.UTC(),
		run.MatchesRead, run.MatchesSkipped, run.MatchesDuplicate, len(stats),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert ingest run: %w", err)
	}

	query := `
		INSERT INTO player_stats (` + statColumns + `, run_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	for _, s := range stats {
		_, err := tx.Exec(ctx, query,
			s.Player, s.Court, s.Stage, s.Date.UTC(), s.Result, s.IsPlayer1, s.MatchID,
			s.CumulativeWins, s.CumulativeLosses, s.Streak, s.CourtWins, s.CourtLosses,
			s.WinsLast5, s.WinsLast30d, s.MatchesLast30d,
			s.WinRt, s.CourtWinRt, s.WinRtLast30, s.SourceKey, run.RunID,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return fmt.Errorf("%w: %s match %d", storage.ErrDuplicateKey, s.Player, s.MatchID)
			}
			return fmt.Errorf("insert player_stats: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func scanStatRows(rows pgx.Rows) ([]model.PlayerStatRow, error) {
	var out []model.PlayerStatRow
	for rows.Next() {
		var r model.PlayerStatRow
		var result int16
		err := rows.Scan(
			&r.Player, &r.Court, &r.Stage, &r.Date, &result, &r.IsPlayer1, &r.MatchID,
			&r.CumulativeWins, &r.CumulativeLosses, &r.Streak, &r.CourtWins, &r.CourtLosses,
			&r.WinsLast5, &r.WinsLast30d, &r.MatchesLast30d,
			&r.WinRt, &r.CourtWinRt, &r.WinRtLast30, &r.SourceKey,
		)
		if err != nil {
			return nil, fmt.Errorf("scan player_stats: %w", err)
		}
		r.Result = int(result)
		out = append(out, r)
	}
	return out, rows.Err()
}
