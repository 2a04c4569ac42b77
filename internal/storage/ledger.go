package storage

import (
	"context"
	"time"

	"github.com/pable/go-match-stats/internal/model"
)

// Ledger is the append-only store of per-player-per-match statistics rows.
type Ledger interface {
	// Load returns every row ordered by date then match id. Empty when nothing was ingested.
	Load(ctx context.Context) ([]model.PlayerStatRow, error)

	// MaxMatchID returns the highest assigned match id, or -1 for an empty ledger.
	MaxMatchID(ctx context.Context) (int64, error)

	// PlayerHistory returns the player's rows dated on or before through,
	// ordered by date then match id.
	PlayerHistory(ctx context.Context, player string, through time.Time) ([]model.PlayerStatRow, error)

	// PlayerRows returns all of the player's rows ordered by date then match id.
	PlayerRows(ctx context.Context, player string) ([]model.PlayerStatRow, error)

	// KnownSourceKeys reports which of keys are already in the ledger.
	KnownSourceKeys(ctx context.Context, keys []string) (map[string]bool, error)

	// Append writes run and rows in one transaction. Either all rows become
	// visible or none do. Returns ErrDuplicateKey on a key collision.
	Append(ctx context.Context, run model.IngestRun, rows []model.PlayerStatRow) error
}

// Reports are the read-only queries behind the CLI listings.
type Reports interface {
	Players(ctx context.Context) ([]model.PlayerSummary, error)

	// MatchRows returns both rows of a match. Returns ErrNotFound for an unknown id.
	MatchRows(ctx context.Context, matchID int64) ([]model.PlayerStatRow, error)

	// Runs returns ingestion runs, newest first.
	Runs(ctx context.Context) ([]model.IngestRun, error)

	Overview(ctx context.Context) (model.LedgerOverview, error)

	// QueryRaw runs an arbitrary query and returns column names and stringified rows.
	QueryRaw(ctx context.Context, query string) ([]string, [][]string, error)
}

// Store is a ledger backend with its reporting queries.
type Store interface {
	Ledger
	Reports
	Close() error
}

// sourceKeyChunk bounds the number of bind parameters per KnownSourceKeys query.
const sourceKeyChunk = 500

// FormatDate renders a match date the way it is stored and exported.
func FormatDate(t time.Time) string {
	return t.UTC().Format(model.DateLayout)
}
