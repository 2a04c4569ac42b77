package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pable/go-match-stats/internal/model"
	"github.com/pable/go-match-stats/internal/storage"
)

// setupTestLedger starts a PostgreSQL container and returns a migrated ledger.
// The test is skipped under -short or when no container runtime is available.
func setupTestLedger(t *testing.T) *Ledger {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres ledger test needs a container runtime")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	ledger, err := Open(ctx, dsn)
	require.NoError(t, err, "failed to open ledger")
	t.Cleanup(func() { ledger.Close() })

	// Migrate must be safe to run twice.
	require.NoError(t, Migrate(ctx, ledger.pool))
	return ledger
}

var base = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func rowsForMatch(matchID int64, day int, p1, p2, key string) []model.PlayerStatRow {
	date := base.AddDate(0, 0, day)
	return []model.PlayerStatRow{
		{
			Player: p1, Court: "hard", Stage: "final", Date: date, Result: 1, IsPlayer1: true, MatchID: matchID,
			CumulativeWins: 1, Streak: 1, CourtWins: 1, WinsLast5: 1, WinsLast30d: 1, MatchesLast30d: 1,
			WinRt: 1, CourtWinRt: 1, WinRtLast30: 1, SourceKey: key,
		},
		{
			Player: p2, Court: "hard", Stage: "final", Date: date, Result: 0, IsPlayer1: false, MatchID: matchID,
			CumulativeLosses: 1, Streak: -1, CourtLosses: 1, MatchesLast30d: 1, SourceKey: key,
		},
	}
}

func TestLedger_AppendAndRead(t *testing.T) {
	ledger := setupTestLedger(t)
	ctx := context.Background()

	id, err := ledger.MaxMatchID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), id)

	rows := append(rowsForMatch(0, 0, "A", "B", "k0"), rowsForMatch(1, 4, "A", "C", "k1")...)
	run := model.IngestRun{RunID: "run-1", Source: "batch.csv", StartedAt: base, MatchesRead: 2}
	require.NoError(t, ledger.Append(ctx, run, rows))

	all, err := ledger.Load(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, rows[0], all[0])

	id, err = ledger.MaxMatchID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	hist, err := ledger.PlayerHistory(ctx, "A", base.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, int64(0), hist[0].MatchID)

	known, err := ledger.KnownSourceKeys(ctx, []string{"k0", "k7"})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"k0": true}, known)

	m, err := ledger.MatchRows(ctx, 1)
	require.NoError(t, err)
	require.Len(t, m, 2)
	assert.Equal(t, "A", m[0].Player)

	_, err = ledger.MatchRows(ctx, 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	players, err := ledger.Players(ctx)
	require.NoError(t, err)
	require.Len(t, players, 3)
	assert.Equal(t, "A", players[0].Player)

	ov, err := ledger.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, ov.Rows)
	assert.Equal(t, 2, ov.Matches)
	assert.Equal(t, 1, ov.Runs)
	assert.Equal(t, "2024-05-01 00:00:00", ov.EarliestMatch)

	cols, raw, err := ledger.QueryRaw(ctx, "SELECT player, match_id FROM player_stats WHERE player = 'C'")
	require.NoError(t, err)
	assert.Equal(t, []string{"player", "match_id"}, cols)
	assert.Equal(t, [][]string{{"C", "1"}}, raw)
}

func TestLedger_AppendIsAtomic(t *testing.T) {
	ledger := setupTestLedger(t)
	ctx := context.Background()

	run1 := model.IngestRun{RunID: "run-1", Source: "a.csv", StartedAt: base}
	require.NoError(t, ledger.Append(ctx, run1, rowsForMatch(0, 0, "A", "B", "k0")))

	// A re-ingested match collides on (player, source_key) after a fresh one.
	bad := append(rowsForMatch(1, 1, "C", "D", "k1"), rowsForMatch(2, 1, "A", "B", "k0")...)
	run2 := model.IngestRun{RunID: "run-2", Source: "b.csv", StartedAt: base}
	err := ledger.Append(ctx, run2, bad)
	require.ErrorIs(t, err, storage.ErrDuplicateKey)

	all, err := ledger.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2, "nothing from the failed batch is visible")

	runs, err := ledger.Runs(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
