package features

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-match-stats/internal/model"
)

type fakeStats map[string][]model.PlayerStatRow

func (f fakeStats) PlayerRows(_ context.Context, player string) ([]model.PlayerStatRow, error) {
	if player == "broken" {
		return nil, errors.New("read failed")
	}
	return f[player], nil
}

var day0 = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

// history for A: hard W (day 0), clay L (day 20), hard W (day 45).
func ledger() fakeStats {
	return fakeStats{
		"A": {
			{Player: "A", Court: "hard", Date: day0, Result: 1, CumulativeWins: 1, Streak: 1,
				CourtWins: 1, WinsLast5: 1, WinsLast30d: 1, MatchesLast30d: 1},
			{Player: "A", Court: "clay", Date: day0.AddDate(0, 0, 20), Result: 0, CumulativeWins: 1, CumulativeLosses: 1,
				Streak: -1, CourtLosses: 1, WinsLast5: 1, WinsLast30d: 1, MatchesLast30d: 2},
			{Player: "A", Court: "hard", Date: day0.AddDate(0, 0, 45), Result: 1, CumulativeWins: 2, CumulativeLosses: 1,
				Streak: 1, CourtWins: 2, WinsLast5: 2, WinsLast30d: 2, MatchesLast30d: 3},
		},
	}
}

func get(t *testing.T, m Mapping, name string) float64 {
	t.Helper()
	v, ok := m.Get(name)
	require.True(t, ok, "feature %s missing", name)
	return v
}

func TestAssemble_MissingRatings(t *testing.T) {
	m, err := NewAssembler(fakeStats{}).Assemble(context.Background(), "X", "Y", nil, nil, "hard")
	require.NoError(t, err)

	assert.Equal(t, 329.0, get(t, m, "r1"))
	assert.Equal(t, 329.0, get(t, m, "r2"))
	assert.Equal(t, 1.0, get(t, m, "r1_was_missing"))
	assert.Equal(t, 1.0, get(t, m, "r2_was_missing"))
	assert.Equal(t, 0.0, get(t, m, "rating_diff"))
	assert.Equal(t, 329.0, get(t, m, "rating_mean"))
	assert.Equal(t, 1.0, get(t, m, "rating_ratio"))
	assert.Equal(t, 20000.0, get(t, m, "Unnamed: 0"))
	assert.Equal(t, 0.0, get(t, m, "p1_win_rt"), "unknown players get the zero state")
}

func TestAssemble_ZeroRatingCountsAsMissing(t *testing.T) {
	zero, r2 := 0.0, 400.0
	m, err := NewAssembler(fakeStats{}).Assemble(context.Background(), "X", "Y", &zero, &r2, "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, get(t, m, "r1_was_missing"))
	assert.Equal(t, 0.0, get(t, m, "r2_was_missing"))
	assert.Equal(t, 329.0-400.0, get(t, m, "rating_diff"))
	assert.Equal(t, 329.0/400.0, get(t, m, "rating_ratio"))
}

func TestAssemble_NamesAndOrder(t *testing.T) {
	m, err := NewAssembler(ledger()).Assemble(context.Background(), "A", "B", nil, nil, "hard")
	require.NoError(t, err)

	names := Names()
	assert.Len(t, names, 41)
	assert.Equal(t, names, m.Names())
	assert.Equal(t, "Unnamed: 0", names[0])
	assert.Equal(t, "p1_cumulative_wins", names[8])
	assert.Equal(t, "p2_cumulative_wins", names[9])
	assert.Equal(t, "win_rt_last_30_diff", names[len(names)-1])
}

func TestAssemble_UsesComputedStats(t *testing.T) {
	m, err := NewAssembler(ledger()).Assemble(context.Background(), "A", "B", nil, nil, "hard")
	require.NoError(t, err)

	assert.Equal(t, 2.0, get(t, m, "p1_cumulative_wins"))
	assert.Equal(t, 0.0, get(t, m, "p2_cumulative_wins"))
	assert.Equal(t, 2.0, get(t, m, "wins_diff"))
	assert.Equal(t, 1.0, get(t, m, "losses_diff"))
	assert.Equal(t, 2.0, get(t, m, "p1_win_rt"))
	assert.Equal(t, 2.0, get(t, m, "p1_court_wins"))
	assert.Equal(t, 1.0, get(t, m, "p1_court_win_rt"))
	assert.Equal(t, 2.0, get(t, m, "last_5wins_diff"))
}

func TestLatest_CourtAndThirtyDays(t *testing.T) {
	a := NewAssembler(ledger())
	ctx := context.Background()

	clay, err := a.Latest(ctx, "A", "clay")
	require.NoError(t, err)
	assert.Equal(t, 0, clay.CourtWins)
	assert.Equal(t, 1, clay.CourtLosses)
	assert.Equal(t, 0.0, clay.CourtWinRt)

	grass, err := a.Latest(ctx, "A", "grass")
	require.NoError(t, err)
	assert.Equal(t, 0, grass.CourtWins+grass.CourtLosses, "never played on grass")

	// Day 0 is outside [day45-30d, day45].
	assert.Equal(t, 2, clay.MatchesLast30d)
	assert.Equal(t, 1, clay.WinsLast30d)
	assert.Equal(t, 0.5, clay.WinRtLast30)

	def, err := a.Latest(ctx, "A", "")
	require.NoError(t, err)
	assert.Equal(t, "hard", def.Court, "empty court means the latest row's court")
	assert.Equal(t, 2, def.CourtWins)
}

func TestAssemble_ReadErrorIsReturned(t *testing.T) {
	_, err := NewAssembler(ledger()).Assemble(context.Background(), "A", "broken", nil, nil, "hard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}
