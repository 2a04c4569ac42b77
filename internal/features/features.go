// Package features assembles the classifier input for a future match from the ledger.
package features

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pable/go-match-stats/internal/model"
)

// MissingRating replaces an absent or zero rating.
const MissingRating = 329.0

// RowIndex fills the row-index column the classifier was trained with.
const RowIndex = 20000

// statNames are the per-player fields, in classifier order.
var statNames = []string{
	"cumulative_wins",
	"cumulative_losses",
	"streak",
	"court_wins",
	"court_losses",
	"wins_last_5",
	"wins_last_30d",
	"matches_last_30d",
	"win_rt",
	"court_win_rt",
	"win_rt_last_30",
}

// diffNames maps each pairwise difference to the stat it compares.
var diffNames = [][2]string{
	{"wins_diff", "cumulative_wins"},
	{"losses_diff", "cumulative_losses"},
	{"streak_diff", "streak"},
	{"court_wins_diff", "court_wins"},
	{"court_losses_diff", "court_losses"},
	{"last_5wins_diff", "wins_last_5"},
	{"last_30d_wins_diff", "wins_last_30d"},
	{"last_30d_games_diff", "matches_last_30d"},
	{"win_rt_diff", "win_rt"},
	{"court_win_rt_diff", "court_win_rt"},
	{"win_rt_last_30_diff", "win_rt_last_30"},
}

// Names returns every feature name in classifier order.
func Names() []string {
	names := []string{
		"Unnamed: 0",
		"r1", "r2", "r1_was_missing", "r2_was_missing",
		"rating_diff", "rating_mean", "rating_ratio",
	}
	for _, s := range statNames {
		names = append(names, "p1_"+s, "p2_"+s)
	}
	for _, d := range diffNames {
		names = append(names, d[0])
	}
	return names
}

// Mapping is an ordered set of named feature values.
type Mapping struct {
	names  []string
	values map[string]float64
}

func newMapping() *Mapping {
	return &Mapping{values: make(map[string]float64)}
}

func (m *Mapping) set(name string, v float64) {
	if _, ok := m.values[name]; !ok {
		m.names = append(m.names, name)
	}
	m.values[name] = v
}

// Names returns the feature names in insertion order.
func (m Mapping) Names() []string { return append([]string(nil), m.names...) }

// Get returns the value of a feature.
func (m Mapping) Get(name string) (float64, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Len returns the number of features.
func (m Mapping) Len() int { return len(m.names) }

// StatsReader is the part of the ledger the assembler reads.
type StatsReader interface {
	PlayerRows(ctx context.Context, player string) ([]model.PlayerStatRow, error)
}

// Assembler builds feature mappings from the ledger. It only reads.
type Assembler struct {
	stats StatsReader
}

// NewAssembler creates an Assembler.
func NewAssembler(r StatsReader) *Assembler {
	return &Assembler{stats: r}
}

// Assemble builds the features for player1 name1 against player2 name2 on court.
// A nil or zero rating is replaced by MissingRating and flagged.
func (a *Assembler) Assemble(ctx context.Context, name1, name2 string, r1, r2 *float64, court string) (Mapping, error) {
	var s1, s2 model.AggregateState
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		s1, err = a.Latest(gctx, name1, court)
		return err
	})
	g.Go(func() error {
		var err error
		s2, err = a.Latest(gctx, name2, court)
		return err
	})
	if err := g.Wait(); err != nil {
		return Mapping{}, err
	}

	rating1, missing1 := rating(r1)
	rating2, missing2 := rating(r2)

	m := newMapping()
	m.set("Unnamed: 0", RowIndex)
	m.set("r1", rating1)
	m.set("r2", rating2)
	m.set("r1_was_missing", missing1)
	m.set("r2_was_missing", missing2)
	m.set("rating_diff", rating1-rating2)
	m.set("rating_mean", (rating1+rating2)/2)
	m.set("rating_ratio", rating1/rating2)

	v1, v2 := statValues(&s1), statValues(&s2)
	for _, name := range statNames {
		m.set("p1_"+name, v1[name])
		m.set("p2_"+name, v2[name])
	}
	for _, d := range diffNames {
		m.set(d[0], v1[d[1]]-v2[d[1]])
	}
	return *m, nil
}

// Latest returns the player's current state without advancing it.
//
// Cumulative figures, streak and the last-5 count come from the latest row.
// Court figures come from the latest row on court, or the latest row's own
// court when court is empty. The 30-day figures count every row in
// [latest-30d, latest]. A player with no rows gets the zero state.
func (a *Assembler) Latest(ctx context.Context, player, court string) (model.AggregateState, error) {
	rows, err := a.stats.PlayerRows(ctx, player)
	if err != nil {
		return model.AggregateState{}, fmt.Errorf("read stats for %s: %w", player, err)
	}
	state := model.AggregateState{Player: player, Court: court}
	if len(rows) == 0 {
		return state, nil
	}

	latest := rows[len(rows)-1]
	if court == "" {
		court = latest.Court
	}
	state.Court = court
	state.AsOf = latest.Date
	state.CumulativeWins = latest.CumulativeWins
	state.CumulativeLosses = latest.CumulativeLosses
	state.Streak = latest.Streak
	state.WinsLast5 = latest.WinsLast5

	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Court == court {
			state.CourtWins = rows[i].CourtWins
			state.CourtLosses = rows[i].CourtLosses
			break
		}
	}

	cutoff := latest.Date.AddDate(0, 0, -30)
	for _, r := range rows {
		if r.Date.Before(cutoff) || r.Date.After(latest.Date) {
			continue
		}
		state.MatchesLast30d++
		state.WinsLast30d += r.Result
	}

	state.RecomputeRatios()
	return state, nil
}

func rating(r *float64) (value, missing float64) {
	if r == nil || *r == 0 {
		return MissingRating, 1
	}
	return *r, 0
}

func statValues(s *model.AggregateState) map[string]float64 {
	return map[string]float64{
		"cumulative_wins":   float64(s.CumulativeWins),
		"cumulative_losses": float64(s.CumulativeLosses),
		"streak":            float64(s.Streak),
		"court_wins":        float64(s.CourtWins),
		"court_losses":      float64(s.CourtLosses),
		"wins_last_5":       float64(s.WinsLast5),
		"wins_last_30d":     float64(s.WinsLast30d),
		"matches_last_30d":  float64(s.MatchesLast30d),
		"win_rt":            s.WinRt,
		"court_win_rt":      s.CourtWinRt,
		"win_rt_last_30":    s.WinRtLast30,
	}
}
