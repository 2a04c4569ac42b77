package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pable/go-match-stats/internal/model"
)

// ErrPlayerNotCached is returned by Update for a player that Get never loaded.
// It indicates a bug in the caller and aborts the run.
var ErrPlayerNotCached = errors.New("player not in cache")

// HistoryReader is the part of the ledger the cache needs.
type HistoryReader interface {
	// PlayerHistory returns the player's rows dated on or before through,
	// ordered by date then match id.
	PlayerHistory(ctx context.Context, player string, through time.Time) ([]model.PlayerStatRow, error)
}

type courtRecord struct {
	wins, losses int
}

// playerState is the mutable per-run state of one player.
type playerState struct {
	wins, losses int
	streak       int
	courts       map[string]courtRecord
	window       Window
	wins30       int
	matches30    int
	asOf         time.Time
}

// Cache is the per-run working set of player states. It is loaded lazily
// from the ledger and is not safe for concurrent use.
type Cache struct {
	history HistoryReader
	players map[string]*playerState
}

// NewCache returns an empty cache backed by h.
func NewCache(h HistoryReader) *Cache {
	return &Cache{history: h, players: make(map[string]*playerState)}
}

// Get returns the player's current state with court figures for court.
//
// The first call for a player loads its ledger history up to asOf: the latest
// row supplies the cumulative record and streak, the latest row on each court
// supplies that court's record, and the 30-day figures come from a scan of every
// row in [asOf-30d, asOf]. Ledger rows already include their own match, so the
// latest row is used as is. Later calls return the cached state.
func (c *Cache) Get(ctx context.Context, player string, asOf time.Time, court string) (model.AggregateState, error) {
	ps, ok := c.players[player]
	if !ok {
		rows, err := c.history.PlayerHistory(ctx, player, asOf)
		if err != nil {
			return model.AggregateState{}, fmt.Errorf("load history for %s: %w", player, err)
		}
		ps = stateFromHistory(rows, asOf)
		c.players[player] = ps
	}
	return ps.snapshot(player, court), nil
}

// Update applies one outcome to a cached player and returns the new state.
//
// The court record continues the player's own record on that court, whether
// or not the court differs from the previous match.
func (c *Cache) Update(player string, result int, date time.Time, court string) (model.AggregateState, error) {
	ps, ok := c.players[player]
	if !ok {
		return model.AggregateState{}, fmt.Errorf("%w: %s", ErrPlayerNotCached, player)
	}

	rec := ps.courts[court]
	if result == 1 {
		ps.wins++
		rec.wins++
	} else {
		ps.losses++
		rec.losses++
	}
	ps.courts[court] = rec
	ps.streak = model.NextStreak(ps.streak, result)

	ps.window.Add(date, result)
	ps.wins30, ps.matches30 = ps.window.Last30d(date)
	if date.After(ps.asOf) {
		ps.asOf = date
	}
	return ps.snapshot(player, court), nil
}

// Len returns the number of players loaded in this run.
func (c *Cache) Len() int { return len(c.players) }

func stateFromHistory(rows []model.PlayerStatRow, asOf time.Time) *playerState {
	ps := &playerState{courts: make(map[string]courtRecord), asOf: asOf}
	if len(rows) == 0 {
		return ps
	}

	latest := rows[len(rows)-1]
	ps.wins = latest.CumulativeWins
	ps.losses = latest.CumulativeLosses
	ps.streak = latest.Streak

	// Rows are in order, so the last row seen on a court holds its record.
	for _, r := range rows {
		ps.courts[r.Court] = courtRecord{wins: r.CourtWins, losses: r.CourtLosses}
	}

	cutoff := recentCutoff(asOf)
	for _, r := range rows {
		if r.Date.Before(cutoff) || r.Date.After(asOf) {
			continue
		}
		ps.matches30++
		ps.wins30 += r.Result
	}

	start := len(rows) - WindowSize
	if start < 0 {
		start = 0
	}
	for _, r := range rows[start:] {
		ps.window.Add(r.Date, r.Result)
	}
	return ps
}

func (ps *playerState) snapshot(player, court string) model.AggregateState {
	rec := ps.courts[court]
	s := model.AggregateState{
		Player:           player,
		Court:            court,
		AsOf:             ps.asOf,
		CumulativeWins:   ps.wins,
		CumulativeLosses: ps.losses,
		Streak:           ps.streak,
		CourtWins:        rec.wins,
		CourtLosses:      rec.losses,
		WinsLast5:        ps.window.WinsLast5(),
		WinsLast30d:      ps.wins30,
		MatchesLast30d:   ps.matches30,
	}
	s.RecomputeRatios()
	return s
}
