// Package aggregator computes per-player rolling statistics for a chronological batch of matches.
package aggregator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pable/go-match-stats/internal/model"
)

// Pipeline turns sequenced matches into ledger rows.
type Pipeline struct {
	history HistoryReader
	log     *zap.SugaredLogger
}

// NewPipeline returns a pipeline that seeds player state from h.
func NewPipeline(h HistoryReader, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{history: h, log: log.Sugar()}
}

// Process walks matches in order and returns two rows per match, player1 first.
// Each row is the player's state immediately after the match. Nothing is
// persisted; on any error no rows are returned.
//
// matches must already be sorted by date (see Sequence). A fresh cache is used
// for every call.
func (p *Pipeline) Process(ctx context.Context, matches []model.SequencedMatch) ([]model.PlayerStatRow, error) {
	cache := NewCache(p.history)
	rows := make([]model.PlayerStatRow, 0, 2*len(matches))

	for i := range matches {
		m := &matches[i]
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r1 := m.Result()
		sides := []struct {
			player    string
			isPlayer1 bool
			result    int
		}{
			{m.Player1, true, r1},
			{m.Player2, false, 1 - r1},
		}

		// Load both players before either is advanced.
		for _, s := range sides {
			if _, err := cache.Get(ctx, s.player, m.Date, m.Court); err != nil {
				return nil, fmt.Errorf("match %d: %w", m.MatchID, err)
			}
		}
		for _, s := range sides {
			state, err := cache.Update(s.player, s.result, m.Date, m.Court)
			if err != nil {
				return nil, fmt.Errorf("match %d: %w", m.MatchID, err)
			}
			rows = append(rows, state.Row(m, s.isPlayer1, s.result))
		}
	}

	p.log.Debugw("pipeline finished", "matches", len(matches), "players", cache.Len(), "rows", len(rows))
	return rows, nil
}
