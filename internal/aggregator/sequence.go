package aggregator

import (
	"sort"

	"github.com/pable/go-match-stats/internal/model"
)

// Sequence sorts records by date, keeping input order for ties, and assigns
// match ids lastID+1, lastID+2, ... in that order. Pass -1 for an empty ledger.
func Sequence(records []model.MatchRecord, lastID int64) []model.SequencedMatch {
	sorted := make([]model.MatchRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := make([]model.SequencedMatch, len(sorted))
	for i, r := range sorted {
		out[i] = model.SequencedMatch{MatchRecord: r, MatchID: lastID + 1 + int64(i)}
	}
	return out
}
