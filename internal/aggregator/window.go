package aggregator

import (
	"sort"
	"time"
)

// WindowSize is the number of most recent outcomes kept per player.
const WindowSize = 5

// RecentDays is the look-back of the trailing 30-day figures.
const RecentDays = 30

type outcome struct {
	date   time.Time
	result int
}

// Window holds a player's WindowSize most recent outcomes, oldest first.
//
// The 30-day figures derived from it only see those entries, so they are
// bounded by whichever is smaller: WindowSize matches or the 30-day cutoff.
type Window struct {
	entries []outcome
}

// Add inserts an outcome in date order and drops the oldest entries beyond WindowSize.
// An outcome dated the same as existing entries goes after them.
func (w *Window) Add(date time.Time, result int) {
	i := sort.Search(len(w.entries), func(i int) bool {
		return w.entries[i].date.After(date)
	})
	w.entries = append(w.entries, outcome{})
	copy(w.entries[i+1:], w.entries[i:])
	w.entries[i] = outcome{date: date, result: result}
	if n := len(w.entries); n > WindowSize {
		w.entries = append(w.entries[:0], w.entries[n-WindowSize:]...)
	}
}

// Len returns the number of outcomes held.
func (w *Window) Len() int { return len(w.entries) }

// WinsLast5 returns the number of wins in the window.
func (w *Window) WinsLast5() int {
	wins := 0
	for _, e := range w.entries {
		wins += e.result
	}
	return wins
}

// Last30d returns wins and matches among the window entries dated on or after ref minus 30 days.
func (w *Window) Last30d(ref time.Time) (wins, matches int) {
	cutoff := recentCutoff(ref)
	for _, e := range w.entries {
		if e.date.Before(cutoff) {
			continue
		}
		matches++
		wins += e.result
	}
	return wins, matches
}

func recentCutoff(ref time.Time) time.Time {
	return ref.AddDate(0, 0, -RecentDays)
}
