package model

import "testing"

func TestSafeRatio(t *testing.T) {
	cases := []struct {
		num, den       int
		pos, zero, want float64
	}{
		{3, 2, 1, 0, 1.5},
		{3, 0, 1, 0, 1},
		{0, 0, 1, 0, 0},
		{0, 4, 1, 0, 0},
		{2, 0, 0, 0, 0},
	}
	for _, c := range cases {
		if got := SafeRatio(c.num, c.den, c.pos, c.zero); got != c.want {
			t.Errorf("SafeRatio(%d, %d, %v, %v) = %v, want %v", c.num, c.den, c.pos, c.zero, got, c.want)
		}
	}
}

func TestNextStreak(t *testing.T) {
	cases := []struct {
		streak, result, want int
	}{
		{0, 1, 1},
		{0, 0, -1},
		{3, 1, 4},
		{-2, 1, 1},
		{4, 0, -1},
		{-3, 0, -4},
	}
	for _, c := range cases {
		if got := NextStreak(c.streak, c.result); got != c.want {
			t.Errorf("NextStreak(%d, %d) = %d, want %d", c.streak, c.result, got, c.want)
		}
	}
}

func TestRecomputeRatios(t *testing.T) {
	s := AggregateState{CumulativeWins: 4, CumulativeLosses: 0, CourtWins: 0, CourtLosses: 0}
	s.RecomputeRatios()
	if s.WinRt != 1.0 {
		t.Errorf("WinRt with no losses: want 1.0, got %v", s.WinRt)
	}
	if s.CourtWinRt != 0 {
		t.Errorf("CourtWinRt with empty record: want 0, got %v", s.CourtWinRt)
	}
	if s.WinRtLast30 != 0 {
		t.Errorf("WinRtLast30 with no recent matches: want 0, got %v", s.WinRtLast30)
	}

	s = AggregateState{WinsLast30d: 2, MatchesLast30d: 4}
	s.RecomputeRatios()
	if s.WinRtLast30 != 0.5 {
		t.Errorf("WinRtLast30: want 0.5, got %v", s.WinRtLast30)
	}
}
