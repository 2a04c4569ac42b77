// Package parser turns uploaded match sheets into normalized MatchRecords.
package parser

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pable/go-match-stats/internal/model"
)

// Canonical field names of a raw row.
const (
	FieldPlayer1 = "player1"
	FieldPlayer2 = "player2"
	FieldDate    = "date"
	FieldStage   = "stage"
	FieldCourt   = "court"
	FieldR1      = "r1"
	FieldR2      = "r2"
	FieldSets    = "sets"
)

// RequiredFields must be present as columns in every batch file.
var RequiredFields = []string{
	FieldPlayer1, FieldPlayer2, FieldDate, FieldStage, FieldCourt, FieldR1, FieldR2, FieldSets,
}

// Reasons a row is skipped. None of them abort a batch.
var (
	ErrNoScore       = errors.New("empty score")
	ErrBadScore      = errors.New("score is not <int>-<int>")
	ErrBadDate       = errors.New("unparsable date")
	ErrMissingPlayer = errors.New("missing player name")
	ErrSamePlayer    = errors.New("player1 and player2 are the same player")
)

// columnAliases maps lower-cased source headers to canonical fields.
var columnAliases = map[string]string{
	"игрок 1": FieldPlayer1,
	"игрок 2": FieldPlayer2,
	"дата":    FieldDate,
	"круг":    FieldStage,
	"корт":    FieldCourt,
	"сеты":    FieldSets,

	"player1":  FieldPlayer1,
	"player 1": FieldPlayer1,
	"player2":  FieldPlayer2,
	"player 2": FieldPlayer2,
	"date":     FieldDate,
	"stage":    FieldStage,
	"round":    FieldStage,
	"court":    FieldCourt,
	"surface":  FieldCourt,
	"r1":       FieldR1,
	"r2":       FieldR2,
	"sets":     FieldSets,
	"score":    FieldSets,
}

// seedPrefix matches a leading "(...)" seed or rank annotation.
var seedPrefix = regexp.MustCompile(`^\([^)]*\)\s*`)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"02.01.2006",
	"02.01.2006 15:04",
	"02.01.2006 15:04:05",
	"2006/01/02",
}

// RawRow is one data row of a batch file keyed by canonical field name.
type RawRow struct {
	Line   int
	Fields map[string]string
}

// CanonicalColumn maps a source header to its canonical field name.
func CanonicalColumn(header string) (string, bool) {
	f, ok := columnAliases[strings.ToLower(strings.TrimSpace(header))]
	return f, ok
}

// Normalize validates one raw row and converts it to a MatchRecord.
// The returned error explains why the row must be skipped.
func Normalize(row RawRow) (model.MatchRecord, error) {
	get := func(f string) string { return strings.TrimSpace(row.Fields[f]) }

	rec := model.MatchRecord{
		Player1: CleanName(get(FieldPlayer1)),
		Player2: CleanName(get(FieldPlayer2)),
		Stage:   get(FieldStage),
		Court:   get(FieldCourt),
		R1:      parseRating(get(FieldR1)),
		R2:      parseRating(get(FieldR2)),
		Sets:    get(FieldSets),
		Line:    row.Line,
	}
	if rec.Player1 == "" || rec.Player2 == "" {
		return model.MatchRecord{}, ErrMissingPlayer
	}
	if rec.Player1 == rec.Player2 {
		return model.MatchRecord{}, fmt.Errorf("%w: %q", ErrSamePlayer, rec.Player1)
	}

	won, err := ParseSets(rec.Sets)
	if err != nil {
		return model.MatchRecord{}, err
	}
	rec.Player1Won = won

	date, err := ParseDate(get(FieldDate))
	if err != nil {
		return model.MatchRecord{}, err
	}
	rec.Date = date
	rec.SourceKey = SourceKey(&rec)
	return rec, nil
}

// CleanName strips a leading parenthesised seed annotation from a player name.
func CleanName(name string) string {
	return strings.TrimSpace(seedPrefix.ReplaceAllString(strings.TrimSpace(name), ""))
}

// ParseSets reports whether player1 won a "<int>-<int>" sets score.
// A level score counts as a player1 loss.
func ParseSets(sets string) (bool, error) {
	sets = strings.TrimSpace(sets)
	if sets == "" || strings.EqualFold(sets, "nan") {
		return false, ErrNoScore
	}
	parts := strings.Split(sets, "-")
	if len(parts) != 2 {
		return false, fmt.Errorf("%w: %q", ErrBadScore, sets)
	}
	s1, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	s2, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return false, fmt.Errorf("%w: %q", ErrBadScore, sets)
	}
	return s1 > s2, nil
}

// ParseDate accepts the common sheet layouts and Excel serial dates.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrBadDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.Round(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
}

// parseRating returns nil for empty or non-numeric ratings.
func parseRating(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

// SourceKey hashes the identifying fields of a match so that re-uploaded rows
// can be recognised regardless of which batch they arrive in.
func SourceKey(m *model.MatchRecord) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s",
		m.Date.Format(model.DateLayout), m.Player1, m.Player2, m.Stage, m.Court, m.Sets)
	return fmt.Sprintf("%x", h.Sum(nil))
}
