package parser

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func rawRow(p1, p2, date, sets string) RawRow {
	return RawRow{Line: 2, Fields: map[string]string{
		FieldPlayer1: p1,
		FieldPlayer2: p2,
		FieldDate:    date,
		FieldStage:   "1/8",
		FieldCourt:   "hard",
		FieldR1:      "350",
		FieldR2:      "",
		FieldSets:    sets,
	}}
}

func TestNormalize_StripsSeedPrefix(t *testing.T) {
	rec, err := Normalize(rawRow("(3) Ivanov A.", "(WC)  Petrov B.", "2024-03-15", "3-1"))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.Player1 != "Ivanov A." || rec.Player2 != "Petrov B." {
		t.Errorf("names not cleaned: %q / %q", rec.Player1, rec.Player2)
	}
	if !rec.Player1Won {
		t.Error("3-1 should be a player1 win")
	}
	if rec.R1 == nil || *rec.R1 != 350 {
		t.Errorf("R1: want 350, got %v", rec.R1)
	}
	if rec.R2 != nil {
		t.Errorf("R2: want nil for empty rating, got %v", *rec.R2)
	}
	if rec.SourceKey == "" {
		t.Error("expected a source key")
	}
}

func TestNormalize_SkipsMalformedScores(t *testing.T) {
	cases := []struct {
		sets string
		want error
	}{
		{"", ErrNoScore},
		{"nan", ErrNoScore},
		{"3:1", ErrBadScore},
		{"3-x", ErrBadScore},
		{"3-1-2", ErrBadScore},
		{"w/o", ErrBadScore},
	}
	for _, c := range cases {
		_, err := Normalize(rawRow("A", "B", "2024-03-15", c.sets))
		if !errors.Is(err, c.want) {
			t.Errorf("sets %q: want %v, got %v", c.sets, c.want, err)
		}
	}
}

func TestNormalize_LevelScoreIsPlayer1Loss(t *testing.T) {
	rec, err := Normalize(rawRow("A", "B", "2024-03-15", "2-2"))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.Player1Won {
		t.Error("a level score must not count as a player1 win")
	}
}

func TestNormalize_MissingPlayerAndDate(t *testing.T) {
	if _, err := Normalize(rawRow("", "B", "2024-03-15", "3-0")); !errors.Is(err, ErrMissingPlayer) {
		t.Errorf("empty player1: want ErrMissingPlayer, got %v", err)
	}
	if _, err := Normalize(rawRow("A", "B", "yesterday", "3-0")); !errors.Is(err, ErrBadDate) {
		t.Errorf("bad date: want ErrBadDate, got %v", err)
	}
	if _, err := Normalize(rawRow("(1) A", "A", "2024-03-15", "3-0")); !errors.Is(err, ErrSamePlayer) {
		t.Errorf("self match: want ErrSamePlayer, got %v", err)
	}
}

func TestParseDate_Layouts(t *testing.T) {
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2024-03-15", "15.03.2024", "2024/03/15", "2024-03-15 00:00:00", "45366"} {
		got, err := ParseDate(s)
		if err != nil {
			t.Errorf("ParseDate(%q): %v", s, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestSourceKey_StableAcrossPrefixes(t *testing.T) {
	a, _ := Normalize(rawRow("(1) A", "B", "2024-03-15", "3-0"))
	b, _ := Normalize(rawRow("A", "(Q) B", "15.03.2024", "3-0"))
	if a.SourceKey != b.SourceKey {
		t.Error("same match written differently should hash to the same key")
	}
	c, _ := Normalize(rawRow("A", "B", "2024-03-15", "3-1"))
	if a.SourceKey == c.SourceKey {
		t.Error("different scores must hash differently")
	}
}

func TestReadCSV_RussianHeaders(t *testing.T) {
	data := "Unnamed: 0,Игрок 1,Игрок 2,Дата,Круг,Корт,R1,R2,Сеты\n" +
		"0,(2) Ivanov A.,Petrov B.,2024-03-15,1/4,hard,350,,3-2\n" +
		",,,,,,,,\n" +
		"1,Sidorov C.,Ivanov A.,2024-03-16,1/2,hard,,,\n"
	rows, err := ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 data rows (blank row dropped), got %d", len(rows))
	}
	if rows[0].Fields[FieldPlayer1] != "(2) Ivanov A." {
		t.Errorf("player1 column mapped wrong: %q", rows[0].Fields[FieldPlayer1])
	}
	if rows[1].Line != 4 {
		t.Errorf("line numbers should count the header and blank rows: want 4, got %d", rows[1].Line)
	}
	if _, err := Normalize(rows[1]); !errors.Is(err, ErrNoScore) {
		t.Errorf("unscored row: want ErrNoScore, got %v", err)
	}
}

func TestReadCSV_MissingColumns(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("player1,player2,date\nA,B,2024-01-01\n"))
	if err == nil {
		t.Fatal("expected an error for missing columns")
	}
	if !strings.Contains(err.Error(), "sets") {
		t.Errorf("error should name the missing column: %v", err)
	}
}

func TestReadFile_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.xlsx")
	f := excelize.NewFile()
	header := []interface{}{"Игрок 1", "Игрок 2", "Дата", "Круг", "Корт", "R1", "R2", "Сеты"}
	row := []interface{}{"(1) Ivanov A.", "Petrov B.", 45366, "final", "clay", 400, 380, "1-3"}
	if err := f.SetSheetRow("Sheet1", "A1", &header); err != nil {
		t.Fatalf("SetSheetRow header: %v", err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &row); err != nil {
		t.Fatalf("SetSheetRow data: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	rows, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	rec, err := Normalize(rows[0])
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if rec.Player1Won {
		t.Error("1-3 should be a player1 loss")
	}
	if !rec.Date.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("serial date decoded as %v", rec.Date)
	}
	if rec.Court != "clay" {
		t.Errorf("court: want clay, got %q", rec.Court)
	}
}

func TestReadFile_UnsupportedFormat(t *testing.T) {
	_, err := ReadFile("matches.json")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("want ErrUnsupportedFormat, got %v", err)
	}
}
