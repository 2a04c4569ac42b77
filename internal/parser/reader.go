package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither .csv nor .xlsx.
var ErrUnsupportedFormat = errors.New("unsupported batch format")

// ReadFile reads every data row of a .xlsx or .csv batch file.
func ReadFile(path string) ([]RawRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open batch: %w", err)
		}
		defer f.Close()
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadCSV reads a header row followed by data rows.
func ReadCSV(r io.Reader) ([]RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rowsFromTable(records)
}

func readXLSX(path string) ([]RawRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", filepath.Base(path))
	}
	// Raw values keep dates as Excel serials instead of locale-formatted text.
	table, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rowsFromTable(table)
}

// rowsFromTable maps the header row onto canonical fields and returns the data rows.
// Unknown columns (a pandas index column, notes, ...) are ignored.
func rowsFromTable(table [][]string) ([]RawRow, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("batch has no header row")
	}
	colField := make(map[int]string)
	seen := make(map[string]bool)
	for i, h := range table[0] {
		if f, ok := CanonicalColumn(strings.TrimPrefix(h, "\ufeff")); ok && !seen[f] {
			colField[i] = f
			seen[f] = true
		}
	}
	var missing []string
	for _, f := range RequiredFields {
		if !seen[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("batch is missing columns: %s", strings.Join(missing, ", "))
	}

	out := make([]RawRow, 0, len(table)-1)
	for n, rec := range table[1:] {
		if isBlank(rec) {
			continue
		}
		row := RawRow{Line: n + 2, Fields: make(map[string]string, len(colField))}
		for i, f := range colField {
			if i < len(rec) {
				row.Fields[f] = rec[i]
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
