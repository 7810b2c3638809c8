package inference

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// UnnamedPrefix names columns whose header cell is blank or absent
const UnnamedPrefix = "Unnamed: "

// RawRow is one data row of an uploaded file
type RawRow struct {
	// Record is the 0-based index of the record in the parsed file
	Record int
	Cells  []string
}

// RawTable is a parsed upload before schema inference
type RawTable struct {
	Columns []string
	Rows    []RawRow
}

// Cell returns the value at (row, col), or "" for short rows
func (t *RawTable) Cell(row, col int) string {
	cells := t.Rows[row].Cells
	if col < 0 || col >= len(cells) {
		return ""
	}
	return cells[col]
}

// Column returns every value of the column at index col
func (t *RawTable) Column(col int) []string {
	values := make([]string, len(t.Rows))
	for i := range t.Rows {
		values[i] = t.Cell(i, col)
	}
	return values
}

// IsUnnamed reports whether the column name was synthesized for a blank header
func IsUnnamed(name string) bool {
	return strings.HasPrefix(name, UnnamedPrefix)
}

// StripBOM removes a leading UTF-8 byte order mark
func StripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte("\ufeff"))
}

// ReadRecords parses raw CSV text into records of raw string cells.
// Rows may have differing lengths and stray quotes are tolerated.
func ReadRecords(data []byte, comma rune) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(StripBOM(data)))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// buildTable turns records into a RawTable. headerAt < 0 synthesizes names.
// Records before dataFrom and those listed in skip never become data rows.
func buildTable(records [][]string, headerAt, dataFrom int, skip map[int]bool) *RawTable {
	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}

	var header []string
	if headerAt >= 0 && headerAt < len(records) {
		header = records[headerAt]
	}

	t := &RawTable{Columns: headerNames(header, width)}
	for i := dataFrom; i < len(records); i++ {
		if skip[i] {
			continue
		}
		t.Rows = append(t.Rows, RawRow{Record: i, Cells: records[i]})
	}
	return t
}

// headerNames trims header cells, names blank ones "Unnamed: N" and
// suffixes duplicates with ".1", ".2" in order of appearance.
func headerNames(header []string, width int) []string {
	if len(header) > width {
		width = len(header)
	}
	names := make([]string, width)
	seen := make(map[string]int, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(header) {
			name = strings.TrimSpace(header[i])
		}
		if name == "" {
			name = fmt.Sprintf("%s%d", UnnamedPrefix, i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		names[i] = name
	}
	return names
}
