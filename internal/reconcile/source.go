package reconcile

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"stock-count/internal/inference"
)

// record is one parsed CSV record together with where it sits in the file.
// [start, end) covers any blank lines before it and its line terminator.
type record struct {
	cells  []string
	start  int
	end    int
	fields []int
}

// source is the original upload split into records without losing a byte
type source struct {
	raw     []byte
	bom     int
	comma   rune
	records []record
}

// readSource parses raw with the same reader settings as the importer so
// record numbers line up with the canonical table.
func readSource(raw []byte, comma rune) (*source, error) {
	body := inference.StripBOM(raw)
	src := &source{raw: raw, bom: len(raw) - len(body), comma: comma}

	lineStarts := []int{0}
	for i, b := range body {
		if b == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}

	r := csv.NewReader(bytes.NewReader(body))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	prev := 0
	for {
		cells, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		rec := record{cells: cells, start: src.bom + prev, fields: make([]int, len(cells))}
		for i := range cells {
			line, col := r.FieldPos(i)
			rec.fields[i] = src.bom + lineStarts[line-1] + col - 1
		}
		prev = int(r.InputOffset())
		rec.end = src.bom + prev
		src.records = append(src.records, rec)
	}
	return src, nil
}

// tail is whatever follows the last record, usually trailing blank lines
func (s *source) tail() []byte {
	if len(s.records) == 0 {
		return s.raw[s.bom:]
	}
	return s.raw[s.records[len(s.records)-1].end:]
}

// copyRecord writes rec exactly as it appeared in the upload
func (s *source) copyRecord(buf *bytes.Buffer, rec record) {
	buf.Write(s.raw[rec.start:rec.end])
}

// splice writes rec with cell col replaced by value. Short records are
// padded with empty cells up to col. All other bytes come from the upload.
func (s *source) splice(buf *bytes.Buffer, rec record, col int, value string) {
	value = s.quote(value)
	contentEnd := rec.end - terminatorLen(s.raw[rec.start:rec.end])

	if col >= len(rec.fields) {
		buf.Write(s.raw[rec.start:contentEnd])
		buf.WriteString(strings.Repeat(string(s.comma), col-len(rec.fields)+1))
		buf.WriteString(value)
		buf.Write(s.raw[contentEnd:rec.end])
		return
	}

	from, to := rec.fields[col], contentEnd
	if col+1 < len(rec.fields) {
		to = rec.fields[col+1] - utf8.RuneLen(s.comma)
	}
	buf.Write(s.raw[rec.start:from])
	buf.WriteString(value)
	buf.Write(s.raw[to:rec.end])
}

// quote wraps value only when it holds the delimiter, a quote or a newline
func (s *source) quote(value string) string {
	if !strings.ContainsRune(value, s.comma) && !strings.ContainsAny(value, "\"\r\n") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func terminatorLen(b []byte) int {
	switch {
	case bytes.HasSuffix(b, []byte("\r\n")):
		return 2
	case bytes.HasSuffix(b, []byte("\n")), bytes.HasSuffix(b, []byte("\r")):
		return 1
	}
	return 0
}
