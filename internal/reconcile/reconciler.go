package reconcile

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"stock-count/internal/models"
)

// MarkerCell identifies the column that receives counted totals
const MarkerCell = "[E]Close SC"

// first data record; record 0 is the header and record 1 holds the marker
const firstDataRecord = 2

var (
	ErrTooFewRows     = errors.New("export needs a header row, a marker row and at least one data row")
	ErrMarkerNotFound = errors.New("could not find the '[E]Close SC' column in the second row of the original file")
)

// Totals supplies per-product counted totals
type Totals interface {
	TotalFor(productID string) decimal.Decimal
	HasEntries(productID string) bool
}

// Options controls parsing and writing of the raw file
type Options struct {
	// Comma is the delimiter the file was imported with; zero means ','
	Comma rune
}

// Report describes what happened to the data rows of an export
type Report struct {
	MarkerColumn int `json:"marker_column"`
	DataRows     int `json:"data_rows"`
	Written      int `json:"written"`
	Skipped      int `json:"skipped"`
	Failed       int `json:"failed"`
	Omitted      int `json:"omitted"`
}

// Notices lists the non-fatal row problems
func (r *Report) Notices() []string {
	var notices []string
	if r.Skipped > 0 {
		notices = append(notices, fmt.Sprintf("%d rows were not part of the imported stock list and were left unchanged", r.Skipped))
	}
	if r.Failed > 0 {
		notices = append(notices, fmt.Sprintf("%d rows could not be updated and were left unchanged", r.Failed))
	}
	return notices
}

// Reconcile rewrites the marker column of the original file with counted
// totals. Only the marker cell of a written row changes; every other byte,
// including the BOM and line endings, is copied from raw. Rows that map to
// no product are copied unchanged. Any fatal error means no output.
func Reconcile(raw []byte, table *models.CanonicalTable, totals Totals, mode models.ReportType, opts Options) ([]byte, *Report, error) {
	comma := opts.Comma
	if comma == 0 {
		comma = ','
	}

	src, err := readSource(raw, comma)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse original file: %w", err)
	}
	if len(src.records) <= firstDataRecord {
		return nil, nil, ErrTooFewRows
	}

	marker := markerColumn(src.records[1].cells)
	if marker < 0 {
		return nil, nil, ErrMarkerNotFound
	}

	report := &Report{MarkerColumn: marker, DataRows: len(src.records) - firstDataRecord}

	var buf bytes.Buffer
	buf.Grow(len(raw))
	buf.Write(raw[:src.bom])
	src.copyRecord(&buf, src.records[0])
	src.copyRecord(&buf, src.records[1])

	for r := firstDataRecord; r < len(src.records); r++ {
		rec := src.records[r]
		product, ok := table.ByRawRecord(r)
		if !ok {
			if mode == models.ReportCounted {
				report.Omitted++
				continue
			}
			report.Skipped++
			src.copyRecord(&buf, rec)
			continue
		}

		if mode == models.ReportCounted && !totals.HasEntries(product.ProductID) {
			report.Omitted++
			continue
		}

		total, err := lookup(product.ProductID, totals)
		if err != nil {
			log.Printf("[Export] record %d left unchanged: %v", r, err)
			report.Failed++
			src.copyRecord(&buf, rec)
			continue
		}
		report.Written++
		src.splice(&buf, rec, marker, FormatTotal(total))
	}
	buf.Write(src.tail())

	return buf.Bytes(), report, nil
}

// markerColumn returns the first cell of the marker row containing MarkerCell
func markerColumn(row []string) int {
	for i, cell := range row {
		if strings.Contains(cell, MarkerCell) {
			return i
		}
	}
	return -1
}

// lookup asks totals for a product. A panic from the source fails only
// this row.
func lookup(productID string, totals Totals) (total decimal.Decimal, err error) {
	defer func() {
		if p := recover(); p != nil {
			total, err = decimal.Zero, fmt.Errorf("total lookup for %s: %v", productID, p)
		}
	}()
	return totals.TotalFor(productID), nil
}

// FormatTotal renders a total without trailing zeros; zero is "0"
func FormatTotal(total decimal.Decimal) string {
	if total.IsZero() {
		return "0"
	}
	return total.String()
}
