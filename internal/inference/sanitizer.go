package inference

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SanitizeReport describes the rows removed by Sanitize
type SanitizeReport struct {
	StrayHeader    string `json:"stray_header,omitempty"`
	CommentRows    int    `json:"comment_rows"`
	NonNumericRows int    `json:"non_numeric_rows"`
	NegativeRows   int    `json:"negative_rows"`
}

// Dropped is the total number of removed rows
func (r SanitizeReport) Dropped() int {
	n := r.CommentRows + r.NonNumericRows + r.NegativeRows
	if r.StrayHeader != "" {
		n++
	}
	return n
}

// Notices renders the report as user-facing messages
func (r SanitizeReport) Notices() []string {
	var notices []string
	if r.StrayHeader != "" {
		notices = append(notices, fmt.Sprintf("Detected header row. Removed first row containing '%s'", r.StrayHeader))
	}
	if r.CommentRows > 0 {
		notices = append(notices, fmt.Sprintf("Removed %d comment row(s) from the data", r.CommentRows))
	}
	if r.NonNumericRows > 0 {
		notices = append(notices, fmt.Sprintf("Removed %d rows with non-numeric expected counts", r.NonNumericRows))
	}
	if r.NegativeRows > 0 {
		notices = append(notices, fmt.Sprintf("Removed %d rows with negative expected counts", r.NegativeRows))
	}
	return notices
}

// Sanitize filters the raw count values of a table. It returns the indices
// of the surviving rows together with their coerced counts.
func Sanitize(values []string) ([]int, []decimal.Decimal, SanitizeReport, error) {
	var report SanitizeReport

	start := 0
	if len(values) > 0 && isStrayHeader(values[0]) {
		report.StrayHeader = strings.TrimSpace(values[0])
		start = 1
	}

	kept := make([]int, 0, len(values))
	counts := make([]decimal.Decimal, 0, len(values))
	for i := start; i < len(values); i++ {
		v := values[i]
		if strings.Contains(strings.ToLower(v), commentMarker) {
			report.CommentRows++
			continue
		}
		d, ok := ParseCount(v)
		if !ok {
			report.NonNumericRows++
			continue
		}
		if d.IsNegative() {
			report.NegativeRows++
			continue
		}
		kept = append(kept, i)
		counts = append(counts, d)
	}

	if len(kept) == 0 {
		return nil, nil, report, ErrNoValidRows
	}
	return kept, counts, report, nil
}

func isStrayHeader(v string) bool {
	upper := strings.ToUpper(strings.TrimSpace(v))
	for _, h := range strayHeaderValues {
		if upper == h {
			return true
		}
	}
	return false
}
