package models

import "fmt"

// ReportType selects which rows an export or report includes
type ReportType string

const (
	ReportStandard ReportType = "standard"
	ReportCounted  ReportType = "counted"
)

// ParseReportType accepts "", "standard" and "counted"
func ParseReportType(s string) (ReportType, error) {
	switch ReportType(s) {
	case "", ReportStandard:
		return ReportStandard, nil
	case ReportCounted:
		return ReportCounted, nil
	default:
		return "", fmt.Errorf("unknown report type %q", s)
	}
}

// ColumnMapping records which source column fed each canonical field.
// Empty means the field was synthesized.
type ColumnMapping struct {
	ProductID           string `json:"product_id"`
	Brand               string `json:"brand"`
	Description         string `json:"description"`
	Location            string `json:"location"`
	ExpectedCount       string `json:"expected_count"`
	BrandAndDescription string `json:"brand_and_description,omitempty"`
}

// ImportSummary is returned to the client after a successful upload
type ImportSummary struct {
	Filename    string        `json:"filename"`
	Strategy    string        `json:"strategy"`
	Delimiter   string        `json:"delimiter"`
	Columns     []string      `json:"columns"`
	Mapping     ColumnMapping `json:"mapping"`
	Rows        int           `json:"rows"`
	RowsDropped int           `json:"rows_dropped"`
	Notices     []string      `json:"notices"`
}

// ReportSummary is the counting progress overview
type ReportSummary struct {
	TotalItems    int            `json:"total_items"`
	CountedItems  int            `json:"counted_items"`
	CompletionPct float64        `json:"completion_pct"`
	ClosedItems   int            `json:"closed_items"`
	SessionTotals []SessionTotal `json:"session_totals"`
}
