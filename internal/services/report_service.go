package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/jszwec/csvutil"
	"github.com/jung-kurt/gofpdf/v2"

	"stock-count/internal/archive"
	"stock-count/internal/cache"
	"stock-count/internal/models"
	"stock-count/internal/reconcile"
	"stock-count/internal/session"
	"stock-count/internal/timeutil"
)

// canonicalRow is one line of the canonical table download
type canonicalRow struct {
	models.Product
	Counted string `csv:"counted"`
}

// ReportService renders the summary PDF and the canonical CSV
type ReportService struct {
	Counts   *CountService
	Archiver *archive.Archiver
	CacheTTL time.Duration
}

func NewReportService(counts *CountService, archiver *archive.Archiver, cacheTTL time.Duration) *ReportService {
	return &ReportService{
		Counts:   counts,
		Archiver: archiver,
		CacheTTL: cacheTTL,
	}
}

// CanonicalCSV writes the inferred table with the counted totals
func (s *ReportService) CanonicalCSV(st *session.State, mode models.ReportType) ([]byte, error) {
	if !st.HasTable() {
		return nil, session.ErrNoTable
	}

	rows := make([]canonicalRow, 0, st.Table.Len())
	for _, p := range st.Table.Products {
		if mode == models.ReportCounted && !st.Ledger.HasEntries(p.ProductID) {
			continue
		}
		rows = append(rows, canonicalRow{
			Product: p,
			Counted: reconcile.FormatTotal(st.Ledger.TotalFor(p.ProductID)),
		})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	enc := csvutil.NewEncoder(w)
	if len(rows) == 0 {
		err := enc.EncodeHeader(canonicalRow{})
		if err != nil {
			return nil, fmt.Errorf("failed to write canonical CSV: %w", err)
		}
	} else if err := enc.Encode(rows); err != nil {
		return nil, fmt.Errorf("failed to write canonical CSV: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write canonical CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// SummaryPDF renders the counting progress report, cached per ledger version
func (s *ReportService) SummaryPDF(ctx context.Context, st *session.State, mode models.ReportType) ([]byte, error) {
	if !st.HasTable() {
		return nil, session.ErrNoTable
	}

	key := cache.ReportKey(st.ID, string(mode), st.Ledger.Version())
	if data, ok := cache.GetCached(ctx, key); ok {
		return data, nil
	}

	summary, err := s.Counts.Summary(st)
	if err != nil {
		return nil, err
	}
	products, err := s.Counts.Products(st)
	if err != nil {
		return nil, err
	}

	data, err := s.renderPDF(st.Filename, mode, summary, products)
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	cache.SetCached(ctx, key, data, s.CacheTTL)
	if _, err := s.Archiver.Store(ctx, st.ID, "report_"+string(mode), "pdf", "application/pdf", data); err != nil {
		log.Printf("[Archive] %v", err)
	}
	return data, nil
}

func (s *ReportService) renderPDF(filename string, mode models.ReportType, summary *models.ReportSummary, products []ProductView) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Stock Count Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", timeutil.Format(timeutil.Now(), timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	if filename != "" {
		pdf.CellFormat(190, 6, fmt.Sprintf("Stock list: %s", truncate(filename, 80)), "", 1, "C", false, 0, "")
	}
	pdf.Ln(5)

	// Progress box
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Progress", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(48, 8, fmt.Sprintf("Items: %d", summary.TotalItems), "1", 0, "C", false, 0, "")
	pdf.CellFormat(48, 8, fmt.Sprintf("Counted: %d", summary.CountedItems), "1", 0, "C", false, 0, "")
	pdf.CellFormat(47, 8, fmt.Sprintf("Complete: %.1f%%", summary.CompletionPct), "1", 0, "C", false, 0, "")
	pdf.CellFormat(47, 8, fmt.Sprintf("Closed: %d", summary.ClosedItems), "1", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Session totals
	if len(summary.SessionTotals) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(190, 8, "Count Sessions", "1", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(200, 200, 200)
		pdf.CellFormat(90, 7, "Session", "1", 0, "C", true, 0, "")
		pdf.CellFormat(50, 7, "Started", "1", 0, "C", true, 0, "")
		pdf.CellFormat(25, 7, "Entries", "1", 0, "C", true, 0, "")
		pdf.CellFormat(25, 7, "Total", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		for _, t := range summary.SessionTotals {
			pdf.CellFormat(90, 6, truncate(t.Name, 45), "1", 0, "L", false, 0, "")
			pdf.CellFormat(50, 6, timeutil.Format(t.Timestamp, timeutil.DisplayLayout), "1", 0, "C", false, 0, "")
			pdf.CellFormat(25, 6, fmt.Sprintf("%d", t.EntryCount), "1", 0, "C", false, 0, "")
			pdf.CellFormat(25, 6, reconcile.FormatTotal(t.Total), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(5)
	}

	// Products table
	title := "All Products"
	if mode == models.ReportCounted {
		title = "Counted Products"
	}
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(190, 8, title, "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(25, 7, "ID", "1", 0, "C", true, 0, "")
	pdf.CellFormat(75, 7, "Product", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Location", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 7, "Expected", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 7, "Counted", "1", 0, "C", true, 0, "")
	pdf.CellFormat(20, 7, "Variance", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	row := 0
	for _, p := range products {
		if mode == models.ReportCounted && !p.Counted {
			continue
		}
		// Alternate row colors
		if row%2 == 0 {
			pdf.SetFillColor(255, 255, 255)
		} else {
			pdf.SetFillColor(245, 245, 245)
		}
		row++

		pdf.CellFormat(25, 6, truncate(p.ProductID, 12), "1", 0, "L", true, 0, "")
		pdf.CellFormat(75, 6, truncate(p.ProductName, 40), "1", 0, "L", true, 0, "")
		pdf.CellFormat(30, 6, truncate(p.Location, 15), "1", 0, "L", true, 0, "")
		pdf.CellFormat(20, 6, p.ExpectedCount.String(), "1", 0, "R", true, 0, "")
		pdf.CellFormat(20, 6, reconcile.FormatTotal(p.Total), "1", 0, "R", true, 0, "")
		pdf.CellFormat(20, 6, p.Variance.String(), "1", 1, "R", true, 0, "")
	}

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// truncate shortens s to limit runes, ending in "..." when cut
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit-3]) + "..."
}
