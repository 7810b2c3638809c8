package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"stock-count/internal/models"
	"stock-count/internal/services"
	"stock-count/internal/session"
)

var (
	rawFile    string
	countsFile string
	reportType string
	outFile    string
)

// countRow is one line of a counts file
type countRow struct {
	ProductID string          `csv:"product_id"`
	Count     decimal.Decimal `csv:"count"`
	Location  string          `csv:"location,omitempty"`
	Note      string          `csv:"note,omitempty"`
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Write counted totals into the original stock list",
	Long: `Import the original stock list, record every row of the counts file
(columns product_id, count and optionally location and note) and write the
reconciled export.`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVarP(&rawFile, "raw", "r", "", "original stock list (required)")
	reconcileCmd.Flags().StringVarP(&countsFile, "counts", "c", "", "counts CSV file (required)")
	reconcileCmd.Flags().StringVarP(&reportType, "type", "t", string(models.ReportStandard), "report type: standard or counted")
	reconcileCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	reconcileCmd.MarkFlagRequired("raw")
	reconcileCmd.MarkFlagRequired("counts")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	mode, err := models.ParseReportType(reportType)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	st, summary, err := importFile(ctx, rawFile)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d products from %s", summary.Rows, summary.Filename)

	rows, err := readCounts(countsFile)
	if err != nil {
		return err
	}
	recorded, err := recordCounts(ctx, st, rows)
	if err != nil {
		return err
	}
	log.Printf("Recorded %d/%d counts from %s", recorded, len(rows), countsFile)

	result, err := services.NewExportService(nil, 0, nil).Export(ctx, st, mode)
	if err != nil {
		return err
	}
	if result.Report != nil {
		for _, notice := range result.Report.Notices() {
			log.Printf("WARNING: %s", notice)
		}
	}

	if outFile == "" {
		_, err = cmd.OutOrStdout().Write(result.Data)
		return err
	}
	if err := os.WriteFile(outFile, result.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outFile, err)
	}
	log.Printf("Wrote %s", outFile)
	return nil
}

func readCounts(path string) ([]countRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open counts file: %w", err)
	}
	defer file.Close()

	decoder, err := csvutil.NewDecoder(csv.NewReader(file))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to create CSV decoder: %w", err)
	}

	var rows []countRow
	if err := decoder.Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode counts file: %w", err)
	}
	return rows, nil
}

// recordCounts skips rows the ledger rejects and reports how many it kept
func recordCounts(ctx context.Context, st *session.State, rows []countRow) (int, error) {
	counts := services.NewCountService(nil, nil)
	recorded := 0
	for i, row := range rows {
		_, err := counts.Record(ctx, st, services.RecordInput{
			ProductID: row.ProductID,
			Count:     row.Count,
			Location:  row.Location,
			Note:      row.Note,
		})
		if err != nil {
			if errors.Is(err, session.ErrNoTable) {
				return recorded, err
			}
			log.Printf("Skipping count row %d (%s): %v", i+1, row.ProductID, err)
			continue
		}
		recorded++
	}
	return recorded, nil
}
