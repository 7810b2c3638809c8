package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"stock-count/internal/models"
	"stock-count/internal/services"
	"stock-count/internal/session"
)

var inferCmd = &cobra.Command{
	Use:   "infer <file>",
	Short: "Show how a stock list maps onto the canonical columns",
	Long:  "Import a stock list, print the column mapping and notices, then the canonical CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfer,
}

func runInfer(cmd *cobra.Command, args []string) error {
	st, summary, err := importFile(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File:      %s\n", summary.Filename)
	fmt.Fprintf(out, "Strategy:  %s (delimiter %q)\n", summary.Strategy, summary.Delimiter)
	fmt.Fprintf(out, "Products:  %d (%d rows dropped)\n", summary.Rows, summary.RowsDropped)
	fmt.Fprintln(out, "Mapping:")
	printMapping(cmd, summary.Mapping)
	for _, notice := range summary.Notices {
		fmt.Fprintf(out, "Notice:    %s\n", notice)
	}
	fmt.Fprintln(out)

	reports := services.NewReportService(services.NewCountService(nil, nil), nil, 0)
	data, err := reports.CanonicalCSV(st, models.ReportStandard)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func printMapping(cmd *cobra.Command, m models.ColumnMapping) {
	fields := []struct{ name, source string }{
		{"product_id", m.ProductID},
		{"brand", m.Brand},
		{"description", m.Description},
		{"location", m.Location},
		{"expected_count", m.ExpectedCount},
		{"brand_and_description", m.BrandAndDescription},
	}
	for _, f := range fields {
		source := f.source
		if source == "" {
			source = "(generated)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %-22s <- %s\n", f.name, source)
	}
}

// importFile loads a stock list into a fresh session state
func importFile(ctx context.Context, path string) (*session.State, *models.ImportSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	st := session.NewStore(0).Create()
	summary, err := services.NewImportService(nil).Import(ctx, st, filepath.Base(path), data)
	if err != nil {
		return nil, nil, err
	}
	return st, summary, nil
}
