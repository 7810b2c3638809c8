package services

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"stock-count/internal/cache"
	"stock-count/internal/inference"
	"stock-count/internal/metrics"
	"stock-count/internal/models"
	"stock-count/internal/session"
)

type ImportService struct {
	Strategies []inference.Strategy
	Events     EventPublisher
}

func NewImportService(events EventPublisher) *ImportService {
	return &ImportService{
		Strategies: inference.DefaultStrategies(),
		Events:     publisherOrNoop(events),
	}
}

// Import parses an uploaded stock list and loads it into the session.
// On any error the session keeps its previous table.
func (s *ImportService) Import(ctx context.Context, st *session.State, filename string, data []byte) (*models.ImportSummary, error) {
	if len(bytes.TrimSpace(inference.StripBOM(data))) == 0 {
		return nil, s.fail(st, filename, inference.ErrEmptyTable)
	}

	loaded, err := inference.Load(data, s.Strategies)
	if err != nil {
		return nil, s.fail(st, filename, err)
	}

	result, err := inference.Infer(loaded.Table)
	if err != nil {
		return nil, s.fail(st, filename, err)
	}

	summary := &models.ImportSummary{
		Filename:    filename,
		Strategy:    loaded.Strategy,
		Delimiter:   inference.DelimiterName(loaded.Delimiter),
		Columns:     loaded.Table.Columns,
		Mapping:     result.Mapping,
		Rows:        result.Table.Len(),
		RowsDropped: result.Report.Dropped(),
		Notices:     result.Notices,
	}
	if summary.Notices == nil {
		summary.Notices = []string{}
	}

	cache.InvalidateSessionCaches(ctx, st.ID)
	st.Load(filename, data, loaded.Delimiter, result.Table, summary)

	metrics.ImportsTotal.WithLabelValues("success", loaded.Strategy).Inc()
	metrics.RowsDroppedTotal.Add(float64(summary.RowsDropped))
	log.Printf("[Import] %s: %d products via %s (%d rows dropped)", filename, summary.Rows, loaded.Strategy, summary.RowsDropped)
	s.Events.Publish(newEvent(models.EventImport, st.ID, "Imported %s with %d products", filename, summary.Rows))

	return summary, nil
}

func (s *ImportService) fail(st *session.State, filename string, err error) error {
	metrics.ImportsTotal.WithLabelValues("failed", "").Inc()
	log.Printf("[Import] %s rejected: %v", filename, err)
	s.Events.Publish(newEvent(models.EventImportFailed, st.ID, "Import of %s failed", filename))
	return fmt.Errorf("failed to import %s: %w", filename, err)
}
