package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"stock-count/internal/archive"
	"stock-count/internal/cache"
	"stock-count/internal/metrics"
	"stock-count/internal/models"
	"stock-count/internal/reconcile"
	"stock-count/internal/session"
	"stock-count/internal/timeutil"
)

// ExportResult is a reconciled file ready for download
type ExportResult struct {
	Filename   string            `json:"filename"`
	Data       []byte            `json:"-"`
	Report     *reconcile.Report `json:"report,omitempty"`
	Cached     bool              `json:"cached"`
	ArchiveKey string            `json:"archive_key,omitempty"`
}

// ByteCache stores rendered files by key
type ByteCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration)
}

type ExportService struct {
	Archiver *archive.Archiver
	Cache    ByteCache
	CacheTTL time.Duration
	Events   EventPublisher
}

func NewExportService(archiver *archive.Archiver, cacheTTL time.Duration, events EventPublisher) *ExportService {
	return &ExportService{
		Archiver: archiver,
		Cache:    cache.Store{},
		CacheTTL: cacheTTL,
		Events:   publisherOrNoop(events),
	}
}

// Export rewrites the original upload with the counted totals
func (s *ExportService) Export(ctx context.Context, st *session.State, mode models.ReportType) (*ExportResult, error) {
	if !st.HasTable() {
		return nil, session.ErrNoTable
	}

	result := &ExportResult{Filename: ExportFilename(mode, timeutil.Now())}

	key := cache.ExportKey(st.ID, string(mode), st.Ledger.Version())
	if data, ok := s.Cache.Get(ctx, key); ok {
		if report, ok := s.cachedReport(ctx, key); ok {
			metrics.ExportCacheHits.Inc()
			metrics.ExportsTotal.WithLabelValues(string(mode), "cached").Inc()
			result.Data = data
			result.Report = report
			result.Cached = true
			return result, nil
		}
	}

	data, report, err := reconcile.Reconcile(st.Raw, st.Table, st.Ledger, mode, reconcile.Options{Comma: st.Delimiter})
	if err != nil {
		metrics.ExportsTotal.WithLabelValues(string(mode), "failed").Inc()
		log.Printf("[Export] session %s: %v", st.ID, err)
		return nil, fmt.Errorf("failed to export: %w", err)
	}
	result.Data = data
	result.Report = report

	s.Cache.Set(ctx, key, data, s.CacheTTL)
	if encoded, err := json.Marshal(report); err == nil {
		s.Cache.Set(ctx, cache.ExportReportKey(key), encoded, s.CacheTTL)
	}

	archiveKey, err := s.Archiver.Store(ctx, st.ID, "export_"+string(mode), "csv", "text/csv", data)
	if err != nil {
		log.Printf("[Archive] %v", err)
	}
	result.ArchiveKey = archiveKey

	metrics.ExportsTotal.WithLabelValues(string(mode), "success").Inc()
	s.Events.Publish(newEvent(models.EventExport, st.ID, "Exported %s (%d rows written)", mode, report.Written))
	return result, nil
}

// cachedReport loads the row report stored next to a cached export. An
// export without one is treated as a miss and rebuilt.
func (s *ExportService) cachedReport(ctx context.Context, key string) (*reconcile.Report, bool) {
	encoded, ok := s.Cache.Get(ctx, cache.ExportReportKey(key))
	if !ok {
		return nil, false
	}
	var report reconcile.Report
	if err := json.Unmarshal(encoded, &report); err != nil {
		log.Printf("[Export] cached report %s: %v", key, err)
		return nil, false
	}
	return &report, true
}

// ExportFilename names a download after its report type and time
func ExportFilename(mode models.ReportType, at time.Time) string {
	prefix := "inventory_report"
	if mode == models.ReportCounted {
		prefix = "counted_report"
	}
	return fmt.Sprintf("%s_%s.csv", prefix, timeutil.Format(at, timeutil.ExportStampLayout))
}
