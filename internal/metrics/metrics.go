// Package metrics provides Prometheus metrics for the stock count service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal tracks inbound HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockcount",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks inbound HTTP request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stockcount",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// ImportsTotal tracks uploads by outcome and winning strategy
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockcount",
			Subsystem: "import",
			Name:      "files_total",
			Help:      "Total number of imported stock lists by status",
		},
		[]string{"status", "strategy"},
	)

	// RowsDroppedTotal tracks rows removed by the sanitizer
	RowsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stockcount",
			Subsystem: "import",
			Name:      "rows_dropped_total",
			Help:      "Total number of rows dropped while sanitizing imports",
		},
	)

	// CountEntriesTotal tracks recorded count entries
	CountEntriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stockcount",
			Subsystem: "ledger",
			Name:      "entries_total",
			Help:      "Total number of count entries recorded",
		},
	)

	// ExportsTotal tracks reconciled exports by mode and status
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockcount",
			Subsystem: "export",
			Name:      "files_total",
			Help:      "Total number of exports by mode and status",
		},
		[]string{"mode", "status"},
	)

	// ExportCacheHits tracks exports served from Redis
	ExportCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stockcount",
			Subsystem: "export",
			Name:      "cache_hits_total",
			Help:      "Total number of exports served from cache",
		},
	)

	// ActiveSessions tracks counting sessions held in memory
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "stockcount",
			Subsystem: "session",
			Name:      "active",
			Help:      "Number of session states held in memory",
		},
	)

	// RequestLogsDropped tracks access log lines lost to a full buffer
	RequestLogsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stockcount",
			Subsystem: "http",
			Name:      "request_logs_dropped_total",
			Help:      "Total number of access log lines dropped",
		},
	)
)
