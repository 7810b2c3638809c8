package health

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"stock-count/internal/session"
)

// Probe checks one dependency
type Probe func(ctx context.Context) error

type HealthChecker struct {
	store     *session.Store
	started   time.Time
	redis     Probe
	archive   Probe
	useRedis  bool
	useBucket bool
}

type HealthStatus struct {
	Status  string           `json:"status"`
	Redis   DependencyHealth `json:"redis"`
	Archive DependencyHealth `json:"archive"`
}

type DependencyHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
}

// DetailedStatus adds process and session figures for the dashboard
type DetailedStatus struct {
	HealthStatus
	Uptime   string        `json:"uptime"`
	Sessions session.Stats `json:"sessions"`
	System   SystemStats   `json:"system"`
}

// SystemStats are host figures read through gopsutil
type SystemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsed    uint64  `json:"memory_used"`
	MemoryTotal   uint64  `json:"memory_total"`
	DiskPercent   float64 `json:"disk_percent"`
	DiskUsed      uint64  `json:"disk_used"`
	DiskTotal     uint64  `json:"disk_total"`
}

// NewHealthChecker builds a checker. A nil probe marks the dependency disabled.
func NewHealthChecker(store *session.Store, redis, archive Probe) *HealthChecker {
	return &HealthChecker{
		store:     store,
		started:   time.Now(),
		redis:     redis,
		archive:   archive,
		useRedis:  redis != nil,
		useBucket: archive != nil,
	}
}

// CheckBasic reports "healthy" or "degraded". Both optional dependencies
// degrade gracefully, so the service itself stays ready without them.
func (h *HealthChecker) CheckBasic() HealthStatus {
	status := HealthStatus{
		Status:  "healthy",
		Redis:   h.check(h.useRedis, h.redis),
		Archive: h.check(h.useBucket, h.archive),
	}
	if status.Redis.Status == "unhealthy" || status.Archive.Status == "unhealthy" {
		status.Status = "degraded"
	}
	return status
}

// CheckDetailed adds uptime, session stats and host stats
func (h *HealthChecker) CheckDetailed() DetailedStatus {
	return DetailedStatus{
		HealthStatus: h.CheckBasic(),
		Uptime:       FormatUptime(time.Since(h.started)),
		Sessions:     h.store.Stats(),
		System:       ReadSystemStats(),
	}
}

func (h *HealthChecker) check(enabled bool, probe Probe) DependencyHealth {
	if !enabled {
		return DependencyHealth{Status: "disabled"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := probe(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DependencyHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
			Error:        err.Error(),
		}
	}

	return DependencyHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}

// ReadSystemStats samples CPU, memory and root disk usage
func ReadSystemStats() SystemStats {
	var stats SystemStats

	if percents, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemoryPercent = vm.UsedPercent
		stats.MemoryUsed = vm.Used
		stats.MemoryTotal = vm.Total
	}
	if usage, err := disk.Usage("/"); err == nil {
		stats.DiskPercent = usage.UsedPercent
		stats.DiskUsed = usage.Used
		stats.DiskTotal = usage.Total
	}
	return stats
}

// FormatBytes renders a byte count as MB or GB
func FormatBytes(bytes uint64) string {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	if gb < 1 {
		mb := float64(bytes) / (1024 * 1024)
		return fmt.Sprintf("%.1f MB", mb)
	}
	return fmt.Sprintf("%.1f GB", gb)
}

// FormatUptime renders a duration as "2d 3h", "3h 4m" or "4m"
func FormatUptime(d time.Duration) string {
	seconds := int(d.Seconds())
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
