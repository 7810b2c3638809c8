package models

import "time"

// Event types broadcast to the monitoring dashboard
const (
	EventImport       = "import"
	EventImportFailed = "import_failed"
	EventCount        = "count"
	EventSession      = "session"
	EventExport       = "export"
	EventTeardown     = "teardown"
)

// Event is a notable action in a counting session
type Event struct {
	Type      string    `json:"type"`
	SessionID string    `json:"session_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
