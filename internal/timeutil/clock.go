package timeutil

import (
	"log"
	"time"
)

// Location is the zone used for session ids, names and report dates
var Location = time.Local

// SetLocation switches the display zone. Unknown names keep the current zone.
func SetLocation(name string) {
	if name == "" {
		return
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("[Time] Unknown timezone %q, keeping %s", name, Location)
		return
	}
	Location = loc
}

// Now returns the current time in the configured zone
func Now() time.Time {
	return time.Now().In(Location)
}

// Format formats a time in the configured zone using the given layout
func Format(t time.Time, layout string) string {
	return t.In(Location).Format(layout)
}

// Common layouts
const (
	DateLayout        = "2006-01-02"
	DateTimeLayout    = "2006-01-02 15:04:05"
	SessionIDLayout   = "20060102_150405"
	SessionNameLayout = "Jan 02, 2006 15:04"
	FileStampLayout   = "20060102_150405"
	ExportStampLayout = "20060102_1504"
	DisplayLayout     = "02-Jan-2006 03:04 PM"
)
