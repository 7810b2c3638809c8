package middleware

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"stock-count/internal/metrics"
)

const requestLogBuffer = 1000

// RequestLog is one finished API call, tagged with the session that made it
type RequestLog struct {
	Time      time.Time
	SessionID string
	Method    string
	Route     string
	Status    int
	Bytes     int
	Duration  time.Duration
	ClientIP  string
}

func (l *RequestLog) String() string {
	sid := l.SessionID
	if sid == "" {
		sid = "-"
	}
	return fmt.Sprintf("%s %s %s %d %dB %s ip=%s",
		sid, l.Method, l.Route, l.Status, l.Bytes, l.Duration.Round(100*time.Microsecond), l.ClientIP)
}

// RequestLogger writes one line per API call from a background goroutine.
// It must sit inside SessionMiddleware.Attach to see the session.
type RequestLogger struct {
	entries chan *RequestLog
	sink    func(*RequestLog)
	wg      sync.WaitGroup
}

// NewRequestLogger writes entries with the "[API]" prefix
func NewRequestLogger() *RequestLogger {
	return NewRequestLoggerWithSink(func(l *RequestLog) {
		log.Printf("[API] %s", l)
	})
}

func NewRequestLoggerWithSink(sink func(*RequestLog)) *RequestLogger {
	rl := &RequestLogger{
		entries: make(chan *RequestLog, requestLogBuffer),
		sink:    sink,
	}
	rl.wg.Add(1)
	go func() {
		defer rl.wg.Done()
		for entry := range rl.entries {
			rl.sink(entry)
		}
	}()
	return rl
}

func (rl *RequestLogger) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rec, r)

		entry := &RequestLog{
			Time:     start,
			Method:   r.Method,
			Route:    routeTemplate(r),
			Status:   rec.statusCode,
			Bytes:    rec.bytesWritten,
			Duration: time.Since(start),
			ClientIP: clientIP(r),
		}
		if st, ok := GetStateFromContext(r.Context()); ok {
			entry.SessionID = st.ID
		}

		select {
		case rl.entries <- entry:
		default:
			metrics.RequestLogsDropped.Inc()
		}
	})
}

// Close flushes pending entries. Handler must not be called afterwards.
func (rl *RequestLogger) Close() {
	close(rl.entries)
	rl.wg.Wait()
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
