package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"stock-count/internal/auth"
	"stock-count/internal/health"
	"stock-count/internal/models"
	"stock-count/internal/timeutil"
)

// maxEvents bounds the in-memory event feed
const maxEvents = 200

type MonitoringServer struct {
	checker      *health.HealthChecker
	port         int
	passwordHash string

	events    []models.Event
	eventsMux sync.RWMutex

	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex
	broadcast  chan models.Event
}

// DashboardStats is the payload of /api/stats
type DashboardStats struct {
	Health      health.DetailedStatus `json:"health"`
	MemoryUsed  string                `json:"memory_used"`
	MemoryTotal string                `json:"memory_total"`
	DiskUsed    string                `json:"disk_used"`
	DiskTotal   string                `json:"disk_total"`
	Clients     int                   `json:"clients"`
	Events      int                   `json:"events"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewMonitoringServer(checker *health.HealthChecker, port int, passwordHash string) *MonitoringServer {
	return &MonitoringServer{
		checker:      checker,
		port:         port,
		passwordHash: passwordHash,
		events:       make([]models.Event, 0, maxEvents),
		clients:      make(map[*websocket.Conn]bool),
		broadcast:    make(chan models.Event, 100),
	}
}

// Publish records an event and forwards it to connected dashboards.
// It never blocks the caller.
func (ms *MonitoringServer) Publish(event models.Event) {
	ms.eventsMux.Lock()
	if len(ms.events) == maxEvents {
		ms.events = append(ms.events[:0], ms.events[1:]...)
	}
	ms.events = append(ms.events, event)
	ms.eventsMux.Unlock()

	select {
	case ms.broadcast <- event:
	default:
		log.Printf("[Monitoring] Broadcast buffer full, dropping %s event", event.Type)
	}
}

// Router exposes the dashboard API, protected by basic auth when a password hash is set
func (ms *MonitoringServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(ms.basicAuth)

	r.HandleFunc("/api/stats", ms.getStats).Methods("GET")
	r.HandleFunc("/api/events", ms.getEvents).Methods("GET")

	// WebSocket for real-time updates
	r.HandleFunc("/ws", ms.handleWebSocket)

	return r
}

// Start serves the dashboard until ctx is done
func (ms *MonitoringServer) Start(ctx context.Context) {
	// Start background event broadcaster
	go ms.handleBroadcast()

	// Start background health checker
	go ms.monitorHealth(ctx, 30*time.Second)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", ms.port),
		Handler: ms.Router(),
	}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	log.Printf("[Monitoring] Dashboard API running on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("[Monitoring] Server stopped: %v", err)
	}
}

func (ms *MonitoringServer) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ms.passwordHash == "" {
			next.ServeHTTP(w, r)
			return
		}
		_, password, ok := r.BasicAuth()
		if !ok || !auth.VerifyPassword(ms.passwordHash, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="monitoring"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (ms *MonitoringServer) getStats(w http.ResponseWriter, r *http.Request) {
	stats := ms.collectStats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (ms *MonitoringServer) collectStats() DashboardStats {
	detailed := ms.checker.CheckDetailed()

	ms.clientsMux.Lock()
	clients := len(ms.clients)
	ms.clientsMux.Unlock()

	ms.eventsMux.RLock()
	events := len(ms.events)
	ms.eventsMux.RUnlock()

	return DashboardStats{
		Health:      detailed,
		MemoryUsed:  health.FormatBytes(detailed.System.MemoryUsed),
		MemoryTotal: health.FormatBytes(detailed.System.MemoryTotal),
		DiskUsed:    health.FormatBytes(detailed.System.DiskUsed),
		DiskTotal:   health.FormatBytes(detailed.System.DiskTotal),
		Clients:     clients,
		Events:      events,
	}
}

// Events returns the recorded events, newest first
func (ms *MonitoringServer) Events() []models.Event {
	ms.eventsMux.RLock()
	defer ms.eventsMux.RUnlock()

	out := make([]models.Event, 0, len(ms.events))
	for i := len(ms.events) - 1; i >= 0; i-- {
		out = append(out, ms.events[i])
	}
	return out
}

func (ms *MonitoringServer) getEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ms.Events())
}

func (ms *MonitoringServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("[Monitoring] WebSocket upgrade error:", err)
		return
	}
	defer conn.Close()

	ms.clientsMux.Lock()
	ms.clients[conn] = true
	ms.clientsMux.Unlock()

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			ms.clientsMux.Lock()
			delete(ms.clients, conn)
			ms.clientsMux.Unlock()
			break
		}
	}
}

func (ms *MonitoringServer) clientCount() int {
	ms.clientsMux.Lock()
	defer ms.clientsMux.Unlock()
	return len(ms.clients)
}

func (ms *MonitoringServer) handleBroadcast() {
	for event := range ms.broadcast {
		ms.clientsMux.Lock()
		for client := range ms.clients {
			err := client.WriteJSON(event)
			if err != nil {
				client.Close()
				delete(ms.clients, client)
			}
		}
		ms.clientsMux.Unlock()
	}
}

// monitorHealth publishes an alert event whenever a dependency is unhealthy
func (ms *MonitoringServer) monitorHealth(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			status := ms.checker.CheckBasic()
			if status.Redis.Status == "unhealthy" {
				ms.Publish(alert("Redis is unreachable: " + status.Redis.Error))
			}
			if status.Archive.Status == "unhealthy" {
				ms.Publish(alert("Archive bucket is unreachable: " + status.Archive.Error))
			}
		case <-ctx.Done():
			return
		}
	}
}

func alert(message string) models.Event {
	return models.Event{
		Type:      "alert",
		Message:   message,
		Timestamp: timeutil.Now(),
	}
}
