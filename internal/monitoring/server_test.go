package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-count/internal/auth"
	"stock-count/internal/health"
	"stock-count/internal/models"
	"stock-count/internal/session"
)

func newServer(t *testing.T, hash string) *MonitoringServer {
	t.Helper()
	checker := health.NewHealthChecker(session.NewStore(time.Hour), nil, nil)
	return NewMonitoringServer(checker, 0, hash)
}

func TestEventsNewestFirstAndBounded(t *testing.T) {
	ms := newServer(t, "")
	for i := 0; i < maxEvents+5; i++ {
		ms.Publish(models.Event{Type: models.EventCount, Message: strings.Repeat("x", i%3)})
	}
	ms.Publish(models.Event{Type: models.EventExport})

	events := ms.Events()
	assert.Len(t, events, maxEvents)
	assert.Equal(t, models.EventExport, events[0].Type)
}

func TestEventsEndpoint(t *testing.T) {
	ms := newServer(t, "")
	ms.Publish(models.Event{Type: models.EventImport, SessionID: "s1"})

	rec := httptest.NewRecorder()
	ms.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var events []models.Event
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&events))
	require.Len(t, events, 1)
	assert.Equal(t, "s1", events[0].SessionID)
}

func TestBasicAuth(t *testing.T) {
	hash, err := auth.HashPassword("secret")
	require.NoError(t, err)
	router := newServer(t, hash).Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebSocketReceivesEvents(t *testing.T) {
	ms := newServer(t, "")
	go ms.handleBroadcast()

	srv := httptest.NewServer(ms.Router())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return ms.clientCount() == 1 }, time.Second, 10*time.Millisecond)

	ms.Publish(models.Event{Type: models.EventSession, Message: "Started Week 2"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got models.Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "Started Week 2", got.Message)
}
