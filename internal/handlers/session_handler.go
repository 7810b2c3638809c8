package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"stock-count/internal/cache"
	"stock-count/internal/middleware"
	"stock-count/internal/models"
	"stock-count/internal/services"
	"stock-count/internal/session"
	"stock-count/internal/timeutil"
	"stock-count/pkg/utils"
)

type SessionHandler struct {
	Service *services.CountService
	Store   *session.Store
	Cookies *middleware.SessionMiddleware
	Events  services.EventPublisher
}

func NewSessionHandler(s *services.CountService, store *session.Store, cookies *middleware.SessionMiddleware, events services.EventPublisher) *SessionHandler {
	return &SessionHandler{
		Service: s,
		Store:   store,
		Cookies: cookies,
		Events:  events,
	}
}

type startSessionRequest struct {
	Name string `json:"name" validate:"max=100"`
}

func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	st, ok := stateFrom(w, r)
	if !ok {
		return
	}

	view, err := h.Service.Sessions(st)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, view)
}

// StartSession archives the current counting session; the body is optional
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	st, ok := stateFrom(w, r)
	if !ok {
		return
	}

	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, err := utils.Validate(req); err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	current, err := h.Service.StartSession(r.Context(), st, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, current)
}

func (h *SessionHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.Service.Locations)
}

// Teardown drops the caller's state, cached exports and cookie
func (h *SessionHandler) Teardown(w http.ResponseWriter, r *http.Request) {
	st, ok := stateFrom(w, r)
	if !ok {
		return
	}

	st.Reset()
	h.Store.Delete(st.ID)
	cache.InvalidateSessionCaches(r.Context(), st.ID)
	h.Cookies.Clear(w)

	log.Printf("[Session] %s torn down", st.ID)
	if h.Events != nil {
		h.Events.Publish(models.Event{
			Type:      models.EventTeardown,
			SessionID: st.ID,
			Message:   "Session torn down",
			Timestamp: timeutil.Now(),
		})
	}

	w.WriteHeader(http.StatusNoContent)
}
