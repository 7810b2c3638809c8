package handlers

import (
	"net/http"

	"stock-count/internal/services"
	"stock-count/pkg/utils"
)

type SearchHandler struct {
	Service *services.SearchService
}

func NewSearchHandler(s *services.SearchService) *SearchHandler {
	return &SearchHandler{Service: s}
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	st, ok := stateFrom(w, r)
	if !ok {
		return
	}

	results, err := h.Service.Search(st, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, results)
}

func (h *SearchHandler) Recent(w http.ResponseWriter, r *http.Request) {
	st, ok := stateFrom(w, r)
	if !ok {
		return
	}

	recent := h.Service.Recent(st)
	if recent == nil {
		recent = []string{}
	}
	utils.JSON(w, http.StatusOK, recent)
}
