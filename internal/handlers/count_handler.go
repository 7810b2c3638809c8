package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"stock-count/internal/services"
	"stock-count/pkg/utils"
)

type CountHandler struct {
	Service *services.CountService
}

func NewCountHandler(s *services.CountService) *CountHandler {
	return &CountHandler{Service: s}
}

// recordCountRequest accepts the count as a JSON number or numeric string
type recordCountRequest struct {
	ProductID string      `json:"product_id" validate:"required"`
	Count     json.Number `json:"count" validate:"required,numeric"`
	Location  string      `json:"location" validate:"max=100"`
	Note      string      `json:"note" validate:"max=500"`
}

func (h *CountHandler) RecordCount(w http.ResponseWriter, r *http.Request) {
	st, ok := stateFrom(w, r)
	if !ok {
		return
	}

	var req recordCountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, err := utils.Validate(req); err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	count, err := decimal.NewFromString(req.Count.String())
	if err != nil {
		utils.Error(w, http.StatusBadRequest, "count must be a number")
		return
	}

	entry, err := h.Service.Record(r.Context(), st, services.RecordInput{
		ProductID: req.ProductID,
		Count:     count,
		Location:  req.Location,
		Note:      req.Note,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, map[string]interface{}{
		"entry": entry,
		"total": st.Ledger.TotalFor(entry.ProductID),
	})
}
