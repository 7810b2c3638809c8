package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"stock-count/internal/services"
	"stock-count/pkg/utils"
)

type ProductHandler struct {
	Service *services.CountService
}

func NewProductHandler(s *services.CountService) *ProductHandler {
	return &ProductHandler{Service: s}
}

type closedRequest struct {
	Closed *bool `json:"closed" validate:"required"`
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	st, ok := stateFrom(w, r)
	if !ok {
		return
	}

	products, err := h.Service.Products(st)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	st, ok := stateFrom(w, r)
	if !ok {
		return
	}

	detail, err := h.Service.Product(st, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, detail)
}

// SetClosed toggles the completion flag of a product
func (h *ProductHandler) SetClosed(w http.ResponseWriter, r *http.Request) {
	st, ok := stateFrom(w, r)
	if !ok {
		return
	}

	var req closedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, err := utils.Validate(req); err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.Service.SetClosed(st, id, *req.Closed); err != nil {
		writeError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"product_id": id,
		"closed":     *req.Closed,
	})
}
