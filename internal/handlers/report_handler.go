package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"stock-count/internal/models"
	"stock-count/internal/services"
	"stock-count/internal/timeutil"
	"stock-count/pkg/utils"
)

type ReportHandler struct {
	Service *services.ReportService
}

func NewReportHandler(service *services.ReportService) *ReportHandler {
	return &ReportHandler{Service: service}
}

// GetSummary handles GET /api/report/summary
func (h *ReportHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	st, ok := stateFrom(w, r)
	if !ok {
		return
	}

	summary, err := h.Service.Counts.Summary(st)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, summary)
}

// GetSummaryPDF handles GET /api/report/pdf
// Query params: type=standard|counted
func (h *ReportHandler) GetSummaryPDF(w http.ResponseWriter, r *http.Request) {
	st, ok := stateFrom(w, r)
	if !ok {
		return
	}
	mode, err := models.ParseReportType(r.URL.Query().Get("type"))
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	data, err := h.Service.SummaryPDF(ctx, st, mode)
	if err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("count_summary_%s.pdf", timeutil.Format(timeutil.Now(), timeutil.ExportStampLayout))
	utils.Attachment(w, "application/pdf", filename, data)
}

// GetCanonicalCSV handles GET /api/report/canonical.csv
// Query params: type=standard|counted
func (h *ReportHandler) GetCanonicalCSV(w http.ResponseWriter, r *http.Request) {
	st, ok := stateFrom(w, r)
	if !ok {
		return
	}
	mode, err := models.ParseReportType(r.URL.Query().Get("type"))
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.Service.CanonicalCSV(st, mode)
	if err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("canonical_%s.csv", timeutil.Format(timeutil.Now(), timeutil.ExportStampLayout))
	utils.Attachment(w, "text/csv", filename, data)
}
