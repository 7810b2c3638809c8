package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"stock-count/internal/models"
	"stock-count/internal/services"
	"stock-count/pkg/utils"
)

type ExportHandler struct {
	Service *services.ExportService
}

func NewExportHandler(s *services.ExportService) *ExportHandler {
	return &ExportHandler{Service: s}
}

// Export handles GET /api/export?type=standard|counted
// Row notices travel in X-Export-Notices so the body stays the CSV file.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	st, ok := stateFrom(w, r)
	if !ok {
		return
	}
	mode, err := models.ParseReportType(r.URL.Query().Get("type"))
	if err != nil {
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.Service.Export(r.Context(), st, mode)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("X-Export-Cached", strconv.FormatBool(result.Cached))
	if result.Report != nil {
		if notices := result.Report.Notices(); len(notices) > 0 {
			w.Header().Set("X-Export-Notices", strings.Join(notices, " | "))
		}
	}
	utils.Attachment(w, "text/csv", result.Filename, result.Data)
}
