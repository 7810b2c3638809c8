package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"stock-count/internal/services"
	"stock-count/pkg/utils"
)

const defaultUploadName = "upload.csv"

type ImportHandler struct {
	Service     *services.ImportService
	UploadLimit int64
}

func NewImportHandler(s *services.ImportService, uploadLimit int64) *ImportHandler {
	return &ImportHandler{
		Service:     s,
		UploadLimit: uploadLimit,
	}
}

// Import accepts a multipart "file" field or the CSV as the raw request body
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	st, ok := stateFrom(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.UploadLimit)
	filename, data, err := h.readUpload(r)
	if err != nil {
		if statusFor(err) == http.StatusRequestEntityTooLarge {
			writeError(w, err)
			return
		}
		utils.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.Service.Import(r.Context(), st, filename, data)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, summary)
}

func (h *ImportHandler) readUpload(r *http.Request) (string, []byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.UploadLimit); err != nil {
			return "", nil, fmt.Errorf("failed to parse upload: %w", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("missing file field: %w", err)
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read upload: %w", err)
		}
		return header.Filename, data, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read upload: %w", err)
	}
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = defaultUploadName
	}
	return filename, data, nil
}
