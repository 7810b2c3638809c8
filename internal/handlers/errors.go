package handlers

import (
	"errors"
	"log"
	"net/http"

	"stock-count/internal/inference"
	"stock-count/internal/ledger"
	"stock-count/internal/middleware"
	"stock-count/internal/reconcile"
	"stock-count/internal/session"
	"stock-count/pkg/utils"
)

// unprocessable are the validation failures that reject an import or export
var unprocessable = []error{
	inference.ErrMissingColumns,
	inference.ErrDuplicateProductIDs,
	inference.ErrNoValidRows,
	inference.ErrUnparseable,
	inference.ErrEmptyTable,
	reconcile.ErrTooFewRows,
	reconcile.ErrMarkerNotFound,
	session.ErrNoTable,
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	for _, target := range unprocessable {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, ledger.ErrUnknownProduct):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrNegativeCount), errors.Is(err, ledger.ErrCountRange):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[API] internal error: %v", err)
		utils.Error(w, status, "Internal server error")
		return
	}
	utils.Error(w, status, err.Error())
}

// stateFrom returns the request's session state or answers 500
func stateFrom(w http.ResponseWriter, r *http.Request) (*session.State, bool) {
	st, ok := middleware.GetStateFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusInternalServerError, "Session not found in context")
		return nil, false
	}
	return st, true
}
