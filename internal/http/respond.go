package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/fjod/go_cart/smart-trolley/internal/backend"
	"github.com/fjod/go_cart/smart-trolley/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError maps controller and backend errors to HTTP statuses.
func handleError(w http.ResponseWriter, err error) {
	var httpStatus int
	var code string

	switch {
	case errors.Is(err, service.ErrConfirmationPending):
		httpStatus = http.StatusConflict
		code = "confirmation_pending"
	case errors.Is(err, service.ErrConfirmationResolved):
		httpStatus = http.StatusConflict
		code = "confirmation_resolved"
	case errors.Is(err, service.ErrEmptyBarcode):
		httpStatus = http.StatusBadRequest
		code = "invalid_barcode"
	case errors.Is(err, backend.ErrTransport):
		httpStatus = http.StatusServiceUnavailable
		code = "backend_unavailable"
	case errors.Is(err, backend.ErrUnexpectedStatus), errors.Is(err, backend.ErrMalformedResponse):
		httpStatus = http.StatusBadGateway
		code = "bad_backend_response"
	default:
		httpStatus = http.StatusInternalServerError
		code = "internal_error"
	}

	respondJSON(w, httpStatus, ErrorResponse{Error: http.StatusText(httpStatus), Code: code, Details: err.Error()})
}
