package handlers

import (
	"errors"
	"net/http"

	"github.com/conformeahq/conformea/pkg/logger"
	"github.com/conformeahq/conformea/pkg/maturity"
	"github.com/conformeahq/conformea/pkg/models"

	"github.com/conformeahq/conformea/internal/service"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeServiceError maps service layer errors to HTTP responses. Validation
// and transition failures are client errors; anything unrecognized is logged
// and returned as a 500 without leaking internals.
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error) {
	var vErr *models.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: vErr.Message, Field: vErr.Field})
		return
	}

	var tErr *models.InvalidTransitionError
	if errors.As(err, &tErr) {
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: tErr.Error()})
		return
	}

	if errors.Is(err, service.ErrNotFound) || errors.Is(err, maturity.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not found"})
		return
	}

	log.Error("request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}
