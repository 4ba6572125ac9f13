package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dtroode/userdir-server/internal/logger"
	"github.com/dtroode/userdir-server/internal/model"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps the error taxonomy onto status codes: validation
// failures are 400, unknown ids 404, everything else 500.
func writeServiceError(w http.ResponseWriter, logger *logger.Logger, op string, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Fields: verr.Fields})
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	default:
		logger.Error("HTTP handler: "+op+" failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
