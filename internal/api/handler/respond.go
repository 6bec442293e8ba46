package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ricirt/motor-health-api/internal/domain"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, domain.ErrorResponse{Error: msg})
}

// mapError translates domain errors to HTTP status codes.
// All mapping lives here so individual handlers stay concise. Anything that
// is not a client input error is a 500 carrying the failure description.
func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingSensorData),
		errors.Is(err, domain.ErrInvalidShape):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// NotFound and MethodNotAllowed keep chi's fallbacks on the JSON contract.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "The requested URL was not found on the server.")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "The method is not allowed for the requested URL.")
}
