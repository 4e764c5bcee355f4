package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/session"
)

// errorResponse is the gateway's uniform error shape.
type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message, Status: status})
}

// respondUpstreamError maps client errors onto the uniform shape. Upstream
// errors keep their status and message; an expired session becomes a 401
// with a marker the UI uses to redirect to login.
func respondUpstreamError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrSessionExpired) {
		respondJSON(w, http.StatusUnauthorized, map[string]any{
			"error":   "session expired",
			"status":  http.StatusUnauthorized,
			"expired": true,
		})
		return
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		respondError(w, apiErr.Status, apiErr.Message)
		return
	}

	var valErr *core.ValidationError
	if errors.As(err, &valErr) {
		respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	respondError(w, http.StatusBadGateway, "upstream unavailable")
}

// decodeBody reads a JSON request body, rejecting anything else.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
