package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is the normalized shape of every collaborator failure: transport
// errors aside, a non-2xx status or a non-JSON body never surfaces as a raw
// decode error. Callers inspect Status and Message instead of type-switching
// on whatever the backend happened to emit.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"error"`
	Body    string `json:"-"` // raw response body, for logging
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
	}
	return "api error: " + e.Message
}

// errorMessage extracts a human-readable message from an error body.
// Collaborators are inconsistent: some send {"error": ...}, some
// {"message": ...}, some plain text or an HTML error page.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return fmt.Sprintf("request failed with status %d", status)
	}
	return truncate(text, 200)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
