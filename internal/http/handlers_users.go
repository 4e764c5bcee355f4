package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
)

// handleSearchUsers proxies username search to the auth service. Each
// session gets at most one upstream search per throttle window; callers
// typing fast see 429 and retry, which keeps the auth service quiet.
func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("username"))
	if query == "" {
		respondJSON(w, http.StatusOK, []core.User{})
		return
	}

	if !s.searchThrottle.Allow(s.ownerID()) {
		w.Header().Set("Retry-After", "1")
		respondError(w, http.StatusTooManyRequests, "search throttled, retry shortly")
		return
	}

	users, err := s.client.SearchUsers(r.Context(), query)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	if users == nil {
		users = []core.User{}
	}
	respondJSON(w, http.StatusOK, users)
}
