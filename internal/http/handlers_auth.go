package http

import (
	"log/slog"
	"net/http"
	"strings"
)

type loginRequest struct {
	EmailOrUsername string `json:"emailOrUsername"`
	Password        string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool `json:"authenticated"`
	User          any  `json:"user,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.EmailOrUsername = strings.TrimSpace(req.EmailOrUsername)
	if req.EmailOrUsername == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "emailOrUsername and password are required")
		return
	}

	result, err := s.client.Login(r.Context(), req.EmailOrUsername, req.Password)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}

	if err := s.sessions.SaveSession(result.Token, result.User); err != nil {
		slog.ErrorContext(r.Context(), "Failed to persist session", "error", err)
		respondError(w, http.StatusInternalServerError, "could not persist session")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	result, err := s.client.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}

	// Some deployments log the user in on register, others only confirm.
	if result.Token != "" {
		if err := s.sessions.SaveSession(result.Token, result.User); err != nil {
			slog.WarnContext(r.Context(), "Failed to persist session after register", "error", err)
		}
	}

	respondJSON(w, http.StatusCreated, result)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	owner := s.ownerID()

	if err := s.sessions.Logout(); err != nil {
		slog.WarnContext(r.Context(), "Failed to clear session", "error", err)
	}
	s.InvalidateCaches(owner)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.Session()
	if !ok {
		respondJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
		return
	}

	resp := sessionResponse{Authenticated: true}
	if sess.User != nil {
		resp.User = sess.User
	}
	respondJSON(w, http.StatusOK, resp)
}
