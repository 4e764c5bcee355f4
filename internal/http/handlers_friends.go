package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
)

type addFriendRequest struct {
	FriendID string `json:"friendId"`
}

// handleListFriends proxies the friend list for the profile view.
func (s *Server) handleListFriends(w http.ResponseWriter, r *http.Request) {
	friends, err := s.client.Friends(r.Context())
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	if friends == nil {
		friends = []core.User{}
	}
	respondJSON(w, http.StatusOK, friends)
}

func (s *Server) handleAddFriend(w http.ResponseWriter, r *http.Request) {
	var req addFriendRequest
	if !decodeBody(w, r, &req) {
		return
	}

	friendID := strings.TrimSpace(req.FriendID)
	if friendID == "" {
		respondError(w, http.StatusBadRequest, "missing friendId")
		return
	}

	if err := s.client.AddFriend(r.Context(), friendID); err != nil {
		respondUpstreamError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
