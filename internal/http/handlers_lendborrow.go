package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/api"
	"fintrack/internal/core"
)

type entryRequest struct {
	FriendName string `json:"friendName"`
	FriendID   string `json:"friendId"`
	Amount     string `json:"amount"`
	Type       string `json:"type"`
	Reason     string `json:"reason"`
	Date       string `json:"date"`
}

func (req entryRequest) toInput() (api.EntryInput, error) {
	name := strings.TrimSpace(req.FriendName)
	if name == "" {
		return api.EntryInput{}, &core.ValidationError{Field: "friendName", Err: core.ErrEmptyCounterparty}
	}

	entryType := core.EntryType(strings.ToLower(strings.TrimSpace(req.Type)))
	if entryType != core.TypeLent && entryType != core.TypeBorrowed {
		return api.EntryInput{}, &core.ValidationError{Field: "type", Err: core.ErrInvalidEntryType}
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return api.EntryInput{}, err
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		return api.EntryInput{}, err
	}

	return api.EntryInput{
		CounterpartyName: name,
		CounterpartyID:   strings.TrimSpace(req.FriendID),
		Amount:           amount,
		Type:             entryType,
		Reason:           strings.TrimSpace(req.Reason),
		Date:             date,
	}, nil
}

// loadEntries mirrors loadExpenses for the lend-borrow resource.
func (s *Server) loadEntries(ctx context.Context) ([]core.LendBorrowEntry, error) {
	owner := s.ownerID()
	entries, err := s.entryLoader.GetOrLoad(ctx, entriesCacheKey(owner), func(ctx context.Context) ([]core.LendBorrowEntry, error) {
		return s.client.ListEntries(ctx)
	})
	if err == nil {
		return entries, nil
	}

	if s.mirror != nil {
		mirrored, mirrorErr := s.mirror.ListEntries(ctx, owner)
		if mirrorErr == nil {
			slog.WarnContext(ctx, "Serving lend-borrow entries from mirror", "error", err.Error())
			return mirrored, nil
		}
	}
	return nil, err
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.loadEntries(r.Context())
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	if entries == nil {
		entries = []core.LendBorrowEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in, err := req.toInput()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.client.CreateEntry(r.Context(), in)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}

	s.entriesMutated()
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleSettleEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing entry id")
		return
	}

	settled, err := s.client.SettleEntry(r.Context(), id)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}

	s.entriesMutated()
	respondJSON(w, http.StatusOK, settled)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing entry id")
		return
	}

	if err := s.client.DeleteEntry(r.Context(), id); err != nil {
		respondUpstreamError(w, err)
		return
	}

	s.entriesMutated()
	w.WriteHeader(http.StatusNoContent)
}
