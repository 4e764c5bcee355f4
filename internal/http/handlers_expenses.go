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

// transactionRequest is the gateway's create/update payload. Amount arrives
// as a string so malformed values are rejected here instead of becoming a
// zero downstream.
type transactionRequest struct {
	Title    string `json:"title"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
}

func (req transactionRequest) toInput() (api.TransactionInput, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return api.TransactionInput{}, &core.ValidationError{Field: "title", Err: core.ErrEmptyTitle}
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return api.TransactionInput{}, err
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		return api.TransactionInput{}, err
	}

	return api.TransactionInput{
		Title:    title,
		Amount:   amount,
		Category: strings.TrimSpace(req.Category),
		Date:     date,
	}, nil
}

// loadExpenses returns the owner's expense list, cached per the gateway TTL.
// When the upstream fails and a mirror is configured, the mirrored copy is
// served instead.
func (s *Server) loadExpenses(ctx context.Context) ([]core.Transaction, error) {
	owner := s.ownerID()
	txs, err := s.txLoader.GetOrLoad(ctx, expensesCacheKey(owner), func(ctx context.Context) ([]core.Transaction, error) {
		return s.client.ListExpenses(ctx)
	})
	if err == nil {
		return txs, nil
	}

	if s.mirror != nil {
		mirrored, mirrorErr := s.mirror.ListTransactions(ctx, owner)
		if mirrorErr == nil {
			slog.WarnContext(ctx, "Serving expenses from mirror", "error", err.Error())
			return mirrored, nil
		}
	}
	return nil, err
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	txs, err := s.loadExpenses(r.Context())
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	respondJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in, err := req.toInput()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.client.CreateExpense(r.Context(), in)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}

	s.expensesMutated()
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing expense id")
		return
	}

	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in, err := req.toInput()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.client.UpdateExpense(r.Context(), id, in)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}

	s.expensesMutated()
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing expense id")
		return
	}

	if err := s.client.DeleteExpense(r.Context(), id); err != nil {
		respondUpstreamError(w, err)
		return
	}

	s.expensesMutated()
	w.WriteHeader(http.StatusNoContent)
}
