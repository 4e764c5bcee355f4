package http

import (
	"net/http"

	"fintrack/internal/aggregate"
)

// Summary endpoints aggregate the cached expense and lend-borrow lists.
// The loaders coalesce concurrent misses, so a dashboard firing all four
// at once costs at most one upstream call per resource.

func (s *Server) handleSummaryCategories(w http.ResponseWriter, r *http.Request) {
	txs, err := s.loadExpenses(r.Context())
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, aggregate.ByCategory(txs))
}

func (s *Server) handleSummaryMonths(w http.ResponseWriter, r *http.Request) {
	txs, err := s.loadExpenses(r.Context())
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, aggregate.ByMonth(txs))
}

func (s *Server) handleSummaryTotal(w http.ResponseWriter, r *http.Request) {
	txs, err := s.loadExpenses(r.Context())
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"total": aggregate.Total(txs),
		"count": len(txs),
	})
}

func (s *Server) handleSummaryBalances(w http.ResponseWriter, r *http.Request) {
	entries, err := s.loadEntries(r.Context())
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, aggregate.Balances(entries))
}
