package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/session"
)

// newTestClient wires a client and its session manager against the given
// collaborator handler. Auth (verify/refresh) and data endpoints share one
// server; the refresh handler is mounted at /auth/refresh.
func newTestClient(t *testing.T, handler http.Handler) (*Client, *session.Manager, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sessions := session.NewManager(session.NewMemoryStore(), srv.URL+"/auth", srv.Client())
	client := NewClient(sessions, Config{
		AuthURL:       srv.URL + "/auth",
		ExpensesURL:   srv.URL + "/expenses",
		LendBorrowURL: srv.URL + "/lendborrow",
	})
	return client, sessions, srv
}

func TestAuthTransport_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	client, sessions, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	require.NoError(t, sessions.SaveSession("tok-1", nil))

	_, err := client.ListExpenses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)
}

func TestAuthTransport_NoTokenNoHeader(t *testing.T) {
	var sawAuth bool
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization") != ""
		w.Write([]byte(`[]`))
	}))

	_, err := client.ListExpenses(context.Background())
	require.NoError(t, err)
	assert.False(t, sawAuth)
}

// The single-shot recovery contract: a 401 triggers exactly one refresh and
// one retried request, and the caller sees the retried payload.
func TestAuthTransport_RefreshOnceAndRetry(t *testing.T) {
	var refreshCalls, expenseCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		require.Equal(t, "Bearer stale-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"token":"fresh-token"}`))
	})
	mux.HandleFunc("/expenses", func(w http.ResponseWriter, r *http.Request) {
		expenseCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh-token" {
			http.Error(w, `{"error":"token expired"}`, http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`[{"_id":"e1","title":"Lunch","amount":20,"category":"Food","date":"2024-01-15"}]`))
	})

	client, sessions, _ := newTestClient(t, mux)
	require.NoError(t, sessions.SaveSession("stale-token", nil))

	txs, err := client.ListExpenses(context.Background())
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Lunch", txs[0].Title)

	assert.Equal(t, int64(1), refreshCalls.Load(), "exactly one refresh")
	assert.Equal(t, int64(2), expenseCalls.Load(), "original request plus one retry")

	// The refreshed token was persisted.
	token, ok := sessions.Token()
	require.True(t, ok)
	assert.Equal(t, "fresh-token", token)
}

func TestAuthTransport_ReplaysRequestBodyOnRetry(t *testing.T) {
	var bodies []string
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"fresh-token"}`))
	})
	mux.HandleFunc("/expenses", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(raw))
		if r.Header.Get("Authorization") != "Bearer fresh-token" {
			http.Error(w, `{"error":"token expired"}`, http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"_id":"e9","title":"Lunch","amount":20,"category":"Food","date":"2024-01-15"}`))
	})

	client, sessions, _ := newTestClient(t, mux)
	require.NoError(t, sessions.SaveSession("stale-token", nil))

	var date = mustDate(t, "2024-01-15")
	created, err := client.CreateExpense(context.Background(), TransactionInput{
		Title: "Lunch", Amount: mustDec(t, "20"), Category: "Food", Date: date,
	})
	require.NoError(t, err)
	assert.Equal(t, "e9", created.ID)

	require.Len(t, bodies, 2)
	assert.JSONEq(t, bodies[0], bodies[1], "retry must carry the identical body")
}

// A refresh failure clears the session and surfaces ErrSessionExpired; the
// request is not retried again.
func TestAuthTransport_RefreshFailurePropagates(t *testing.T) {
	var expenseCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"refresh expired"}`, http.StatusUnauthorized)
	})
	mux.HandleFunc("/expenses", func(w http.ResponseWriter, r *http.Request) {
		expenseCalls.Add(1)
		http.Error(w, `{"error":"token expired"}`, http.StatusUnauthorized)
	})

	client, sessions, _ := newTestClient(t, mux)
	require.NoError(t, sessions.SaveSession("stale-token", nil))

	_, err := client.ListExpenses(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrSessionExpired)
	assert.Equal(t, int64(1), expenseCalls.Load(), "no second retry after failed refresh")
	assert.False(t, sessions.IsAuthenticated())
}

// A 401 on the retried request is returned as-is: single-shot recovery only.
func TestAuthTransport_SecondUnauthorizedIsFinal(t *testing.T) {
	var expenseCalls atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"fresh-token"}`))
	})
	mux.HandleFunc("/expenses", func(w http.ResponseWriter, r *http.Request) {
		expenseCalls.Add(1)
		http.Error(w, `{"error":"nope"}`, http.StatusUnauthorized)
	})

	client, sessions, _ := newTestClient(t, mux)
	require.NoError(t, sessions.SaveSession("stale-token", nil))

	_, err := client.ListExpenses(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, int64(2), expenseCalls.Load(), "exactly one retry, never more")
}

func TestDecodeResponse_NonJSONBody(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>Bad Gateway</body></html>"))
	}))

	_, err := client.ListExpenses(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusOK, apiErr.Status)
	assert.Contains(t, apiErr.Message, "invalid JSON response")
	assert.Contains(t, apiErr.Body, "Bad Gateway")
}

func TestDecodeResponse_ErrorShapes(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"error field", http.StatusBadRequest, `{"error":"amount required"}`, "amount required"},
		{"message field", http.StatusForbidden, `{"message":"not yours"}`, "not yours"},
		{"plain text", http.StatusBadGateway, "upstream down", "upstream down"},
		{"empty body", http.StatusServiceUnavailable, "", "request failed with status 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))

			_, err := client.ListExpenses(context.Background())
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestListExpenses_RejectsInvalidRecord(t *testing.T) {
	client, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"_id": "e1", "title": "Lunch", "amount": 20, "category": "Food", "date": "2024-01-15"},
			{"_id": "e2", "title": "Ghost", "amount": -3, "category": "Food", "date": "2024-01-16"},
		})
	}))

	_, err := client.ListExpenses(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "e2")
}
