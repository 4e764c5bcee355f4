// Package api implements clients for the three collaborator REST services:
// auth, expenses, and lend/borrow. All requests flow through an
// authenticated transport that attaches the bearer token and performs the
// single-shot refresh-and-retry on 401; all responses are decoded
// defensively so a misbehaving backend yields a typed *APIError rather than
// a JSON panic.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/session"
)

const maxBodyBytes = 1 << 20 // collaborator responses are small; cap reads

// Config carries the collaborator base URLs,
// e.g. AuthURL = "http://localhost:4000/api/auth".
type Config struct {
	AuthURL       string
	ExpensesURL   string
	LendBorrowURL string
	Timeout       time.Duration

	// Transport overrides the underlying RoundTripper; tests use it to
	// point at httptest servers.
	Transport http.RoundTripper
}

// Client talks to the collaborator services on behalf of one session.
type Client struct {
	httpClient    *http.Client
	sessions      *session.Manager
	authURL       string
	expensesURL   string
	lendBorrowURL string
}

// NewClient builds a Client whose requests carry the session's bearer token.
func NewClient(sessions *session.Manager, cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: newAuthTransport(cfg.Transport, sessions),
		},
		sessions:      sessions,
		authURL:       strings.TrimRight(cfg.AuthURL, "/"),
		expensesURL:   strings.TrimRight(cfg.ExpensesURL, "/"),
		lendBorrowURL: strings.TrimRight(cfg.LendBorrowURL, "/"),
	}
}

// Sessions exposes the session manager backing this client.
func (c *Client) Sessions() *session.Manager {
	return c.sessions
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	return c.do(ctx, http.MethodGet, url, nil, out)
}

func (c *Client) post(ctx context.Context, url string, in, out any) error {
	return c.do(ctx, http.MethodPost, url, in, out)
}

func (c *Client) put(ctx context.Context, url string, in, out any) error {
	return c.do(ctx, http.MethodPut, url, in, out)
}

func (c *Client) delete(ctx context.Context, url string) error {
	return c.do(ctx, http.MethodDelete, url, nil, nil)
}

func (c *Client) do(ctx context.Context, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

// decodeResponse normalizes every response into either a decoded payload or
// an *APIError. The body is read as text first: collaborator services
// occasionally return HTML error pages, and those must not surface as a bare
// json.SyntaxError.
func decodeResponse(resp *http.Response, out any) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			Status:  resp.StatusCode,
			Message: errorMessage(resp.StatusCode, raw),
			Body:    string(raw),
		}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{
			Status:  resp.StatusCode,
			Message: "invalid JSON response: " + truncate(strings.TrimSpace(string(raw)), 200),
			Body:    string(raw),
		}
	}
	return nil
}
