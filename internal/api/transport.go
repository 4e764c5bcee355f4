package api

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"fintrack/internal/session"
)

// authTransport is an http.RoundTripper that attaches the bearer token when
// a session exists and recovers from token expiry exactly once: on a 401 it
// refreshes the token and replays the original request a single time. A
// second 401, or a failed refresh, propagates. No retry loop, no backoff.
type authTransport struct {
	base     http.RoundTripper
	sessions *session.Manager
}

func newAuthTransport(base http.RoundTripper, sessions *session.Manager) *authTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &authTransport{base: base, sessions: sessions}
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Buffer the body up front so a 401 retry can replay it.
	if req.Body != nil && req.GetBody == nil {
		buf, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("buffer request body: %w", err)
		}
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(buf)), nil
		}
	}

	token, hasToken := t.sessions.Token()

	first := req.Clone(req.Context())
	if hasToken {
		first.Header.Set("Authorization", "Bearer "+token)
	}
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		first.Body = body
	}

	resp, err := t.base.RoundTrip(first)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || !hasToken {
		return resp, nil
	}

	// Token expired: one refresh, one retry.
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	resp.Body.Close()

	newToken, err := t.sessions.Refresh(req.Context())
	if err != nil {
		// The manager has already cleared the session.
		return nil, err
	}
	slog.DebugContext(req.Context(), "Retrying request with refreshed token",
		"method", req.Method, "url", req.URL.Redacted())

	retry := req.Clone(req.Context())
	retry.Header.Set("Authorization", "Bearer "+newToken)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}

	return t.base.RoundTrip(retry)
}
