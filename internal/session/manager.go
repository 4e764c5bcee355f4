package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
)

// ErrSessionExpired is returned when a refresh attempt fails. The session has
// already been cleared by the time callers see it; the only recovery is a new
// login.
var ErrSessionExpired = errors.New("session expired")

// Manager drives the session lifecycle against the auth collaborator.
// All network-facing methods take a context; Token and IsAuthenticated are
// pure reads of the store.
type Manager struct {
	store   Store
	authURL string
	client  *http.Client

	// Serializes refreshes so concurrent 401s trigger one refresh, not many.
	refreshMu sync.Mutex
}

// NewManager creates a Manager talking to the auth service at authURL
// (e.g. "http://localhost:4000/api/auth"). A nil client gets a default with
// a sane timeout.
func NewManager(store Store, authURL string, client *http.Client) *Manager {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Manager{
		store:   store,
		authURL: strings.TrimRight(authURL, "/"),
		client:  client,
	}
}

// SaveSession persists the token and, when present, the user profile.
func (m *Manager) SaveSession(token string, user *core.User) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("empty session token")
	}
	return m.store.Save(core.Session{Token: token, User: user})
}

// Session returns the stored session, if any.
func (m *Manager) Session() (core.Session, bool) {
	sess, err := m.store.Load()
	if err != nil {
		return core.Session{}, false
	}
	return sess, true
}

// Token returns the stored bearer token, if any.
func (m *Manager) Token() (string, bool) {
	sess, ok := m.Session()
	if !ok {
		return "", false
	}
	return sess.Token, true
}

// User returns the cached profile of the logged-in user, if any.
func (m *Manager) User() (*core.User, bool) {
	sess, ok := m.Session()
	if !ok || sess.User == nil {
		return nil, false
	}
	return sess.User, true
}

// IsAuthenticated reports whether a token is stored. It says nothing about
// whether the auth service still accepts it; that is Verify's job.
func (m *Manager) IsAuthenticated() bool {
	_, ok := m.Token()
	return ok
}

// Verify asks the auth service whether the stored token is still valid.
// Any transport error or non-2xx response reads as "not valid": the caller
// treats a flaky network the same as a rejected token and falls back to the
// login surface.
func (m *Manager) Verify(ctx context.Context) bool {
	token, ok := m.Token()
	if !ok {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.authURL+"/verify", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := m.client.Do(req)
	if err != nil {
		slog.DebugContext(ctx, "Token verify failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Refresh exchanges the stored token for a new one and persists it.
// Unlike Verify, a failure here is fatal to the session: the store is
// cleared (logout) and ErrSessionExpired is returned, because continuing
// with a stale token would silently fail every subsequent request.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	token, ok := m.Token()
	if !ok {
		return "", ErrSessionExpired
	}

	newToken, err := m.requestRefresh(ctx, token)
	if err != nil {
		slog.WarnContext(ctx, "Token refresh failed, clearing session", "error", err)
		if clearErr := m.Logout(); clearErr != nil {
			slog.ErrorContext(ctx, "Failed to clear session after refresh failure", "error", clearErr)
		}
		return "", fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	sess, _ := m.Session()
	if err := m.store.Save(core.Session{Token: newToken, User: sess.User}); err != nil {
		return "", fmt.Errorf("persist refreshed token: %w", err)
	}
	return newToken, nil
}

func (m *Manager) requestRefresh(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.authURL+"/refresh", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("refresh endpoint returned %d", resp.StatusCode)
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode refresh response: %w", err)
	}
	if payload.Token == "" {
		return "", errors.New("refresh response carried no token")
	}
	return payload.Token, nil
}

// Logout clears all persisted session state. Idempotent: calling it with no
// session is safe.
func (m *Manager) Logout() error {
	return m.store.Clear()
}
