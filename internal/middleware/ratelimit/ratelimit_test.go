package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_Allow(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 3, CleanupInterval: time.Minute})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("1.2.3.4"), "request %d should pass", i+1)
	}
	assert.False(t, rl.Allow("1.2.3.4"), "request over the limit should be rejected")

	// Other keys are unaffected.
	assert.True(t, rl.Allow("5.6.7.8"))
}

func TestLimiter_Middleware(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	handler := rl.Middleware(
		func(r *http.Request) string { return r.RemoteAddr },
		nil,
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "9.9.9.9:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestThrottle_Allow(t *testing.T) {
	now := time.Now()
	th := NewThrottle(300 * time.Millisecond)
	th.now = func() time.Time { return now }

	assert.True(t, th.Allow("u1"))
	assert.False(t, th.Allow("u1"), "second call inside the interval is rejected")
	assert.True(t, th.Allow("u2"), "keys are independent")

	now = now.Add(301 * time.Millisecond)
	assert.True(t, th.Allow("u1"), "interval elapsed, call passes again")
}

func TestThrottle_ZeroIntervalDisables(t *testing.T) {
	th := NewThrottle(0)
	for i := 0; i < 5; i++ {
		assert.True(t, th.Allow("u1"))
	}
}

func TestThrottle_Prune(t *testing.T) {
	now := time.Now()
	th := NewThrottle(time.Millisecond)
	th.now = func() time.Time { return now }

	th.Allow("old")
	now = now.Add(time.Hour)
	th.Allow("fresh")

	removed := th.Prune(10 * time.Minute)
	assert.Equal(t, 1, removed)
	assert.False(t, th.Allow("fresh"), "fresh entry survived prune")
}
