package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveFrom(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	handler := RateLimiter(RateLimitConfig{RequestsPerSecond: 100, Burst: 10})(okHandler())

	for range 5 {
		rec := serveFrom(handler, "10.0.0.1:1234")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	handler := RateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 2})(okHandler())

	for range 2 {
		require.Equal(t, http.StatusOK, serveFrom(handler, "10.0.0.1:1234").Code)
	}

	rec := serveFrom(handler, "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "rate limit exceeded", body["detail"])
}

func TestRateLimiter_PerClientIsolation(t *testing.T) {
	handler := RateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 2})(okHandler())

	for range 2 {
		require.Equal(t, http.StatusOK, serveFrom(handler, "10.0.0.1:1234").Code)
	}
	// Same IP, different port: same client.
	assert.Equal(t, http.StatusTooManyRequests, serveFrom(handler, "10.0.0.1:5678").Code)
	assert.Equal(t, http.StatusOK, serveFrom(handler, "10.0.0.2:1234").Code)
}

func TestRateLimiter_IgnoresForwardedFor(t *testing.T) {
	handler := RateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1})(okHandler())

	require.Equal(t, http.StatusOK, serveFrom(handler, "10.0.0.1:1234").Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "192.168.1.1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimiter_ZeroBurstRejects(t *testing.T) {
	handler := RateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 0})(okHandler())

	rec := serveFrom(handler, "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLimiterSet_SweepsStaleClients(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	set := newLimiterSet(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}, func() time.Time { return now })

	set.get("10.0.0.1")
	set.get("10.0.0.2")
	require.Equal(t, 2, set.len())

	now = now.Add(4 * time.Minute)
	set.get("10.0.0.2")
	assert.Equal(t, 2, set.len(), "no sweep before the interval")

	now = now.Add(7 * time.Minute)
	set.get("10.0.0.3")
	// 10.0.0.1 was idle 11m, 10.0.0.2 only 7m.
	assert.Equal(t, 2, set.len())
}
