package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLimiter struct {
	counts map[string]int64
	limits map[string]int64
}

func newStubLimiter() *stubLimiter {
	return &stubLimiter{counts: map[string]int64{}, limits: map[string]int64{}}
}

func (s *stubLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	s.counts[scope]++
	s.limits[scope] = limit
	return s.counts[scope] <= limit, s.counts[scope], nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	})
}

func loginRequest(ip, email string) *http.Request {
	body := `{}`
	if email != "" {
		body = `{"email":"` + email + `","password":"pw"}`
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.RemoteAddr = ip + ":51234"
	return req
}

func TestAuthRateLimitAllowsUnderLimit(t *testing.T) {
	limiter := newStubLimiter()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 3, 3)
	handler := AuthRateLimit(policy, limiter, nil)(okHandler())

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, loginRequest("10.0.0.1", "couple@example.com"))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestAuthRateLimitBlocksIPOverLimit(t *testing.T) {
	limiter := newStubLimiter()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 2, 0)
	handler := AuthRateLimit(policy, limiter, nil)(okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, loginRequest("10.0.0.1", ""))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("10.0.0.1", ""))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")

	// A different IP is not affected.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("10.0.0.2", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRateLimitBlocksEmailAcrossIPs(t *testing.T) {
	limiter := newStubLimiter()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 2)
	handler := AuthRateLimit(policy, limiter, nil)(okHandler())

	for i, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, loginRequest(ip, "couple@example.com"))
		require.Equal(t, http.StatusOK, rec.Code, i)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("10.0.0.3", "couple@example.com"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAuthRateLimitEmailIsCaseInsensitive(t *testing.T) {
	limiter := newStubLimiter()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 1)
	handler := AuthRateLimit(policy, limiter, nil)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("10.0.0.1", "Couple@Example.com"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("10.0.0.2", "couple@example.com"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAuthRateLimitBodySurvivesInspection(t *testing.T) {
	limiter := newStubLimiter()
	policy := NewAuthRateLimitPolicy("login", time.Minute, 0, 5)

	var seenBody string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		seenBody = string(raw)
		w.WriteHeader(http.StatusOK)
	})
	handler := AuthRateLimit(policy, limiter, nil)(inner)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("10.0.0.1", "couple@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, seenBody, "couple@example.com")
}

func TestAuthRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	policy := NewAuthRateLimitPolicy("login", 0, 0, 0)
	handler := AuthRateLimit(policy, newStubLimiter(), nil)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, loginRequest("10.0.0.1", "couple@example.com"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "198.51.100.9")
	assert.Equal(t, "198.51.100.9", clientIP(req))

	req.Header.Del("X-Real-IP")
	assert.Equal(t, "192.0.2.1", clientIP(req))
}
