package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repclub/guard/internal/ratelimit"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestQuota_EnforcesPreset(t *testing.T) {
	store := ratelimit.NewStore()
	cfg := ratelimit.Config{MaxRequests: 2, Window: time.Minute, KeyPrefix: "api"}
	identify := func(r *http.Request) string { return r.Header.Get("X-User") }

	handler := Quota(store, cfg, "decisions", identify)(okHandler())

	send := func(user string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/decisions", nil)
		if user != "" {
			req.Header.Set("X-User", user)
		}
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("user-a").Code)
	assert.Equal(t, http.StatusOK, send("user-a").Code)

	rec := send("user-a")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Too many requests")

	// Other callers have their own bucket
	assert.Equal(t, http.StatusOK, send("user-b").Code)
}

func TestQuota_AnonymousCallersShareABucket(t *testing.T) {
	store := ratelimit.NewStore()
	cfg := ratelimit.Config{MaxRequests: 1, Window: time.Minute, KeyPrefix: "login"}
	identify := func(r *http.Request) string { return "" }

	handler := Quota(store, cfg, "verify", identify)(okHandler())

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/v1/mfa/verifications", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/v1/mfa/verifications", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestRateLimitByIP(t *testing.T) {
	handler := RateLimitByIP(IPRateLimitConfig{RequestsPerMinute: 2})(okHandler())

	send := func(addr string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/login-failures/x", nil)
		req.RemoteAddr = addr
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1234").Code)

	// A different client IP is unaffected
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234").Code)
}

func TestRateLimitByIP_SpoofedHeaderCannotDodgeLimit(t *testing.T) {
	handler := RateLimitByIP(IPRateLimitConfig{RequestsPerMinute: 2})(okHandler())

	// Same socket address, a fresh forged X-Forwarded-For each time
	send := func(forged string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/login-failures/x", nil)
		req.RemoteAddr = "203.0.113.10:1234"
		req.Header.Set("X-Forwarded-For", forged)
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("1.2.3.4").Code)
	assert.Equal(t, http.StatusOK, send("5.6.7.8").Code)
	assert.Equal(t, http.StatusTooManyRequests, send("9.10.11.12").Code)
}

func TestRateLimitByIP_TrustedProxyKeysByForwardedClient(t *testing.T) {
	handler := RateLimitByIP(IPRateLimitConfig{
		RequestsPerMinute: 2,
		TrustedProxies:    []string{"10.0.0.0/8"},
	})(okHandler())

	send := func(client string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/login-failures/x", nil)
		req.RemoteAddr = "10.0.0.5:1234" // proxy
		req.Header.Set("X-Forwarded-For", client)
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("203.0.113.42").Code)
	assert.Equal(t, http.StatusOK, send("203.0.113.42").Code)
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.42").Code)

	// A different forwarded client has its own bucket
	assert.Equal(t, http.StatusOK, send("203.0.113.43").Code)
}
