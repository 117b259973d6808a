package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(handler http.Handler, remoteAddr string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestRateLimit_UnderLimit(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 5, Window: time.Minute})(noopHandler())

	for i := range 5 {
		w := hit(handler, "192.168.1.1:12345", nil)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimit_OverLimit(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 2, Window: time.Minute})(noopHandler())

	for range 2 {
		require.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:9999", nil).Code)
	}

	w := hit(handler, "10.0.0.1:9999", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Too many requests, please try again later.", body["message"])
	assert.Contains(t, body, "retryAfter")
}

func TestRateLimit_KeysAreIndependent(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(noopHandler())

	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.1:1234", nil).Code)
	assert.Equal(t, http.StatusOK, hit(handler, "10.0.0.2:1234", nil).Code)

	// First client again, over its own budget now.
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "10.0.0.1:5678", nil).Code)
}

func TestRateLimit_CustomKeyFunc(t *testing.T) {
	handler := RateLimit(RateLimitConfig{
		Max:    1,
		Window: time.Minute,
		KeyFunc: func(r *http.Request) string {
			return r.Header.Get("Authorization")
		},
	})(noopHandler())

	alice := map[string]string{"Authorization": "Bearer alice"}
	bob := map[string]string{"Authorization": "Bearer bob"}

	assert.Equal(t, http.StatusOK, hit(handler, "1.1.1.1:1", alice).Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "2.2.2.2:2", alice).Code)
	assert.Equal(t, http.StatusOK, hit(handler, "1.1.1.1:1", bob).Code)
}

func TestRateLimit_ForwardedForTakesPrecedence(t *testing.T) {
	handler := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute})(noopHandler())

	fwd := map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}

	assert.Equal(t, http.StatusOK, hit(handler, "192.168.1.1:4444", fwd).Code)

	// Different RemoteAddr, same forwarded client: still the same bucket.
	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "192.168.1.2:5555", fwd).Code)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:1234"
	assert.Equal(t, "192.0.2.7", clientIP(r))

	r.Header.Set("X-Real-IP", "198.51.100.3")
	assert.Equal(t, "198.51.100.3", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.50, 70.41.3.18")
	assert.Equal(t, "203.0.113.50", clientIP(r))
}
