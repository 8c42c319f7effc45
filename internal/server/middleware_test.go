package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORSMiddleware(t *testing.T) {
	server := &Server{corsOrigin: "https://example.com"}

	handler := server.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("adds CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
		assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("handles preflight without calling handler", func(t *testing.T) {
		called := false
		h := server.corsMiddleware(func(w http.ResponseWriter, r *http.Request) {
			called = true
		})
		req := httptest.NewRequest(http.MethodOptions, "/trace", nil)
		w := httptest.NewRecorder()

		h(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, called)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("disabled limiter passes through", func(t *testing.T) {
		server := &Server{}
		called := 0
		handler := server.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) {
			called++
		})

		for range 10 {
			req := httptest.NewRequest(http.MethodPost, "/trace", nil)
			w := httptest.NewRecorder()
			handler(w, req)
		}
		assert.Equal(t, 10, called)
	})

	t.Run("blocks after minute limit", func(t *testing.T) {
		server := &Server{limiter: newRateLimiter(2, 0)}
		handler := server.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		for i := range 3 {
			req := httptest.NewRequest(http.MethodPost, "/trace", nil)
			req.RemoteAddr = "10.0.0.1:1234"
			w := httptest.NewRecorder()
			handler(w, req)

			if i < 2 {
				assert.Equal(t, http.StatusOK, w.Code)
			} else {
				require.Equal(t, http.StatusTooManyRequests, w.Code)
				assert.Equal(t, "minute", w.Header().Get("X-RateLimit-Scope"))
				assert.NotEmpty(t, w.Header().Get("Retry-After"))
			}
		}
	})

	t.Run("limits are per client", func(t *testing.T) {
		server := &Server{limiter: newRateLimiter(1, 0)}
		handler := server.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		first := httptest.NewRequest(http.MethodPost, "/trace", nil)
		first.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler(w, first)
		assert.Equal(t, http.StatusOK, w.Code)

		other := httptest.NewRequest(http.MethodPost, "/trace", nil)
		other.RemoteAddr = "10.0.0.2:1234"
		w = httptest.NewRecorder()
		handler(w, other)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		expected   string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "192.168.1.5:54321",
			expected:   "192.168.1.5",
		},
		{
			name:       "x-forwarded-for single",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7"},
			expected:   "203.0.113.7",
		},
		{
			name:       "x-forwarded-for chain",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"},
			expected:   "203.0.113.7",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "198.51.100.3"},
			expected:   "198.51.100.3",
		},
		{
			name:       "malformed remote addr",
			remoteAddr: "not-an-addr",
			expected:   "not-an-addr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, getClientIP(req))
		})
	}
}
