package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func echoRemoteAddr() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.RemoteAddr))
	})
}

func TestTrustedRealIP(t *testing.T) {
	h := TrustedRealIP([]string{"10.0.0.0/8", "192.0.2.7", "not-a-cidr"})(echoRemoteAddr())

	tests := []struct {
		name   string
		remote string
		xff    string
		xrip   string
		want   string
	}{
		{"untrusted peer keeps address", "203.0.113.9:5555", "198.51.100.1", "", "203.0.113.9:5555"},
		{"trusted peer with xff", "10.1.2.3:80", "198.51.100.1", "", "198.51.100.1"},
		{"rightmost untrusted hop wins", "10.1.2.3:80", "6.6.6.6, 198.51.100.1, 10.9.9.9", "", "198.51.100.1"},
		{"bare trusted host", "192.0.2.7:80", "", "198.51.100.2", "198.51.100.2"},
		{"garbage header ignored", "10.1.2.3:80", "bogus", "", "10.1.2.3:80"},
		{"all hops trusted", "10.1.2.3:80", "10.0.0.5", "", "10.1.2.3:80"},
		{"no headers", "10.1.2.3:80", "", "", "10.1.2.3:80"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xrip != "" {
				req.Header.Set("X-Real-IP", tt.xrip)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[::ffff:192.0.2.1]:1234"
	assert.Equal(t, "192.0.2.1", ClientIP(req))

	req.RemoteAddr = "weird"
	assert.Equal(t, "weird", ClientIP(req))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)
	defer rl.Stop()

	rejected := 0
	rl.OnReject = func(*http.Request) { rejected++ }
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/ADIFcheck", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("192.0.2.1:1"))
	assert.Equal(t, http.StatusOK, do("192.0.2.1:2"))
	assert.Equal(t, http.StatusTooManyRequests, do("192.0.2.1:3"))
	assert.Equal(t, http.StatusOK, do("192.0.2.2:1"), "other clients have their own bucket")
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 2, rl.Clients())

	rl.Stop()
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://sotalive.net/"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/ADIFgen", nil)
		req.Header.Set("Origin", "https://sotalive.net")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://sotalive.net", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("conversion headers exposed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/ADIFgen", nil)
		req.Header.Set("Origin", "https://sotalive.net")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		expose := rec.Header().Get("Access-Control-Expose-Headers")
		for _, name := range []string{"Content-Disposition", "X-Request-Id", "X-Conversion-Id", "X-Failed-Rows"} {
			assert.Contains(t, expose, name)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/ADIFgen", nil)
		req.Header.Set("Origin", "https://sotalive.net")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Less(t, rec.Code, http.StatusMultipleChoices)
		assert.Equal(t, "https://sotalive.net", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "POST", rec.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("foreign origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/ADIFcheck", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rec.Header().Get("Access-Control-Expose-Headers"))
	})

	t.Run("wildcard", func(t *testing.T) {
		h := CORS([]string{"*"})(http.NotFoundHandler())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://anywhere.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestSecurityHeaders(t *testing.T) {
	for _, csp := range []bool{true, false} {
		rec := httptest.NewRecorder()
		SecurityHeaders(csp)(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, csp, rec.Header().Get("Content-Security-Policy") != "")
	}
}

func TestLogger_CapturesStatus(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "short and stout", rec.Body.String())
}
