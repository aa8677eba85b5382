package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.HandlerFunc) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next(w, r)
			}
		}
	}

	h := Chain(okHandler, mark("outer"), mark("inner"))
	h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestCORS(t *testing.T) {
	h := CORS(CORSConfig{
		AllowedOrigins:   []string{"http://localhost:3000", "https://App.example/"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           10 * time.Minute,
	})(okHandler)

	tests := []struct {
		name        string
		method      string
		origin      string
		wantStatus  int
		wantOrigin  string
		wantMethods string
		wantMaxAge  string
	}{
		{name: "allowed", method: http.MethodGet, origin: "http://localhost:3000", wantStatus: http.StatusOK, wantOrigin: "http://localhost:3000"},
		{name: "canonical match", method: http.MethodGet, origin: "https://app.example", wantStatus: http.StatusOK, wantOrigin: "https://app.example"},
		{name: "other origin", method: http.MethodGet, origin: "http://evil.example", wantStatus: http.StatusOK},
		{name: "no origin", method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "preflight allowed", method: http.MethodOptions, origin: "http://localhost:3000", wantStatus: http.StatusNoContent, wantOrigin: "http://localhost:3000", wantMethods: "GET, OPTIONS", wantMaxAge: "600"},
		{name: "preflight denied", method: http.MethodOptions, origin: "http://evil.example", wantStatus: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			h(rec, req)
			require.Equal(t, tt.wantStatus, rec.Code)
			require.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			require.Equal(t, tt.wantMethods, rec.Header().Get("Access-Control-Allow-Methods"))
			require.Equal(t, tt.wantMaxAge, rec.Header().Get("Access-Control-Max-Age"))
			require.Equal(t, "Origin", rec.Header().Get("Vary"))
		})
	}
}

func TestCORSWildcard(t *testing.T) {
	for _, creds := range []bool{false, true} {
		h := CORS(CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: creds})(okHandler)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://anywhere.example")
		h(rec, req)

		want := "*"
		if creds {
			want = "https://anywhere.example"
		}
		require.Equal(t, want, rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestSecureHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecureHeaders()(okHandler)(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestRateLimitPerIP(t *testing.T) {
	limiter := NewIPRateLimiter(2, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	limiter.now = func() time.Time { return now }
	h := RateLimit(limiter)(okHandler)

	call := func(ip string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		h(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusOK, call("10.0.0.1"))
	require.Equal(t, http.StatusOK, call("10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	require.Equal(t, http.StatusOK, call("10.0.0.2"), "limits are per IP")

	now = now.Add(time.Minute)
	require.Equal(t, http.StatusOK, call("10.0.0.1"))
}

func TestLoggingSetsRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	Logging()(okHandler)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	Logging()(okHandler)(rec, req)
	require.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}
