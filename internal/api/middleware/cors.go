package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	// MaxAge lets browsers cache a preflight answer. Zero omits the header.
	MaxAge time.Duration
}

// canonicalOrigin lowercases scheme and host and strips a trailing slash, so
// "https://App.example/" in config matches the browser's "https://app.example".
func canonicalOrigin(origin string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(origin)), "/")
}

// CORS answers preflights itself and decorates every other response whose
// Origin is allowed. Requests without an Origin header pass untouched.
func CORS(config CORSConfig) Middleware {
	methods := strings.Join(config.AllowedMethods, ", ")
	headers := strings.Join(config.AllowedHeaders, ", ")
	wildcard := lo.Contains(config.AllowedOrigins, "*")
	allowed := lo.SliceToMap(config.AllowedOrigins, func(o string) (string, struct{}) {
		return canonicalOrigin(o), struct{}{}
	})

	resolve := func(origin string) string {
		switch {
		case origin == "":
			return ""
		case wildcard && config.AllowCredentials:
			// Browsers reject "*" on credentialed requests; echo instead.
			return origin
		case wildcard:
			return "*"
		}
		if _, ok := allowed[canonicalOrigin(origin)]; ok {
			return origin
		}
		return ""
	}

	return func(f http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			allowedOrigin := resolve(r.Header.Get("Origin"))
			h := w.Header()
			h.Add("Vary", "Origin")

			if allowedOrigin != "" {
				h.Set("Access-Control-Allow-Origin", allowedOrigin)
				if config.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method != http.MethodOptions {
				f(w, r)
				return
			}

			if allowedOrigin == "" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if config.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(int(config.MaxAge.Seconds())))
			}
			w.WriteHeader(http.StatusNoContent)
		}
	}
}
