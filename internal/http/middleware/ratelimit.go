package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mapspro/mapspro/ratelimit"
)

// Actor extracts the rate-limit identity of a request, typically the
// session user or the client IP.
type Actor func(r *http.Request) string

// RateLimit admits at most limit requests per actor per window for the
// named action. Over-limit requests get a 429; a degraded cache backend
// never causes a denial (the gate fails open).
func RateLimit(g *ratelimit.Gate, actor Actor, action string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !g.Allow(r.Context(), actor(r), action, limit, window) {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
