// Package middleware provides the HTTP middleware chain.
package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/cache"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/logger"
	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/response"
)

// RateLimit allows max requests per client IP per fixed window. Counters live
// in store (Redis when configured, so all replicas share them); if the store
// errors, a process-local counter takes over for that request.
func RateLimit(store cache.Store, max int, window time.Duration) func(http.Handler) http.Handler {
	fallback := cache.NewMemory()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "ratelimit:" + clientIP(r)

			n, err := store.Incr(r.Context(), key, window)
			if err != nil {
				logger.WithCtx(r.Context()).Warn("rate limit: store unavailable, using memory", "driver", store.Driver(), "error", err)
				n, _ = fallback.Incr(r.Context(), key, window)
			}

			remaining := int64(max) - n
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(max))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if n > int64(max) {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				response.Error(w, http.StatusTooManyRequests, "Too Many Requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
