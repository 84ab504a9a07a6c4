package api

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spellbee/spellbee-server/internal/http/response"
	"github.com/spellbee/spellbee-server/internal/ratelimit"
)

// rateLimitRetryAfter is the Retry-After hint sent with a 429.
const rateLimitRetryAfter = time.Minute

// RateLimitMiddleware limits requests per client IP. Rejected requests get a
// 429 in the standard error envelope.
func RateLimitMiddleware(limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)

			if !limiter.Allow(key) {
				logger.Warn("rate limit exceeded", "ip", key, "path", r.URL.Path)
				response.TooManyRequests(w, rateLimitRetryAfter, logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the host part of RemoteAddr. middleware.RealIP has already
// rewritten it from X-Forwarded-For / X-Real-IP when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
