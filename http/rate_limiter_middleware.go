package http

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"magit/apperror"
	"magit/logger"
)

// RateLimitMiddleware limits requests per client address. It expects
// middleware.RealIP to have run, so RemoteAddr may lack a port.
func RateLimitMiddleware(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				client = r.RemoteAddr
			}

			allowed, retryAfter := limiter.Allow(client)
			if !allowed {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
				logger.Warn().Str("client", client).Str("path", r.URL.Path).Msg("rate limit exceeded")
				writeError(w, r, apperror.ErrRateLimited.WithMessage("too many requests, try again later"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
