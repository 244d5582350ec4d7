package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"topicgraph/pkg/auth"
	apperrors "topicgraph/pkg/errors"
)

// RateLimit applies a token bucket per client IP. It expects chi's RealIP
// middleware to have run first.
func RateLimit(limiter *auth.KeyedLimiter, errorHandler *apperrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				errorHandler.Handle(w, r, apperrors.NewInternalError("rate limiter failure").WithCause(err))
				return
			}
			if !allowed {
				rps, burst := limiter.Limits()
				w.Header().Set("Retry-After", retryAfter(rps))
				errorHandler.Handle(w, r, apperrors.NewRateLimitError(rps, burst))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the remote host without its port
func clientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func retryAfter(rps float64) string {
	if rps <= 0 || rps >= 1 {
		return "1"
	}
	return strconv.Itoa(int(math.Ceil(1 / rps)))
}
