package middleware

import (
	"net"
	"net/http"
	"strconv"

	"github.com/edufam/edufam-backend/internal/api/response"
	"github.com/edufam/edufam-backend/internal/metrics"
	"github.com/edufam/edufam-backend/internal/ratelimit"
	"github.com/rs/zerolog/hlog"
)

// RateLimit applies lim per client IP and counts decisions per budget. A
// limiter backend failure lets the request through.
func RateLimit(lim ratelimit.Limiter, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := lim.Allow(r.Context(), clientIP(r))
			if err != nil {
				hlog.FromRequest(r).Warn().Err(err).
					Str("limiter", lim.Name()).
					Str("backend", lim.Kind()).
					Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}

			m.ObserveRateLimit(lim.Name(), decision.Allowed)
			if !decision.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(ratelimit.RetryAfterSeconds(decision.RetryAfter)))
				response.Fail(w, http.StatusTooManyRequests, response.CodeTooManyRequests, "Too many requests, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP is the socket address, rewritten by RealIP only for trusted proxies.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
