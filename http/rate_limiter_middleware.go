package http

import (
	"net"
	"net/http"

	"distress-score/metrics"
)

func RateLimitMiddleware(
	limiter *RateLimiter,
	m *metrics.Metrics,
) func(http.Handler) http.Handler {

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			if !limiter.Allow(ip) {
				m.ObserveRateLimited()
				requestLogger(r).Warn().Str("client", ip).Msg("rate limit exceeded")
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
