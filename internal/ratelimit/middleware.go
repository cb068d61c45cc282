package ratelimit

import (
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/manpreetbhatti/roomsync/internal/metrics"
)

// Middleware rejects requests with 429 once the caller's address has spent
// its bucket.
func Middleware(cl *ClientLimiters, log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !cl.Allow(ip) {
			metrics.RateLimited.WithLabelValues("api").Inc()
			log.Debug("api rate limited", zap.String("ip", ip), zap.String("path", r.URL.Path))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
