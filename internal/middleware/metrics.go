package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/tinylink/tinylink/internal/metrics"
)

// Metrics returns a middleware that records Prometheus metrics.
func Metrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newStatusRecorder(w)

			metrics.ActiveConnections.Inc()
			defer metrics.ActiveConnections.Dec()

			next.ServeHTTP(rw, r)

			duration := time.Since(start)
			path := normalizePath(r.URL.Path)
			metrics.RecordRequest(r.Method, path, rw.status, duration)
		})
	}
}

// maxCodePathLen is the longest "/{code}" path: a slash plus a 30 char custom code.
const maxCodePathLen = 31

// normalizePath maps a request path onto its route pattern so dynamic
// short codes do not blow up label cardinality.
func normalizePath(path string) string {
	switch {
	case path == "/", path == "/health", path == "/ready", path == "/metrics",
		path == "/shorten", path == "/api/list", path == "/api/shorten":
		return path
	case strings.HasPrefix(path, "/u/") && len(path) > len("/u/"):
		return "/u/{code}"
	case strings.HasPrefix(path, "/api/urls/") && len(path) > len("/api/urls/"):
		return "/api/urls/{code}"
	case strings.Count(path, "/") == 1 && len(path) <= maxCodePathLen:
		return "/{code}"
	default:
		return "/other"
	}
}
