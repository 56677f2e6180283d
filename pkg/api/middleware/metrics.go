package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dd0wney/agrorisk/pkg/metrics"
)

// Metrics creates middleware that records request count, latency, response
// size and in-flight requests, labelled by the matched route.
func Metrics(reg *metrics.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if reg == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			reg.HTTPRequestsInFlight.Inc()
			defer reg.HTTPRequestsInFlight.Dec()

			sw := wrap(w)
			next.ServeHTTP(sw, r)

			path := route(r)
			reg.RecordHTTPRequest(r.Method, path, strconv.Itoa(sw.statusCode), time.Since(start))
			reg.HTTPResponseSizeBytes.WithLabelValues(r.Method, path).Observe(float64(sw.bytesWritten))
		})
	}
}
