package middleware

import (
	"net/http"
	"time"

	"github.com/dd0wney/agrorisk/pkg/logging"
)

// Logging creates middleware that logs every request with its status and
// latency. Server errors are logged at error level.
func Logging(logger logging.Logger) func(http.Handler) http.Handler {
	logger = logging.OrDefault(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := wrap(w)
			next.ServeHTTP(sw, r)

			fields := []logging.Field{
				logging.RequestID(GetRequestID(r.Context())),
				logging.String("method", r.Method),
				logging.Path(r.URL.Path),
				logging.String("route", route(r)),
				logging.Int("status", sw.statusCode),
				logging.Int("bytes", sw.bytesWritten),
				logging.Latency(time.Since(start)),
			}
			if sw.statusCode >= http.StatusInternalServerError {
				logger.Error("request failed", fields...)
				return
			}
			logger.Info("request completed", fields...)
		})
	}
}
