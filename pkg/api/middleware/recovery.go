package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/dd0wney/agrorisk/pkg/logging"
)

// PanicRecovery creates middleware that recovers from panics in HTTP
// handlers. The panic and its stack are logged; the client only gets a
// generic 500 in the API error envelope.
func PanicRecovery(logger logging.Logger) func(http.Handler) http.Handler {
	logger = logging.OrDefault(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := wrap(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic in HTTP handler",
					logging.RequestID(GetRequestID(r.Context())),
					logging.String("method", r.Method),
					logging.Path(r.URL.Path),
					logging.String("panic", fmt.Sprint(rec)),
					logging.String("stack", string(debug.Stack())),
				)
				if sw.wroteHeader {
					return
				}
				sw.Header().Set("Content-Type", "application/json")
				sw.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(sw).Encode(map[string]any{
					"error":   http.StatusText(http.StatusInternalServerError),
					"message": "Internal server error",
					"code":    http.StatusInternalServerError,
				})
			}()
			next.ServeHTTP(sw, r)
		})
	}
}
