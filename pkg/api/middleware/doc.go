// Package middleware provides the HTTP middleware of the agrorisk API.
//
// All middleware follows the standard pattern func(http.Handler) http.Handler:
//
//	handler := middleware.Metrics(registry)(mux)
//	handler = middleware.Logging(logger)(handler)
//	handler = middleware.PanicRecovery(logger)(handler)
//	handler = middleware.RequestID()(handler)
//
// Metrics and Logging read r.Pattern after the mux matched the request, so
// nothing between them and the mux may replace the request.
package middleware
