// Package api serves the analyses over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/singleflight"

	"github.com/dd0wney/agrorisk/pkg/analysis"
	"github.com/dd0wney/agrorisk/pkg/api/middleware"
	"github.com/dd0wney/agrorisk/pkg/health"
	"github.com/dd0wney/agrorisk/pkg/logging"
	"github.com/dd0wney/agrorisk/pkg/metrics"
	"github.com/dd0wney/agrorisk/pkg/network"
	"github.com/dd0wney/agrorisk/pkg/patterns"
	"github.com/dd0wney/agrorisk/pkg/risk"
)

// Analyzer runs the analyses of one investigation.
type Analyzer interface {
	RiskScore(ctx context.Context, id string) (*risk.Assessment, error)
	Patterns(ctx context.Context, id string) (*patterns.Report, error)
	Network(ctx context.Context, id string) (*network.Metrics, error)
	Comprehensive(ctx context.Context, id string) (*analysis.Report, error)
}

// Options configures the server.
type Options struct {
	CORSAllowedOrigins []string
}

// Server represents the HTTP API server
type Server struct {
	analyzer        Analyzer
	healthChecker   *health.HealthChecker
	metricsRegistry *metrics.Registry
	logger          logging.Logger
	corsConfig      *middleware.CORSConfig
	inflight        singleflight.Group
	startTime       time.Time
}

// NewServer creates a new API server. A nil health checker serves an empty,
// always healthy report; a nil registry uses the default one.
func NewServer(a Analyzer, hc *health.HealthChecker, reg *metrics.Registry, logger logging.Logger, opts Options) *Server {
	if hc == nil {
		hc = health.NewHealthChecker(0)
	}
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	return &Server{
		analyzer:        a,
		healthChecker:   hc,
		metricsRegistry: reg,
		logger:          logging.OrDefault(logger).With(logging.Component("api")),
		corsConfig:      middleware.NewCORSConfig(opts.CORSAllowedOrigins),
		startTime:       time.Now(),
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /investigations/{id}/risk-score", s.handleRiskScore)
	mux.HandleFunc("GET /investigations/{id}/patterns", s.handlePatterns)
	mux.HandleFunc("GET /investigations/{id}/network", s.handleNetwork)
	mux.HandleFunc("GET /investigations/{id}/comprehensive-analysis", s.handleComprehensive)

	mux.HandleFunc("GET /health", s.healthChecker.HTTPHandler())
	mux.HandleFunc("GET /health/ready", s.healthChecker.ReadinessHandler())
	mux.HandleFunc("GET /health/live", s.healthChecker.LivenessHandler())
	mux.Handle("GET /metrics", s.metricsHandler())

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, "Rota não encontrada")
	})

	var handler http.Handler = mux
	handler = middleware.Metrics(s.metricsRegistry)(handler)
	handler = middleware.Logging(s.logger)(handler)
	handler = middleware.PanicRecovery(s.logger)(handler)
	handler = middleware.SecurityHeaders()(handler)
	handler = middleware.CORS(s.corsConfig)(handler)
	return middleware.RequestID()(handler)
}

func (s *Server) metricsHandler() http.Handler {
	prom := promhttp.HandlerFor(s.metricsRegistry.GetPrometheusRegistry(), promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.metricsRegistry.UpdateSystemMetrics()
		prom.ServeHTTP(w, r)
	})
}
