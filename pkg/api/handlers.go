package api

import (
	"context"
	"net/http"
)

// Operation names used for coalescing keys and metric labels.
const (
	opRiskScore     = "risk-score"
	opPatterns      = "patterns"
	opNetwork       = "network"
	opComprehensive = "comprehensive-analysis"
)

func (s *Server) handleRiskScore(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, opRiskScore, s.analyzer.RiskScore)
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, opPatterns, s.analyzer.Patterns)
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, opNetwork, s.analyzer.Network)
}

// handleComprehensive answers 200 even when the report is partial; failed
// sections carry their own error marker.
func (s *Server) handleComprehensive(w http.ResponseWriter, r *http.Request) {
	serve(s, w, r, opComprehensive, s.analyzer.Comprehensive)
}

// serve runs one analysis for the {id} path value. Concurrent requests for
// the same operation and investigation share a single run. The run is
// detached from the caller's cancellation so a client leaving early does
// not fail the others; the analysis service bounds it with its own timeout.
func serve[T any](s *Server, w http.ResponseWriter, r *http.Request, op string, run func(context.Context, string) (T, error)) {
	id := r.PathValue("id")

	leader := false
	ch := s.inflight.DoChan(op+"/"+id, func() (any, error) {
		leader = true
		return run(context.WithoutCancel(r.Context()), id)
	})

	select {
	case res := <-ch:
		if !leader {
			s.metricsRegistry.RecordCoalesced(op)
		}
		if res.Err != nil {
			s.respondAnalysisError(w, r, op, id, res.Err)
			return
		}
		s.respondJSON(w, http.StatusOK, res.Val)
	case <-r.Context().Done():
		// Client went away; the shared run keeps going for the others.
	}
}
