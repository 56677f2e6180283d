package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/agrorisk/pkg/analysis"
	"github.com/dd0wney/agrorisk/pkg/entities"
	"github.com/dd0wney/agrorisk/pkg/health"
	"github.com/dd0wney/agrorisk/pkg/logging"
	"github.com/dd0wney/agrorisk/pkg/metrics"
	"github.com/dd0wney/agrorisk/pkg/network"
	"github.com/dd0wney/agrorisk/pkg/patterns"
	"github.com/dd0wney/agrorisk/pkg/risk"
	"github.com/dd0wney/agrorisk/pkg/source"
)

func cycleSnapshot() *entities.Snapshot {
	snap := &entities.Snapshot{
		InvestigationID: "ownership-cycle",
		CapturedAt:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Companies:       []entities.Company{{ID: "A"}, {ID: "B"}, {ID: "C"}},
	}
	for _, pair := range [][2]string{{"A", "B"}, {"B", "C"}, {"C", "A"}} {
		snap.Relations = append(snap.Relations, entities.Relation{
			SourceType: entities.EntityCompany, SourceID: pair[0],
			TargetType: entities.EntityCompany, TargetID: pair[1],
			Type: entities.RelationPartnerIn,
		})
	}
	return snap
}

// stubAnalyzer answers every operation with err, or with the given report.
type stubAnalyzer struct {
	err     error
	report  *analysis.Report
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (s *stubAnalyzer) RiskScore(ctx context.Context, id string) (*risk.Assessment, error) {
	s.calls.Add(1)
	if s.started != nil {
		s.started <- struct{}{}
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return &risk.Assessment{InvestigationID: id, RiskLevel: risk.LevelLow}, nil
}

func (s *stubAnalyzer) Patterns(ctx context.Context, id string) (*patterns.Report, error) {
	return nil, s.err
}

func (s *stubAnalyzer) Network(ctx context.Context, id string) (*network.Metrics, error) {
	return nil, s.err
}

func (s *stubAnalyzer) Comprehensive(ctx context.Context, id string) (*analysis.Report, error) {
	return s.report, s.err
}

func newTestServer(t *testing.T, a Analyzer) (*httptest.Server, *metrics.Registry) {
	t.Helper()
	reg := metrics.NewRegistry()
	srv := httptest.NewServer(NewServer(a, nil, reg, logging.NewNopLogger(), Options{}).Handler())
	t.Cleanup(srv.Close)
	return srv, reg
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func decodeError(t *testing.T, body []byte) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e), string(body))
	return e
}

func realService(snaps ...*entities.Snapshot) *analysis.Service {
	return analysis.NewService(source.NewMemorySource(snaps...), analysis.Config{}, nil, metrics.NewRegistry())
}

func TestComprehensiveAnalysis(t *testing.T) {
	srv, _ := newTestServer(t, realService(cycleSnapshot()))

	resp, body := get(t, srv.URL+"/investigations/ownership-cycle/comprehensive-analysis")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var report map[string]any
	require.NoError(t, json.Unmarshal(body, &report))
	for _, key := range []string{"risk_assessment", "patterns", "network_analysis", "overall_assessment"} {
		assert.Contains(t, report, key)
	}
	overall := report["overall_assessment"].(map[string]any)
	assert.Equal(t, true, overall["requires_manual_review"])
	assert.Equal(t, false, report["partial"])
}

func TestAnalysisEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, realService(cycleSnapshot()))

	resp, body := get(t, srv.URL+"/investigations/ownership-cycle/risk-score")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var assessment risk.Assessment
	require.NoError(t, json.Unmarshal(body, &assessment))
	assert.Equal(t, "ownership-cycle", assessment.InvestigationID)
	assert.Len(t, assessment.Indicators, 7)

	resp, body = get(t, srv.URL+"/investigations/ownership-cycle/patterns")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report patterns.Report
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Equal(t, 1, report.CriticalPatterns)
	assert.Equal(t, len(report.Patterns), report.TotalPatterns)

	resp, body = get(t, srv.URL+"/investigations/ownership-cycle/network")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var m network.Metrics
	require.NoError(t, json.Unmarshal(body, &m))
	assert.Equal(t, 3, m.NumNodes)
}

func TestErrorStatusMapping(t *testing.T) {
	malformed := &entities.Snapshot{
		InvestigationID: "bad",
		Properties:      []entities.Property{{ID: "p1", AreaHectares: -1}},
	}
	srv, _ := newTestServer(t, realService(malformed))

	resp, body := get(t, srv.URL+"/investigations/missing/risk-score")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, decodeError(t, body).Code)

	resp, body = get(t, srv.URL+"/investigations/bad/network")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, decodeError(t, body).Message, "AreaHectares")

	resp, _ = get(t, srv.URL+"/investigations/bad/comprehensive-analysis")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("fetch: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{context.Canceled, http.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", source.ErrInvestigationNotFound), http.StatusNotFound},
		{errors.New("pq: connection reset at 10.0.0.3"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, message := statusFor(tt.err)
		assert.Equal(t, tt.want, status, tt.err.Error())
		if status == http.StatusInternalServerError {
			assert.NotContains(t, message, "10.0.0.3")
		}
	}
}

func TestRespondJSON_UnencodableValue(t *testing.T) {
	s := NewServer(&stubAnalyzer{}, nil, metrics.NewRegistry(), logging.NewNopLogger(), Options{})
	rec := httptest.NewRecorder()

	s.respondJSON(rec, http.StatusOK, map[string]float64{"z_score": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, http.StatusInternalServerError, decodeError(t, rec.Body.Bytes()).Code)
}

func TestTimeoutAnswers504(t *testing.T) {
	srv, _ := newTestServer(t, &stubAnalyzer{err: fmt.Errorf("analysis interrupted: %w", context.DeadlineExceeded)})

	resp, body := get(t, srv.URL+"/investigations/x/comprehensive-analysis")
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
	assert.Equal(t, "Gateway Timeout", decodeError(t, body).Error)
}

func TestPartialReportAnswers200(t *testing.T) {
	report := &analysis.Report{
		InvestigationID: "x",
		RiskAssessment:  analysis.Section[*risk.Assessment]{Result: &risk.Assessment{RiskLevel: risk.LevelLow}},
		Patterns:        analysis.Section[*patterns.Report]{Err: &analysis.SectionError{Message: "detector offline"}},
		Network:         analysis.Section[*network.Metrics]{Result: &network.Metrics{}},
		Partial:         true,
	}
	srv, _ := newTestServer(t, &stubAnalyzer{report: report})

	resp, body := get(t, srv.URL+"/investigations/x/comprehensive-analysis")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"patterns":{"error":"detector offline"}`)
}

func TestConcurrentRequestsAreCoalesced(t *testing.T) {
	stub := &stubAnalyzer{started: make(chan struct{}, 1), release: make(chan struct{})}
	srv, reg := newTestServer(t, stub)
	url := srv.URL + "/investigations/same/risk-score"

	var wg sync.WaitGroup
	codes := make([]int, 2)
	fire := func(i int) {
		defer wg.Done()
		resp, _ := get(t, url)
		codes[i] = resp.StatusCode
	}

	wg.Add(1)
	go fire(0)
	<-stub.started
	wg.Add(1)
	go fire(1)
	time.Sleep(100 * time.Millisecond)
	close(stub.release)
	wg.Wait()

	assert.Equal(t, []int{http.StatusOK, http.StatusOK}, codes)
	assert.Equal(t, int32(1), stub.calls.Load())

	var m dto.Metric
	require.NoError(t, reg.HTTPCoalescedTotal.WithLabelValues(opRiskScore).Write(&m))
	assert.Equal(t, 1.0, m.Counter.GetValue())
}

func TestOperationalEndpoints(t *testing.T) {
	hc := health.NewHealthChecker(0)
	hc.RegisterCheck("source", health.SourceCheck(source.NewMemorySource()))
	reg := metrics.NewRegistry()
	srv := httptest.NewServer(NewServer(realService(), hc, reg, logging.NewNopLogger(), Options{}).Handler())
	t.Cleanup(srv.Close)

	resp, body := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"source"`)

	resp, body = get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "agrorisk_http_requests_total"), "exposition should list the HTTP counter")

	resp, body = get(t, srv.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, decodeError(t, body).Code)
}
