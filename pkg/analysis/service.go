package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dd0wney/agrorisk/pkg/entities"
	"github.com/dd0wney/agrorisk/pkg/graph"
	"github.com/dd0wney/agrorisk/pkg/logging"
	"github.com/dd0wney/agrorisk/pkg/metrics"
	"github.com/dd0wney/agrorisk/pkg/network"
	"github.com/dd0wney/agrorisk/pkg/patterns"
	"github.com/dd0wney/agrorisk/pkg/risk"
	"github.com/dd0wney/agrorisk/pkg/source"
	"github.com/dd0wney/agrorisk/pkg/validation"
)

// DefaultTimeout bounds one analysis request, snapshot fetch included.
const DefaultTimeout = 15 * time.Second

// Analysis names used in logs and metric labels.
const (
	AnalysisRisk          = "risk"
	AnalysisPatterns      = "patterns"
	AnalysisNetwork       = "network"
	AnalysisComprehensive = "comprehensive"
)

// RiskScorer scores a snapshot.
type RiskScorer interface {
	Score(snap *entities.Snapshot) (*risk.Assessment, error)
}

// PatternDetector finds fraud patterns in a snapshot and its graph.
type PatternDetector interface {
	Detect(snap *entities.Snapshot, g *graph.Graph) (*patterns.Report, error)
}

// NetworkAnalyzer computes the structural metrics of a graph.
type NetworkAnalyzer interface {
	Analyze(ctx context.Context, g *graph.Graph) (*network.Metrics, error)
}

// Config tunes the service.
type Config struct {
	Timeout  time.Duration
	Patterns patterns.Options
	Network  network.Options
}

// Service runs analyses for investigations fetched from a source. It holds
// no per-investigation state; every call works on a fresh snapshot.
type Service struct {
	source  source.Source
	cfg     Config
	logger  logging.Logger
	metrics *metrics.Registry

	risk     RiskScorer
	patterns PatternDetector
	network  NetworkAnalyzer
}

// NewService creates a service over src. A nil logger discards output and a
// nil registry records into the default one.
func NewService(src source.Source, cfg Config, logger logging.Logger, reg *metrics.Registry) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	logger = logger.With(logging.Component("analysis"))
	return &Service{
		source:   src,
		cfg:      cfg,
		logger:   logger,
		metrics:  reg,
		risk:     risk.NewEngine(logger),
		patterns: patterns.NewDetector(logger, cfg.Patterns),
		network:  network.NewAnalyzer(logger, cfg.Network),
	}
}

// RiskScore returns the risk assessment of one investigation.
func (s *Service) RiskScore(ctx context.Context, id string) (*risk.Assessment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	snap, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return await(ctx, s.launchRisk(ctx, snap))
}

// Patterns returns the fraud patterns found in one investigation.
func (s *Service) Patterns(ctx context.Context, id string) (*patterns.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	snap, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	g, err := s.buildGraph(snap)
	if err != nil {
		return nil, err
	}
	return await(ctx, s.launchPatterns(ctx, snap, g))
}

// Network returns the network metrics of one investigation.
func (s *Service) Network(ctx context.Context, id string) (*network.Metrics, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	snap, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	g, err := s.buildGraph(snap)
	if err != nil {
		return nil, err
	}
	return await(ctx, s.launchNetwork(ctx, g))
}

// Comprehensive fetches one snapshot, builds its graph once and runs the
// three analyses concurrently against it. A section that fails or is still
// running at the deadline is replaced by an error marker and the report is
// flagged partial. An error is returned only when the snapshot cannot be
// fetched or when every section failed.
func (s *Service) Comprehensive(ctx context.Context, id string) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	start := time.Now()

	snap, err := s.fetch(ctx, id)
	if err != nil {
		s.metrics.RecordAnalysis(AnalysisComprehensive, status(err), time.Since(start))
		return nil, err
	}

	g, graphErr := s.buildGraph(snap)

	riskCh := s.launchRisk(ctx, snap)
	var (
		patternsCh <-chan outcome[*patterns.Report]
		networkCh  <-chan outcome[*network.Metrics]
	)
	if graphErr == nil {
		patternsCh = s.launchPatterns(ctx, snap, g)
		networkCh = s.launchNetwork(ctx, g)
	}

	riskResult, riskErr := await(ctx, riskCh)
	report := &Report{
		InvestigationID: snap.InvestigationID,
		Timestamp:       snap.CapturedAt,
		RiskAssessment:  section(riskResult, riskErr),
	}
	if graphErr != nil {
		report.Patterns = section[*patterns.Report](nil, graphErr)
		report.Network = section[*network.Metrics](nil, graphErr)
	} else {
		found, err := await(ctx, patternsCh)
		report.Patterns = section(found, err)
		metricsResult, err := await(ctx, networkCh)
		report.Network = section(metricsResult, err)
		report.Warnings = g.Warnings().Strings()
	}
	report.OverallAssessment = overall(report.RiskAssessment, report.Patterns)

	failed := s.logFailures(snap.InvestigationID, map[string]*SectionError{
		AnalysisRisk:     report.RiskAssessment.Err,
		AnalysisPatterns: report.Patterns.Err,
		AnalysisNetwork:  report.Network.Err,
	})
	if failed == 3 {
		s.metrics.RecordAnalysis(AnalysisComprehensive, status(riskErr), time.Since(start))
		return nil, fmt.Errorf("comprehensive analysis of %s: %w", id, riskErr)
	}
	if failed > 0 {
		report.Partial = true
		s.metrics.RecordPartialReport()
	}

	s.metrics.RecordAnalysis(AnalysisComprehensive, metrics.StatusSuccess, time.Since(start))
	s.logger.Info("comprehensive analysis completed",
		logging.InvestigationID(snap.InvestigationID),
		logging.String("risk_level", string(report.OverallAssessment.RiskLevel)),
		logging.Int("critical_alerts", report.OverallAssessment.CriticalAlerts),
		logging.Bool("partial", report.Partial),
		logging.Latency(time.Since(start)),
	)
	return report, nil
}

func (s *Service) logFailures(id string, sections map[string]*SectionError) int {
	failed := 0
	for _, name := range []string{AnalysisRisk, AnalysisPatterns, AnalysisNetwork} {
		serr := sections[name]
		if serr == nil {
			continue
		}
		failed++
		s.logger.Warn("analysis section failed",
			logging.InvestigationID(id),
			logging.Analysis(name),
			logging.Bool("timed_out", serr.TimedOut),
			logging.String("error", serr.Message),
		)
	}
	return failed
}

func (s *Service) fetch(ctx context.Context, id string) (*entities.Snapshot, error) {
	start := time.Now()
	snap, err := s.source.Snapshot(ctx, id)
	if err != nil {
		s.metrics.RecordSnapshotFetch(s.source.Name(), status(err), time.Since(start), 0)
		return nil, fmt.Errorf("fetch snapshot %s: %w", id, err)
	}
	s.metrics.RecordSnapshotFetch(s.source.Name(), metrics.StatusSuccess, time.Since(start), snap.EntityCount())
	return snap, nil
}

// buildGraph validates snap before building its graph so a malformed
// snapshot fails with the same error every analysis would report.
func (s *Service) buildGraph(snap *entities.Snapshot) (*graph.Graph, error) {
	if err := validation.ValidateSnapshot(snap); err != nil {
		return nil, err
	}
	g, err := graph.Build(snap)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	s.metrics.RecordGraph(g.NodeCount(), g.EdgeCount(), len(g.Warnings()))
	return g, nil
}

func (s *Service) launchRisk(ctx context.Context, snap *entities.Snapshot) <-chan outcome[*risk.Assessment] {
	return launchAs(ctx, s, AnalysisRisk, func() (*risk.Assessment, error) {
		a, err := s.risk.Score(snap)
		if err == nil {
			s.metrics.RecordRisk(string(a.RiskLevel), a.TotalScore)
		}
		return a, err
	})
}

func (s *Service) launchPatterns(ctx context.Context, snap *entities.Snapshot, g *graph.Graph) <-chan outcome[*patterns.Report] {
	return launchAs(ctx, s, AnalysisPatterns, func() (*patterns.Report, error) {
		r, err := s.patterns.Detect(snap, g)
		if err == nil {
			for _, p := range r.Patterns {
				s.metrics.RecordPattern(string(p.Type), string(p.Severity))
			}
		}
		return r, err
	})
}

func (s *Service) launchNetwork(ctx context.Context, g *graph.Graph) <-chan outcome[*network.Metrics] {
	return launchAs(ctx, s, AnalysisNetwork, func() (*network.Metrics, error) {
		return s.network.Analyze(ctx, g)
	})
}

type outcome[T any] struct {
	value T
	err   error
}

// launchAs runs fn on its own goroutine and delivers its outcome on a
// buffered channel, so an abandoned run never blocks. A panic becomes the
// run's error. A run that finishes after ctx ended is recorded as a timeout.
func launchAs[T any](ctx context.Context, s *Service, name string, fn func() (T, error)) <-chan outcome[T] {
	ch := make(chan outcome[T], 1)
	go func() {
		start := time.Now()
		var out outcome[T]
		defer func() {
			if r := recover(); r != nil {
				out = outcome[T]{err: fmt.Errorf("%s analysis panicked: %v", name, r)}
			}
			st := status(out.err)
			if ctx.Err() != nil {
				st = metrics.StatusTimeout
			}
			s.metrics.RecordAnalysis(name, st, time.Since(start))
			ch <- out
		}()
		out.value, out.err = fn()
	}()
	return ch
}

// await waits for an outcome or the end of ctx, whichever comes first.
func await[T any](ctx context.Context, ch <-chan outcome[T]) (T, error) {
	select {
	case out := <-ch:
		return out.value, out.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("analysis interrupted: %w", ctx.Err())
	}
}

func section[T any](value T, err error) Section[T] {
	if err == nil {
		return Section[T]{Result: value}
	}
	return Section[T]{Err: &SectionError{
		Message:  err.Error(),
		TimedOut: errors.Is(err, context.DeadlineExceeded),
	}}
}

func status(err error) string {
	switch {
	case err == nil:
		return metrics.StatusSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.StatusTimeout
	default:
		return metrics.StatusError
	}
}
