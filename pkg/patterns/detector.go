package patterns

import (
	"fmt"
	"math"
	"runtime/debug"

	"github.com/dd0wney/agrorisk/pkg/entities"
	"github.com/dd0wney/agrorisk/pkg/graph"
	"github.com/dd0wney/agrorisk/pkg/logging"
	"github.com/dd0wney/agrorisk/pkg/risk"
	"github.com/dd0wney/agrorisk/pkg/validation"
)

// DefaultMaxCycles caps the circular_transaction patterns of one run.
const DefaultMaxCycles = 500

// Options tunes the detector.
type Options struct {
	// MaxCycles bounds the cycles reported; 0 means DefaultMaxCycles and a
	// negative value means unlimited.
	MaxCycles int
}

// input is what every heuristic reads. Heuristics must not modify it, apart
// from appending to warnings.
type input struct {
	snap     *entities.Snapshot
	graph    *graph.Graph
	opts     Options
	warnings *validation.Warnings
}

type heuristic struct {
	name string
	run  func(in *input) []Pattern
}

// Detector runs the pattern heuristics. It is stateless between runs and
// safe for concurrent use.
type Detector struct {
	logger     logging.Logger
	opts       Options
	heuristics []heuristic
}

// NewDetector creates a detector with every heuristic enabled. A nil logger
// discards output.
func NewDetector(logger logging.Logger, opts Options) *Detector {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	opts.MaxCycles = validation.DefaultOr(opts.MaxCycles, DefaultMaxCycles)
	return &Detector{
		logger: logger.With(logging.Component("patterns")),
		opts:   opts,
		heuristics: []heuristic{
			{"laranja_same_address", sameAddress},
			{"laranja_low_capital", lowCapital},
			{"suspicious_network_inactive", inactiveNetwork},
			{"suspicious_network_shared_activity", sharedActivity},
			{"circular_transaction", circularTransactions},
			{"concentration_same_city", sameCity},
			{"concentration_area_outlier", areaOutliers},
			{"temporal_weekend_opening", weekendOpenings},
			{"temporal_same_day_opening", sameDayOpenings},
			{"duplicate_relation", duplicateRelations},
		},
	}
}

// Detect runs every heuristic over snap and g and concatenates their
// patterns in heuristic order. g may be nil, in which case it is built from
// snap. A heuristic that fails is logged and skipped; the others still run.
// A malformed snapshot returns a *validation.ValidationError.
func (d *Detector) Detect(snap *entities.Snapshot, g *graph.Graph) (*Report, error) {
	if err := validation.ValidateSnapshot(snap); err != nil {
		return nil, err
	}
	if g == nil {
		var err error
		if g, err = graph.Build(snap); err != nil {
			return nil, err
		}
	}

	var warnings validation.Warnings
	in := &input{snap: snap, graph: g, opts: d.opts, warnings: &warnings}
	report := &Report{Patterns: make([]Pattern, 0)}

	for _, h := range d.heuristics {
		found, err := d.run(h, in)
		if err != nil {
			d.logger.Error("heuristic failed",
				logging.InvestigationID(snap.InvestigationID),
				logging.Heuristic(h.name),
				logging.Error(err),
			)
			warnings.Add(h.name, "heurística ignorada: %v", err)
			continue
		}
		report.Patterns = append(report.Patterns, found...)
	}

	report.TotalPatterns = len(report.Patterns)
	for _, p := range report.Patterns {
		if p.Severity == risk.SeverityCritical {
			report.CriticalPatterns++
		}
	}
	if len(warnings) > 0 {
		report.Warnings = warnings.Strings()
	}

	d.logger.Info("pattern detection completed",
		logging.InvestigationID(snap.InvestigationID),
		logging.Count(report.TotalPatterns),
		logging.Int("critical", report.CriticalPatterns),
	)
	return report, nil
}

// run executes one heuristic, turning a panic into an error.
func (d *Detector) run(h heuristic, in *input) (found []Pattern, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Debug("heuristic panic stack",
				logging.Heuristic(h.name),
				logging.String("stack", string(debug.Stack())),
			)
			found, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return h.run(in), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
