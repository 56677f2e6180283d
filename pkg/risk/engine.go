package risk

import (
	"math"

	"github.com/dd0wney/agrorisk/pkg/entities"
	"github.com/dd0wney/agrorisk/pkg/logging"
	"github.com/dd0wney/agrorisk/pkg/validation"
)

const (
	// MinConfidence is the confidence floor when every indicator lacked data.
	MinConfidence = 0.3

	manualReviewRecommendation = "Recomenda-se revisão manual por analista antes de qualquer decisão"
	monitoringRecommendation   = "Manter monitoramento periódico; nenhum indicador em nível alto ou crítico"
)

// Engine scores snapshots. It holds no per-run state and is safe for
// concurrent use.
type Engine struct {
	logger logging.Logger
}

// NewEngine creates a scoring engine. A nil logger discards output.
func NewEngine(logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Engine{logger: logger.With(logging.Component("risk"))}
}

// Score computes the risk assessment of snap. Missing data lowers the
// confidence and adds a warning; a malformed snapshot returns a
// *validation.ValidationError.
//
// The risk level is the bucket of the total score, raised to high when one
// indicator is critical and to critical when two or more are.
func (e *Engine) Score(snap *entities.Snapshot) (*Assessment, error) {
	if err := validation.ValidateSnapshot(snap); err != nil {
		return nil, err
	}

	a := &Assessment{
		InvestigationID:  snap.InvestigationID,
		Indicators:       make([]Indicator, 0, len(rules)),
		PatternsDetected: make([]string, 0),
		Recommendations:  make([]string, 0),
		Timestamp:        snap.CapturedAt,
	}

	var (
		warnings   validation.Warnings
		values     = make([]float64, 0, len(rules))
		incomplete int
	)
	for _, rule := range rules {
		r := rule.compute(snap)
		ind := Indicator{
			Name:        rule.name,
			Value:       round2(r.value),
			Weight:      rule.weight,
			Description: r.description,
			Severity:    SeverityFromValue(r.value),
			incomplete:  r.incomplete,
		}
		a.Indicators = append(a.Indicators, ind)

		values = append(values, r.value)
		if r.incomplete {
			incomplete++
			if r.warning != "" {
				warnings.Add(rule.name, "%s", r.warning)
			}
		}
		if ind.Severity.AtLeastHigh() {
			a.PatternsDetected = append(a.PatternsDetected, r.finding)
			a.Recommendations = append(a.Recommendations, rule.recommendation)
		}

		e.logger.Debug("indicator computed",
			logging.InvestigationID(snap.InvestigationID),
			logging.String("indicator", rule.name),
			logging.Float64("value", ind.Value),
			logging.Bool("incomplete", r.incomplete),
		)
	}

	a.TotalScore, a.RiskLevel = combine(values)
	a.Confidence = round2(math.Max(MinConfidence, 1-float64(incomplete)/float64(len(rules))))

	switch {
	case a.RiskLevel.Rank() >= LevelHigh.Rank():
		a.Recommendations = append(a.Recommendations, manualReviewRecommendation)
	case len(a.Recommendations) == 0:
		a.Recommendations = append(a.Recommendations, monitoringRecommendation)
	}
	if len(warnings) > 0 {
		a.Warnings = warnings.Strings()
	}

	e.logger.Info("risk assessment computed",
		logging.InvestigationID(snap.InvestigationID),
		logging.Float64("total_score", a.TotalScore),
		logging.String("risk_level", string(a.RiskLevel)),
		logging.Float64("confidence", a.Confidence),
	)
	return a, nil
}

// combine weighs indicator values (in rule order) into the rounded total
// score and the risk level.
func combine(values []float64) (float64, Level) {
	total := 0.0
	critical := 0
	for i, v := range values {
		total += v * rules[i].weight
		if SeverityFromValue(v) == SeverityCritical {
			critical++
		}
	}
	total = round2(math.Min(100, math.Max(0, total)))
	return total, maxLevel(LevelFromScore(total), escalation(critical))
}

// escalation is the minimum level implied by critical indicators.
func escalation(critical int) Level {
	switch {
	case critical >= 2:
		return LevelCritical
	case critical == 1:
		return LevelHigh
	default:
		return LevelVeryLow
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
