// Package analysis orchestrates the risk, pattern and network analyses of
// one investigation over a single snapshot and merges them into the
// comprehensive report.
package analysis

import (
	"encoding/json"
	"time"

	"github.com/dd0wney/agrorisk/pkg/network"
	"github.com/dd0wney/agrorisk/pkg/patterns"
	"github.com/dd0wney/agrorisk/pkg/risk"
)

// Assessment labels of the overall assessment.
const (
	AssessmentHigh          = "ALTO RISCO"
	AssessmentModerate      = "RISCO MODERADO"
	AssessmentLow           = "BAIXO RISCO"
	AssessmentIndeterminate = "INDETERMINADO"
)

// SectionError marks a report section whose analysis failed or did not
// finish before the deadline.
type SectionError struct {
	Message  string `json:"error"`
	TimedOut bool   `json:"timed_out,omitempty"`
}

func (e *SectionError) Error() string { return e.Message }

// Section holds either the result of one analysis or its error marker.
type Section[T any] struct {
	Result T
	Err    *SectionError
}

// OK reports whether the analysis produced a result.
func (s Section[T]) OK() bool { return s.Err == nil }

// MarshalJSON emits the result, or the error marker in its place.
func (s Section[T]) MarshalJSON() ([]byte, error) {
	if s.Err != nil {
		return json.Marshal(s.Err)
	}
	return json.Marshal(s.Result)
}

// Overall is the summary derived from the three sections.
type Overall struct {
	Assessment           string     `json:"assessment"`
	Color                string     `json:"color"`
	RiskLevel            risk.Level `json:"risk_level"`
	RiskScore            float64    `json:"risk_score"`
	CriticalAlerts       int        `json:"critical_alerts"`
	RequiresManualReview bool       `json:"requires_manual_review"`
}

// Report is the comprehensive analysis of one investigation.
type Report struct {
	InvestigationID   string                    `json:"investigation_id"`
	Timestamp         time.Time                 `json:"timestamp"`
	RiskAssessment    Section[*risk.Assessment] `json:"risk_assessment"`
	Patterns          Section[*patterns.Report] `json:"patterns"`
	Network           Section[*network.Metrics] `json:"network_analysis"`
	OverallAssessment Overall                   `json:"overall_assessment"`
	Partial           bool                      `json:"partial"`
	Warnings          []string                  `json:"warnings,omitempty"`
}

// overall derives the overall assessment. A failed risk section gives the
// unknown level; a failed pattern section contributes no alerts.
func overall(r Section[*risk.Assessment], p Section[*patterns.Report]) Overall {
	o := Overall{RiskLevel: risk.LevelUnknown}
	if r.OK() {
		o.RiskLevel = r.Result.RiskLevel
		o.RiskScore = r.Result.TotalScore
	}
	o.Assessment, o.Color = label(o.RiskLevel)

	if p.OK() {
		o.CriticalAlerts = p.Result.CriticalPatterns
	}
	if o.RiskLevel == risk.LevelHigh || o.RiskLevel == risk.LevelCritical {
		o.CriticalAlerts++
	}
	o.RequiresManualReview = o.CriticalAlerts >= 1 || o.RiskLevel == risk.LevelCritical
	return o
}

func label(level risk.Level) (assessment, color string) {
	switch level {
	case risk.LevelCritical:
		return AssessmentHigh, "red"
	case risk.LevelHigh:
		return AssessmentHigh, "orange"
	case risk.LevelMedium:
		return AssessmentModerate, "yellow"
	case risk.LevelLow, risk.LevelVeryLow:
		return AssessmentLow, "green"
	default:
		return AssessmentIndeterminate, "gray"
	}
}
