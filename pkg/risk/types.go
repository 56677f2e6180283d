// Package risk scores an investigation snapshot on seven weighted indicators
// and combines them into a 0-100 score, a risk level and a confidence.
package risk

import "time"

// Severity grades an indicator or a detected pattern.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SeverityFromValue maps a 0-100 indicator value to its severity:
// <25 low, <50 medium, <75 high, otherwise critical.
func SeverityFromValue(v float64) Severity {
	switch {
	case v < 25:
		return SeverityLow
	case v < 50:
		return SeverityMedium
	case v < 75:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// AtLeastHigh reports whether s is high or critical.
func (s Severity) AtLeastHigh() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// Level is the bucketed overall risk.
type Level string

const (
	LevelVeryLow  Level = "very_low"
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
	// LevelUnknown is used by callers when no assessment could be produced.
	LevelUnknown Level = "unknown"
)

var levelRank = map[Level]int{
	LevelUnknown:  -1,
	LevelVeryLow:  0,
	LevelLow:      1,
	LevelMedium:   2,
	LevelHigh:     3,
	LevelCritical: 4,
}

// Rank orders levels from very_low (0) to critical (4); unknown is -1.
func (l Level) Rank() int {
	if r, ok := levelRank[l]; ok {
		return r
	}
	return -1
}

// LevelFromScore buckets a total score: [0,20) very_low, [20,40) low,
// [40,60) medium, [60,80) high, [80,100] critical.
func LevelFromScore(score float64) Level {
	switch {
	case score < 20:
		return LevelVeryLow
	case score < 40:
		return LevelLow
	case score < 60:
		return LevelMedium
	case score < 80:
		return LevelHigh
	default:
		return LevelCritical
	}
}

func maxLevel(a, b Level) Level {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Indicator is one weighted risk factor.
type Indicator struct {
	Name        string   `json:"name"`
	Value       float64  `json:"value"`
	Weight      float64  `json:"weight"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`

	incomplete bool
}

// Incomplete reports whether the indicator was computed without data or with
// required fields missing.
func (i Indicator) Incomplete() bool { return i.incomplete }

// Assessment is the result of scoring one snapshot.
type Assessment struct {
	InvestigationID  string      `json:"investigation_id"`
	TotalScore       float64     `json:"total_score"`
	RiskLevel        Level       `json:"risk_level"`
	Confidence       float64     `json:"confidence"`
	Indicators       []Indicator `json:"indicators"`
	PatternsDetected []string    `json:"patterns_detected"`
	Recommendations  []string    `json:"recommendations"`
	Timestamp        time.Time   `json:"timestamp"`
	Warnings         []string    `json:"warnings,omitempty"`
}

// Indicator returns the indicator with the given name.
func (a *Assessment) Indicator(name string) (Indicator, bool) {
	for _, ind := range a.Indicators {
		if ind.Name == name {
			return ind, true
		}
	}
	return Indicator{}, false
}
