// Package patterns runs independent heuristics over an investigation snapshot
// and its relationship graph to flag suspicious configurations: laranja
// (nominee) company farms, circular ownership, geographic concentration and
// temporal anomalies.
package patterns

import "github.com/dd0wney/agrorisk/pkg/risk"

// Type identifies the heuristic that produced a pattern.
type Type string

const (
	TypeLaranjaSameAddress    Type = "laranja_same_address"
	TypeLaranjaLowCapital     Type = "laranja_low_capital"
	TypeNetworkInactive       Type = "suspicious_network_inactive"
	TypeNetworkSharedActivity Type = "suspicious_network_shared_activity"
	TypeCircularTransaction   Type = "circular_transaction"
	TypeConcentrationSameCity Type = "concentration_same_city"
	TypeAreaOutlier           Type = "concentration_area_outlier"
	TypeWeekendOpening        Type = "temporal_weekend_opening"
	TypeSameDayOpening        Type = "temporal_same_day_opening"
	TypeDuplicateRelation     Type = "duplicate_relation"
)

// Pattern is one finding. Entities holds graph node ids.
type Pattern struct {
	Type        Type           `json:"type"`
	Confidence  float64        `json:"confidence"`
	Description string         `json:"description"`
	Severity    risk.Severity  `json:"severity"`
	Entities    []string       `json:"entities"`
	Evidence    map[string]any `json:"evidence"`
}

// Report is the output of one detection run.
type Report struct {
	Patterns         []Pattern `json:"patterns"`
	TotalPatterns    int       `json:"total_patterns"`
	CriticalPatterns int       `json:"critical_patterns"`
	Warnings         []string  `json:"warnings,omitempty"`
}

// OfType returns the patterns of type t in detection order.
func (r *Report) OfType(t Type) []Pattern {
	var out []Pattern
	for _, p := range r.Patterns {
		if p.Type == t {
			out = append(out, p)
		}
	}
	return out
}
