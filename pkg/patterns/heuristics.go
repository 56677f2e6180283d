package patterns

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dd0wney/agrorisk/pkg/algorithms"
	"github.com/dd0wney/agrorisk/pkg/entities"
	"github.com/dd0wney/agrorisk/pkg/graph"
	"github.com/dd0wney/agrorisk/pkg/risk"
)

// Thresholds of the heuristics.
const (
	sameAddressMin      = 5
	sameAddressCritical = 10

	lowCapitalLimit   = 10_000.0
	lowCapitalWindow  = 30 * 24 * time.Hour
	lowCapitalHighMin = 5

	inactiveRatioMin      = 0.4
	inactiveRatioCritical = 0.7

	sharedActivityMin  = 5
	sharedActivityHigh = 10

	sameCityMin = 15

	areaOutlierZ   = 3.0
	areaOutlierMin = 3

	weekendMedium = 3

	sameDayMin = 5
)

// group collects node ids under a key, keeping insertion order of keys.
type group struct {
	keys    []string
	members map[string][]string
}

func newGroup() *group {
	return &group{members: make(map[string][]string)}
}

func (g *group) add(key, id string) {
	if _, ok := g.members[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.members[key] = append(g.members[key], id)
}

// sorted returns the keys in ascending order.
func (g *group) sorted() []string {
	keys := append([]string(nil), g.keys...)
	sort.Strings(keys)
	return keys
}

func companyNode(c *entities.Company) string {
	return graph.NodeID(graph.NodeCompany, c.ID)
}

func propertyNode(p *entities.Property) string {
	return graph.NodeID(graph.NodeProperty, p.ID)
}

func sortedIDs(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

// sameAddress flags five or more companies registered at one normalized
// address.
func sameAddress(in *input) []Pattern {
	byAddress := newGroup()
	lowCapital := make(map[string]bool)
	missing := 0
	for i := range in.snap.Companies {
		c := &in.snap.Companies[i]
		key := entities.NormalizeAddress(c.Address)
		if key == "" {
			missing++
			continue
		}
		byAddress.add(key, companyNode(c))
		if c.Capital > 0 && c.Capital < lowCapitalLimit {
			lowCapital[companyNode(c)] = true
		}
	}
	if missing > 0 {
		in.warnings.Add("laranja_same_address", "%d empresa(s) sem endereço", missing)
	}

	var out []Pattern
	for _, key := range byAddress.sorted() {
		ids := byAddress.members[key]
		n := len(ids)
		if n < sameAddressMin {
			continue
		}
		low := 0
		for _, id := range ids {
			if lowCapital[id] {
				low++
			}
		}
		severity := risk.SeverityHigh
		if n >= sameAddressCritical {
			severity = risk.SeverityCritical
		}
		out = append(out, Pattern{
			Type:        TypeLaranjaSameAddress,
			Confidence:  round2(math.Min(0.95, 0.5+0.05*float64(n))),
			Description: fmt.Sprintf("%d empresas registradas no mesmo endereço (%s)", n, key),
			Severity:    severity,
			Entities:    sortedIDs(ids),
			Evidence: map[string]any{
				"address":           key,
				"company_count":     n,
				"low_capital_count": low,
			},
		})
	}
	return out
}

// lowCapital chains companies with capital under R$10,000 whose opening
// dates are at most 30 days apart.
func lowCapital(in *input) []Pattern {
	type opening struct {
		id   string
		date time.Time
	}
	var openings []opening
	undated := 0
	for i := range in.snap.Companies {
		c := &in.snap.Companies[i]
		if c.Capital <= 0 || c.Capital >= lowCapitalLimit {
			continue
		}
		if c.OpenDate == nil {
			undated++
			continue
		}
		openings = append(openings, opening{companyNode(c), *c.OpenDate})
	}
	if undated > 0 {
		in.warnings.Add("laranja_low_capital", "%d empresa(s) de baixo capital sem data de abertura", undated)
	}

	sort.Slice(openings, func(i, j int) bool {
		if !openings[i].date.Equal(openings[j].date) {
			return openings[i].date.Before(openings[j].date)
		}
		return openings[i].id < openings[j].id
	})

	var out []Pattern
	emit := func(chain []opening) {
		n := len(chain)
		if n < 2 {
			return
		}
		ids := make([]string, n)
		for i, o := range chain {
			ids[i] = o.id
		}
		severity := risk.SeverityMedium
		if n >= lowCapitalHighMin {
			severity = risk.SeverityHigh
		}
		first, last := chain[0].date, chain[n-1].date
		out = append(out, Pattern{
			Type:       TypeLaranjaLowCapital,
			Confidence: round2(math.Min(0.9, 0.5+0.1*float64(n))),
			Description: fmt.Sprintf("%d empresas com capital inferior a R$ 10.000 abertas em sequência entre %s e %s",
				n, first.Format(time.DateOnly), last.Format(time.DateOnly)),
			Severity: severity,
			Entities: sortedIDs(ids),
			Evidence: map[string]any{
				"company_count": n,
				"first_opening": first.Format(time.DateOnly),
				"last_opening":  last.Format(time.DateOnly),
				"span_days":     int(last.Sub(first).Hours() / 24),
			},
		})
	}

	start := 0
	for i := 1; i <= len(openings); i++ {
		if i < len(openings) && openings[i].date.Sub(openings[i-1].date) <= lowCapitalWindow {
			continue
		}
		emit(openings[start:i])
		start = i
	}
	return out
}

// inactiveNetwork flags a company network where more than 40% of the
// companies with a known status are no longer active.
func inactiveNetwork(in *input) []Pattern {
	var known int
	var inactive []string
	for i := range in.snap.Companies {
		c := &in.snap.Companies[i]
		if !c.HasStatus() {
			continue
		}
		known++
		if c.IsInactive() {
			inactive = append(inactive, companyNode(c))
		}
	}
	if known < len(in.snap.Companies) {
		in.warnings.Add("suspicious_network_inactive", "%d empresa(s) sem situação cadastral",
			len(in.snap.Companies)-known)
	}
	if known < 2 {
		return nil
	}

	ratio := float64(len(inactive)) / float64(known)
	if ratio <= inactiveRatioMin {
		return nil
	}
	severity := risk.SeverityHigh
	if ratio >= inactiveRatioCritical {
		severity = risk.SeverityCritical
	}
	return []Pattern{{
		Type:       TypeNetworkInactive,
		Confidence: round2(math.Min(0.95, ratio)),
		Description: fmt.Sprintf("%d de %d empresas da rede estão inativas (%.0f%%)",
			len(inactive), known, ratio*100),
		Severity: severity,
		Entities: sortedIDs(inactive),
		Evidence: map[string]any{
			"inactive_count": len(inactive),
			"known_count":    known,
			"inactive_ratio": round2(ratio),
		},
	}}
}

// sharedActivity flags five or more companies with the same primary CNAE.
func sharedActivity(in *input) []Pattern {
	byActivity := newGroup()
	for i := range in.snap.Companies {
		c := &in.snap.Companies[i]
		key := entities.Digits(c.PrimaryActivity)
		if key == "" {
			key = entities.FoldText(c.PrimaryActivity)
		}
		if key == "" {
			continue
		}
		byActivity.add(key, companyNode(c))
	}

	var out []Pattern
	for _, key := range byActivity.sorted() {
		ids := byActivity.members[key]
		n := len(ids)
		if n < sharedActivityMin {
			continue
		}
		severity := risk.SeverityMedium
		if n >= sharedActivityHigh {
			severity = risk.SeverityHigh
		}
		out = append(out, Pattern{
			Type:        TypeNetworkSharedActivity,
			Confidence:  round2(math.Min(0.9, 0.5+0.05*float64(n))),
			Description: fmt.Sprintf("%d empresas com a mesma atividade principal (CNAE %s)", n, key),
			Severity:    severity,
			Entities:    sortedIDs(ids),
			Evidence: map[string]any{
				"activity":      key,
				"company_count": n,
			},
		})
	}
	return out
}

// circularTransactions reports every distinct directed cycle of the
// ownership and partnership subgraph.
func circularTransactions(in *input) []Pattern {
	sub := in.graph.Filter(graph.EdgeOwns, graph.EdgePartnerIn)

	maxCycles := in.opts.MaxCycles
	if maxCycles < 0 {
		maxCycles = 0
	}
	cycles := algorithms.DetectCycles(sub, algorithms.CycleDetectionOptions{MaxCycles: maxCycles})
	if maxCycles > 0 && len(cycles) == maxCycles {
		in.warnings.Add("circular_transaction", "limite de %d ciclos atingido", maxCycles)
	}

	out := make([]Pattern, 0, len(cycles))
	for _, c := range cycles {
		path := append(append([]string(nil), c...), c[0])
		out = append(out, Pattern{
			Type:        TypeCircularTransaction,
			Confidence:  round2(math.Max(0.6, 0.95-0.05*float64(len(c)-2))),
			Description: fmt.Sprintf("Ciclo de participação/propriedade entre %d entidades", len(c)),
			Severity:    risk.SeverityCritical,
			Entities:    append([]string(nil), c...),
			Evidence: map[string]any{
				"path":   strings.Join(path, " -> "),
				"length": len(c),
			},
		})
	}
	return out
}

// sameCity flags fifteen or more properties in one municipality.
func sameCity(in *input) []Pattern {
	byCity := newGroup()
	missing := 0
	for i := range in.snap.Properties {
		p := &in.snap.Properties[i]
		key := entities.LocationKey(p.City, p.State)
		if key == "" {
			missing++
			continue
		}
		byCity.add(key, propertyNode(p))
	}
	if missing > 0 {
		in.warnings.Add("concentration_same_city", "%d imóvel(is) sem município", missing)
	}

	var out []Pattern
	for _, key := range byCity.sorted() {
		ids := byCity.members[key]
		n := len(ids)
		if n < sameCityMin {
			continue
		}
		out = append(out, Pattern{
			Type:        TypeConcentrationSameCity,
			Confidence:  round2(math.Min(0.95, 0.6+0.02*float64(n-sameCityMin))),
			Description: fmt.Sprintf("%d imóveis concentrados em %s", n, key),
			Severity:    risk.SeverityHigh,
			Entities:    sortedIDs(ids),
			Evidence: map[string]any{
				"location":       key,
				"property_count": n,
			},
		})
	}
	return out
}

// areaOutliers flags properties whose area lies more than three population
// standard deviations above the mean.
func areaOutliers(in *input) []Pattern {
	var props []*entities.Property
	for i := range in.snap.Properties {
		if p := &in.snap.Properties[i]; p.AreaHectares > 0 {
			props = append(props, p)
		}
	}
	if len(props) < areaOutlierMin {
		if len(in.snap.Properties) > 0 {
			in.warnings.Add("concentration_area_outlier", "menos de %d imóveis com área informada", areaOutlierMin)
		}
		return nil
	}

	var sum float64
	for _, p := range props {
		sum += p.AreaHectares
	}
	mean := sum / float64(len(props))
	var ss float64
	for _, p := range props {
		d := p.AreaHectares - mean
		ss += d * d
	}
	std := math.Sqrt(ss / float64(len(props)))
	if std == 0 || math.IsNaN(std) || math.IsInf(std, 0) {
		return nil
	}

	sort.SliceStable(props, func(i, j int) bool { return props[i].ID < props[j].ID })
	var out []Pattern
	for _, p := range props {
		z := (p.AreaHectares - mean) / std
		if z <= areaOutlierZ {
			continue
		}
		out = append(out, Pattern{
			Type:        TypeAreaOutlier,
			Confidence:  round2(math.Min(0.95, 0.5+0.1*z)),
			Description: fmt.Sprintf("Imóvel %s com área de %.0f ha, muito acima da média de %.0f ha", firstNonEmpty(p.Name, p.ID), p.AreaHectares, mean),
			Severity:    risk.SeverityMedium,
			Entities:    []string{propertyNode(p)},
			Evidence: map[string]any{
				"area_hectares": p.AreaHectares,
				"mean_hectares": round2(mean),
				"std_hectares":  round2(std),
				"z_score":       round2(z),
			},
		})
	}
	return out
}

// weekendOpenings aggregates companies opened on a Saturday or Sunday.
func weekendOpenings(in *input) []Pattern {
	var ids []string
	for i := range in.snap.Companies {
		c := &in.snap.Companies[i]
		if c.OpenDate == nil {
			continue
		}
		if wd := c.OpenDate.Weekday(); wd == time.Saturday || wd == time.Sunday {
			ids = append(ids, companyNode(c))
		}
	}
	if len(ids) == 0 {
		return nil
	}
	severity := risk.SeverityLow
	if len(ids) >= weekendMedium {
		severity = risk.SeverityMedium
	}
	return []Pattern{{
		Type:        TypeWeekendOpening,
		Confidence:  0.6,
		Description: fmt.Sprintf("%d empresa(s) aberta(s) em fim de semana", len(ids)),
		Severity:    severity,
		Entities:    sortedIDs(ids),
		Evidence:    map[string]any{"company_count": len(ids)},
	}}
}

// sameDayOpenings flags five or more companies opened on the same date.
func sameDayOpenings(in *input) []Pattern {
	byDay := newGroup()
	for i := range in.snap.Companies {
		c := &in.snap.Companies[i]
		if c.OpenDate == nil {
			continue
		}
		byDay.add(c.OpenDate.Format(time.DateOnly), companyNode(c))
	}

	var out []Pattern
	for _, day := range byDay.sorted() {
		ids := byDay.members[day]
		n := len(ids)
		if n < sameDayMin {
			continue
		}
		out = append(out, Pattern{
			Type:        TypeSameDayOpening,
			Confidence:  round2(math.Min(0.95, 0.7+0.05*float64(n-sameDayMin))),
			Description: fmt.Sprintf("%d empresas abertas no mesmo dia (%s)", n, day),
			Severity:    risk.SeverityHigh,
			Entities:    sortedIDs(ids),
			Evidence: map[string]any{
				"date":          day,
				"company_count": n,
			},
		})
	}
	return out
}

// duplicateRelations reports edges collapsed from repeated relations, which
// usually means the same link was registered more than once.
func duplicateRelations(in *input) []Pattern {
	var out []Pattern
	for _, e := range in.graph.Edges() {
		if e.Count < 2 {
			continue
		}
		out = append(out, Pattern{
			Type:        TypeDuplicateRelation,
			Confidence:  0.5,
			Description: fmt.Sprintf("Relação %s entre %s e %s registrada %d vezes", e.Type, e.Source, e.Target, e.Count),
			Severity:    risk.SeverityLow,
			Entities:    []string{e.Source, e.Target},
			Evidence: map[string]any{
				"relation_type": string(e.Type),
				"count":         e.Count,
				"weight":        e.Weight,
			},
		})
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
