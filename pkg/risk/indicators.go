package risk

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dd0wney/agrorisk/pkg/entities"
)

// Indicator names.
const (
	PropertyConcentration = "property_concentration"
	ContractValue         = "contract_value"
	JudicialIssues        = "judicial_issues"
	CorporateNetwork      = "corporate_network"
	TemporalPatterns      = "temporal_patterns"
	GeographicDispersion  = "geographic_dispersion"
	DataQuality           = "data_quality"
)

// reading is what an indicator rule extracts from a snapshot.
type reading struct {
	value       float64
	description string
	finding     string // patterns_detected text when severity is high or critical
	incomplete  bool
	warning     string
}

type indicatorRule struct {
	name           string
	weight         float64
	recommendation string
	compute        func(snap *entities.Snapshot) reading
}

// rules is the fixed indicator set. Weights sum to exactly 1.0 in this order.
var rules = []indicatorRule{
	{PropertyConcentration, 0.15, "Verificar a cadeia dominial e a regularidade fundiária (CAR/SIGEF) dos imóveis", propertyConcentration},
	{ContractValue, 0.20, "Auditar os contratos de arrendamento e a compatibilidade dos valores com o mercado", contractValue},
	{JudicialIssues, 0.25, "Analisar em detalhe os processos judiciais ativos e eventuais restrições", judicialIssues},
	{CorporateNetwork, 0.15, "Mapear o quadro societário completo e verificar a situação das empresas inativas", corporateNetwork},
	{TemporalPatterns, 0.10, "Investigar a cronologia de abertura das empresas e dos registros recentes de imóveis", temporalPatterns},
	{GeographicDispersion, 0.10, "Validar a presença operacional nos diferentes estados e municípios", geographicDispersion},
	{DataQuality, 0.05, "Complementar os dados cadastrais faltantes antes de qualquer decisão", dataQuality},
}

// Weights returns the indicator weights in evaluation order.
func Weights() map[string]float64 {
	out := make(map[string]float64, len(rules))
	for _, r := range rules {
		out[r.name] = r.weight
	}
	return out
}

// band adds points for the first threshold that v reaches. Thresholds are
// listed from highest to lowest.
func band(v float64, steps ...[2]float64) float64 {
	for _, s := range steps {
		if v >= s[0] {
			return s[1]
		}
	}
	return 0
}

func capped(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}

func propertyConcentration(snap *entities.Snapshot) reading {
	if len(snap.Properties) == 0 {
		return reading{description: "Nenhum imóvel informado", incomplete: true, warning: "no properties"}
	}

	hectares := 0.0
	states := make(map[string]bool)
	missing := 0
	for _, p := range snap.Properties {
		hectares += p.AreaHectares
		if s := entities.FoldText(p.State); s != "" {
			states[s] = true
		}
		if p.AreaHectares == 0 || strings.TrimSpace(p.State) == "" {
			missing++
		}
	}

	count := float64(len(snap.Properties))
	value := band(count, [2]float64{50, 40}, [2]float64{20, 25}, [2]float64{5, 10}) +
		band(hectares, [2]float64{100000, 35}, [2]float64{10000, 20}, [2]float64{1000, 10}) +
		band(float64(len(states)), [2]float64{5, 25}, [2]float64{3, 15}, [2]float64{2, 5})

	r := reading{
		value:       capped(value),
		description: fmt.Sprintf("%d imóveis somando %.1f ha em %d estados", len(snap.Properties), hectares, len(states)),
		finding:     fmt.Sprintf("Concentração de propriedades: %d imóveis somando %.0f ha em %d estados", len(snap.Properties), hectares, len(states)),
	}
	if missing > 0 {
		r.incomplete = true
		r.warning = fmt.Sprintf("%d properties without area or state", missing)
	}
	return r
}

func contractValue(snap *entities.Snapshot) reading {
	if len(snap.LeaseContracts) == 0 {
		return reading{description: "Nenhum contrato de arrendamento informado", incomplete: true, warning: "no lease contracts"}
	}

	total := 0.0
	values := make([]float64, 0, len(snap.LeaseContracts))
	missing := 0
	for _, lc := range snap.LeaseContracts {
		total += lc.Value
		if lc.Value == 0 {
			missing++
			continue
		}
		values = append(values, lc.Value)
	}
	outliers := tukeyOutliers(values)

	count := float64(len(snap.LeaseContracts))
	value := band(total, [2]float64{10_000_000, 40}, [2]float64{1_000_000, 25}, [2]float64{100_000, 10}) +
		band(count, [2]float64{20, 25}, [2]float64{10, 15}, [2]float64{3, 5}) +
		band(float64(outliers), [2]float64{3, 35}, [2]float64{1, 20})

	r := reading{
		value:       capped(value),
		description: fmt.Sprintf("%d contratos totalizando R$ %.2f, %d valores atípicos", len(snap.LeaseContracts), total, outliers),
		finding:     fmt.Sprintf("Contratos de arrendamento de alto valor: R$ %.2f em %d contratos", total, len(snap.LeaseContracts)),
	}
	if missing > 0 {
		r.incomplete = true
		r.warning = fmt.Sprintf("%d lease contracts without value", missing)
	}
	return r
}

// tukeyOutliers counts values outside [Q1 - 1.5 IQR, Q3 + 1.5 IQR]. Fewer
// than four values have no meaningful quartiles and yield zero.
func tukeyOutliers(values []float64) int {
	if len(values) < 4 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	lo, hi := q1-1.5*iqr, q3+1.5*iqr

	n := 0
	for _, v := range sorted {
		if v < lo || v > hi {
			n++
		}
	}
	return n
}

// quantile interpolates linearly between closest ranks of sorted data.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// criticalKeywords groups synonyms; each group counts once.
var criticalKeywords = [][]string{
	{"fraude", "fraud"},
	{"corrupcao", "corruption"},
	{"grilagem", "land-grabbing", "land grabbing"},
	{"lavagem de dinheiro", "money laundering"},
	{"trabalho escravo", "slave labor"},
	{"desmatamento ilegal", "illegal deforestation"},
}

func judicialIssues(snap *entities.Snapshot) reading {
	if len(snap.LegalQueries) == 0 {
		return reading{description: "Nenhuma consulta judicial informada", incomplete: true, warning: "no legal queries"}
	}

	lawsuits := 0
	var text strings.Builder
	for _, q := range snap.LegalQueries {
		lawsuits += q.ActiveLawsuits
		text.WriteString(entities.FoldText(q.Text))
		text.WriteByte(' ')
	}

	corpus := text.String()
	var found []string
	for _, group := range criticalKeywords {
		for _, kw := range group {
			if strings.Contains(corpus, kw) {
				found = append(found, group[0])
				break
			}
		}
	}

	value := band(float64(lawsuits), [2]float64{10, 60}, [2]float64{5, 40}, [2]float64{1, 20}) +
		math.Min(40, 20*float64(len(found)))

	keywords := "nenhuma"
	if len(found) > 0 {
		keywords = strings.Join(found, ", ")
	}
	return reading{
		value:       capped(value),
		description: fmt.Sprintf("%d processos ativos, palavras críticas: %s", lawsuits, keywords),
		finding:     fmt.Sprintf("Questões judiciais: %d processos ativos (palavras críticas: %s)", lawsuits, keywords),
	}
}

func corporateNetwork(snap *entities.Snapshot) reading {
	if len(snap.Companies) == 0 {
		return reading{description: "Nenhuma empresa informada", incomplete: true, warning: "no companies"}
	}

	known, inactive, missing := 0, 0, 0
	states := make(map[string]bool)
	for i := range snap.Companies {
		c := &snap.Companies[i]
		if c.HasStatus() {
			known++
			if c.IsInactive() {
				inactive++
			}
		}
		if s := entities.FoldText(c.State); s != "" {
			states[s] = true
		}
		if !c.HasStatus() || strings.TrimSpace(c.State) == "" {
			missing++
		}
	}

	ratio := 0.0
	if known > 0 {
		ratio = float64(inactive) / float64(known)
	}

	value := band(float64(len(snap.Companies)), [2]float64{20, 40}, [2]float64{10, 25}, [2]float64{5, 10}) +
		band(float64(len(states)), [2]float64{5, 25}, [2]float64{3, 15})
	switch {
	case ratio > 0.4:
		value += 35
	case ratio > 0.2:
		value += 20
	}

	r := reading{
		value:       capped(value),
		description: fmt.Sprintf("%d empresas, %.0f%% inativas, em %d estados", len(snap.Companies), ratio*100, len(states)),
		finding:     fmt.Sprintf("Rede societária extensa: %d empresas, %.0f%% inativas", len(snap.Companies), ratio*100),
	}
	if missing > 0 {
		r.incomplete = true
		r.warning = fmt.Sprintf("%d companies without status or state", missing)
	}
	return r
}

const (
	rapidOpeningWindow   = 30 * 24 * time.Hour
	recentPropertyWindow = 180 * 24 * time.Hour
)

func temporalPatterns(snap *entities.Snapshot) reading {
	var openings []time.Time
	missingDates := 0
	for _, c := range snap.Companies {
		if c.OpenDate == nil {
			missingDates++
			continue
		}
		openings = append(openings, *c.OpenDate)
	}
	sort.Slice(openings, func(i, j int) bool { return openings[i].Before(openings[j]) })

	rapid := 0
	for i := 1; i < len(openings); i++ {
		if openings[i].Sub(openings[i-1]) <= rapidOpeningWindow {
			rapid++
		}
	}

	recent, registered := 0, 0
	if !snap.CapturedAt.IsZero() {
		for _, p := range snap.Properties {
			if p.RegisteredAt == nil {
				continue
			}
			registered++
			age := snap.CapturedAt.Sub(*p.RegisteredAt)
			if age >= 0 && age <= recentPropertyWindow {
				recent++
			}
		}
	}

	if len(openings) == 0 && registered == 0 {
		return reading{description: "Sem datas de abertura ou registro", incomplete: true, warning: "no opening or registration dates"}
	}

	value := band(float64(rapid), [2]float64{5, 60}, [2]float64{3, 40}, [2]float64{1, 20}) +
		band(float64(recent), [2]float64{5, 40}, [2]float64{1, 20})

	r := reading{
		value:       capped(value),
		description: fmt.Sprintf("%d aberturas em sequência rápida, %d imóveis registrados recentemente", rapid, recent),
		finding:     fmt.Sprintf("Padrão temporal suspeito: %d empresas abertas em sequência rápida e %d imóveis registrados recentemente", rapid, recent),
	}
	if missingDates > 0 {
		r.incomplete = true
		r.warning = fmt.Sprintf("%d companies without opening date", missingDates)
	}
	return r
}

func geographicDispersion(snap *entities.Snapshot) reading {
	if len(snap.Properties) == 0 {
		return reading{description: "Nenhum imóvel informado", incomplete: true, warning: "no properties"}
	}

	states := make(map[string]bool)
	cities := make(map[string]bool)
	missing := 0
	for _, p := range snap.Properties {
		if s := entities.FoldText(p.State); s != "" {
			states[s] = true
		}
		if key := entities.LocationKey(p.City, p.State); key != "" {
			cities[key] = true
		}
		if strings.TrimSpace(p.City) == "" || strings.TrimSpace(p.State) == "" {
			missing++
		}
	}

	value := band(float64(len(states)), [2]float64{5, 60}, [2]float64{3, 35}, [2]float64{2, 15}) +
		band(float64(len(cities)), [2]float64{10, 40}, [2]float64{5, 25}, [2]float64{3, 10})

	r := reading{
		value:       capped(value),
		description: fmt.Sprintf("Imóveis em %d estados e %d municípios", len(states), len(cities)),
		finding:     fmt.Sprintf("Dispersão geográfica: imóveis em %d estados e %d municípios", len(states), len(cities)),
	}
	if missing > 0 {
		r.incomplete = true
		r.warning = fmt.Sprintf("%d properties without city or state", missing)
	}
	return r
}

func dataQuality(snap *entities.Snapshot) reading {
	filled, total := 0, 0
	check := func(ok bool) {
		total++
		if ok {
			filled++
		}
	}
	present := func(s string) bool { return strings.TrimSpace(s) != "" }

	for _, p := range snap.Properties {
		check(present(p.Name))
		check(p.AreaHectares > 0)
		check(present(p.City))
		check(present(p.State))
	}
	for _, c := range snap.Companies {
		check(present(c.CNPJ))
		check(present(c.Name))
		check(present(c.Status))
		check(present(c.City))
		check(present(c.State))
		check(c.OpenDate != nil)
	}
	for _, p := range snap.Persons {
		check(present(p.Name))
		check(present(p.CPF))
	}

	if total == 0 {
		return reading{description: "Nenhuma entidade para avaliar", incomplete: true, warning: "no entities"}
	}

	completeness := float64(filled) / float64(total)
	return reading{
		value:       capped((1 - completeness) * 100),
		description: fmt.Sprintf("%.0f%% dos campos obrigatórios preenchidos", completeness*100),
		finding:     fmt.Sprintf("Baixa qualidade dos dados: %.0f%% dos campos obrigatórios preenchidos", completeness*100),
	}
}
