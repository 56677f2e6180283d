package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/agrorisk/pkg/analysis"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))

	assessmentColors = map[string]lipgloss.Color{
		"red":    lipgloss.Color("#FF0000"),
		"orange": lipgloss.Color("#FF8800"),
		"yellow": lipgloss.Color("#FFFF00"),
		"green":  lipgloss.Color("#00FF00"),
		"gray":   lipgloss.Color("#888888"),
	}
)

// render formats a report for the terminal.
func render(r *analysis.Report) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Investigação " + r.InvestigationID))
	b.WriteString("\n")

	o := r.OverallAssessment
	color, ok := assessmentColors[o.Color]
	if !ok {
		color = assessmentColors["gray"]
	}
	summary := fmt.Sprintf("%s\nscore %.2f (%s)\nalertas críticos: %d",
		lipgloss.NewStyle().Bold(true).Foreground(color).Render(o.Assessment),
		o.RiskScore, o.RiskLevel, o.CriticalAlerts)
	if o.RequiresManualReview {
		summary += "\nrevisão manual necessária"
	}
	b.WriteString(boxStyle.BorderForeground(color).Render(summary))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Indicadores de risco"))
	b.WriteString("\n")
	if r.RiskAssessment.OK() {
		for _, ind := range r.RiskAssessment.Result.Indicators {
			fmt.Fprintf(&b, "  %-28s %.2f  %s\n", ind.Name, ind.Value, mutedStyle.Render(string(ind.Severity)))
		}
		for _, rec := range r.RiskAssessment.Result.Recommendations {
			fmt.Fprintf(&b, "  • %s\n", rec)
		}
	} else {
		b.WriteString(sectionFailure(r.RiskAssessment.Err))
	}
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Padrões detectados"))
	b.WriteString("\n")
	if r.Patterns.OK() {
		if len(r.Patterns.Result.Patterns) == 0 {
			b.WriteString(mutedStyle.Render("  nenhum padrão detectado") + "\n")
		}
		for _, p := range r.Patterns.Result.Patterns {
			fmt.Fprintf(&b, "  [%s] %s\n", p.Severity, p.Description)
		}
	} else {
		b.WriteString(sectionFailure(r.Patterns.Err))
	}
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Rede"))
	b.WriteString("\n")
	if r.Network.OK() {
		m := r.Network.Result
		fmt.Fprintf(&b, "  %d nós, %d arestas, densidade %.4f, %d cluster(s)\n", m.NumNodes, m.NumEdges, m.Density, m.Clusters)
		for _, kp := range m.KeyPlayers {
			fmt.Fprintf(&b, "  %s\n", kp)
		}
		for _, s := range m.SuspiciousPatterns {
			fmt.Fprintf(&b, "  ! %s\n", s)
		}
	} else {
		b.WriteString(sectionFailure(r.Network.Err))
	}

	if r.Partial {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Relatório parcial: uma ou mais análises falharam"))
	}
	return b.String()
}

func sectionFailure(err *analysis.SectionError) string {
	msg := "indisponível"
	if err != nil {
		msg = err.Message
		if err.TimedOut {
			msg += " (tempo esgotado)"
		}
	}
	return errorStyle.Render("  "+msg) + "\n"
}
