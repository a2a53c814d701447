package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/qrsim/internal/sim"
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#444466"))

	CanvasStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466"))

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 2)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(22)

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	StatusRunning = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusPaused = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	StatusStalled = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))
)

// StatusStyle colours an agent status.
func StatusStyle(s sim.Status) lipgloss.Style {
	switch s {
	case sim.StatusAdvancing:
		return StatusRunning
	case sim.StatusBlocked:
		return StatusStalled
	default:
		return StatusPaused
	}
}

// Row renders one "label value" line.
func Row(label, value string) string {
	return MetricLabel.Render(label) + MetricValue.Render(value)
}

// Summary renders the outcome of a run as a bordered panel.
func Summary(title string, res *sim.Result) string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render(title) + "\n")
	b.WriteString(Row("passes", fmt.Sprintf("%d", res.Passes)) + "\n")
	b.WriteString(Row("commits", fmt.Sprintf("%d", res.Commits)) + "\n")
	b.WriteString(Row("blocked", fmt.Sprintf("%d", res.Blocked)) + "\n")
	b.WriteString(Row("records", fmt.Sprintf("%d", res.Records)) + "\n")
	b.WriteString(Row("elapsed", res.Elapsed.String()) + "\n")
	if res.StalledAt > 0 {
		b.WriteString(StatusStalled.Render(fmt.Sprintf("stalled at pass %d", res.StalledAt)) + "\n")
	}

	if len(res.Cursors) > 0 {
		b.WriteString("\ncursors\n")
		for _, id := range sortedKeys(res.Cursors) {
			b.WriteString(Row("  "+id, fmt.Sprintf("%.4f", res.Cursors[id])) + "\n")
		}
	}
	if len(res.Metrics) > 0 {
		b.WriteString("\nmetrics\n")
		for _, name := range sortedKeys(res.Metrics) {
			b.WriteString(Row("  "+name, fmt.Sprintf("%.6g", res.Metrics[name])) + "\n")
		}
	}
	return PanelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
