package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/qflip/internal/coin"
	"github.com/verte-zerg/qflip/internal/flipper"
	"github.com/verte-zerg/qflip/internal/session"
)

var (
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FFFF"))
	purpleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#B57EDC"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	buttonStyle  = lipgloss.NewStyle().Padding(0, 2).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#B57EDC"))
	disabledBtn  = buttonStyle.Foreground(lipgloss.Color("#6E6E6E")).BorderForeground(lipgloss.Color("#4A4A4A"))
	panelStyle   = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#3A3A5A"))
	headsStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF"))
	tailsStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#B57EDC"))
	spinningFace = []string{"( H )", "( | )", "( T )", "( | )"}
)

const (
	defaultPanelWidth = 36
	explanationText   = "The qubit starts in |0⟩. The Hadamard gate puts it into an equal " +
		"superposition (|0⟩ + |1⟩)/√2, so each basis state has probability 1/2. " +
		"Measuring collapses the state: 0 reads as Heads and 1 reads as Tails. " +
		"The outcome is decided by the measurement, not by a pseudo-random coin toss."
)

// View implements tea.Model.
func (m *Model) View() string {
	panelWidth := m.panelWidth()
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderCircuit(panelWidth),
		m.renderCoin(panelWidth),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStats(panelWidth),
		m.renderHistory(panelWidth),
	)
	sections := []string{
		titleStyle.Render("Quantum Coin Flip"),
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
	}
	if m.showInfo {
		sections = append(sections, m.renderInfo(panelWidth*2+4))
	}
	sections = append(sections, m.renderHelp())
	content := lipgloss.JoinVertical(lipgloss.Center, sections...)

	footer := m.renderFooter()
	if m.width == 0 || m.height < 3 {
		if footer == "" {
			return content
		}
		return content + "\n" + footer
	}
	if footer == "" {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) panelWidth() int {
	if m.width <= 0 {
		return defaultPanelWidth
	}
	w := (m.width - 8) / 2
	if w > 48 {
		w = 48
	}
	if w < 24 {
		w = 24
	}
	return w
}

func (m *Model) renderCircuit(width int) string {
	phase := m.orch.Phase()
	steps := []struct {
		text   string
		active bool
	}{
		{"1. Prepare |0⟩", phase == flipper.Idle},
		{"2. Apply Hadamard (H)", phase == flipper.Flipping},
		{"3. Measure into c", phase == flipper.Settling},
	}
	lines := []string{
		purpleStyle.Render("Circuit"),
		accentStyle.Render("|0⟩ ─[H]─[M]═ c"),
		"",
	}
	for _, step := range steps {
		if step.active {
			lines = append(lines, accentStyle.Render("▸ "+step.text))
			continue
		}
		lines = append(lines, mutedStyle.Render("  "+step.text))
	}
	return panelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderCoin(width int) string {
	var face, status string
	switch m.orch.Phase() {
	case flipper.Flipping:
		face = accentStyle.Render(spinningFace[m.frame%len(spinningFace)])
		status = m.spinner.View() + " " + accentStyle.Render("Quantum Superposition...")
	case flipper.Settling:
		result, _ := m.orch.Current()
		face = labelStyle(result.Label).Render(fmt.Sprintf("( %s )", result.Label.Short()))
		status = fmt.Sprintf("Measured %s  P(|0⟩)=%.2f", labelStyle(result.Label).Render(result.Label.String()), result.ProbabilityOfZero)
	default:
		face = mutedStyle.Render("( ? )")
		if msg := m.orch.Message(); msg != "" {
			status = errorStyle.Render(msg)
		} else {
			status = mutedStyle.Render("Press space to flip the quantum coin!")
		}
	}
	lines := []string{
		purpleStyle.Render("Coin"),
		lipgloss.PlaceHorizontal(width-2, lipgloss.Center, face),
		"",
		status,
		"",
		lipgloss.PlaceHorizontal(width-2, lipgloss.Center, m.renderButton()),
	}
	return panelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

// renderButton greys the button out for the whole flight, settling included.
func (m *Model) renderButton() string {
	if !m.orch.Busy() {
		return buttonStyle.Render("Initiate Quantum Flip")
	}
	if m.orch.Phase() == flipper.Flipping {
		return disabledBtn.Render("Quantum Superposition...")
	}
	return disabledBtn.Render("Initiate Quantum Flip")
}

func (m *Model) renderStats(width int) string {
	stats := m.orch.Snapshot().Stats
	lines := []string{
		purpleStyle.Render("Statistics"),
		formatStat("Total flips", fmt.Sprintf("%d", stats.TotalFlips)),
		formatStat("Heads", fmt.Sprintf("%d (%.1f%%)", stats.HeadsCount, stats.HeadsPct())),
		formatStat("Tails", fmt.Sprintf("%d (%.1f%%)", stats.TailsCount, stats.TailsPct())),
		formatStat("Current streak", fmt.Sprintf("%d", stats.CurrentStreak)),
		formatStat("Longest streak", fmt.Sprintf("%d", stats.LongestStreak)),
	}
	return panelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func formatStat(name, value string) string {
	return fmt.Sprintf("%-15s %s", name, value)
}

func (m *Model) renderHistory(width int) string {
	snap := m.orch.Snapshot()
	lines := []string{purpleStyle.Render(fmt.Sprintf("History (last %d)", snap.Capacity))}
	lines = append(lines, historyLines(snap)...)
	return panelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func historyLines(snap session.Snapshot) []string {
	if len(snap.History) == 0 {
		return []string{mutedStyle.Render("No flips yet")}
	}
	lines := make([]string, 0, len(snap.History))
	for _, entry := range snap.History {
		label := labelStyle(entry.Label).Render(fmt.Sprintf("%-5s", entry.Label.String()))
		lines = append(lines, fmt.Sprintf("%s %s  P=%.2f", label, entry.Timestamp.Format("15:04:05"), entry.ProbabilityOfZero))
	}
	return lines
}

func (m *Model) renderInfo(width int) string {
	lines := []string{purpleStyle.Render("How it works")}
	lines = append(lines, wrapText(explanationText, width-4)...)
	return panelStyle.Width(width).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderHelp() string {
	if m.orch.Busy() {
		return mutedStyle.Render("flip in progress · i info · q quit")
	}
	return mutedStyle.Render("space flip · i info · r reset · q quit")
}

func (m *Model) renderFooter() string {
	if !m.hasAll {
		return ""
	}
	pct := 0.0
	if m.allFlips > 0 {
		pct = float64(m.allHeads) / float64(m.allFlips) * 100
	}
	return footerStyle.Render(fmt.Sprintf("All-time %d flips · %.1f%% heads", m.allFlips, pct))
}

func labelStyle(l coin.Label) lipgloss.Style {
	if l == coin.Heads {
		return headsStyle
	}
	return tailsStyle
}
