// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/qflip/internal/coin"
	"github.com/verte-zerg/qflip/internal/model"
	"github.com/verte-zerg/qflip/internal/stats"
	"github.com/verte-zerg/qflip/internal/store"
)

const (
	tabOverview = iota
	tabFlips
	tabSessions
)

const (
	plotHeight = 10
	stripWidth = 60
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#00FFFF"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#B57EDC"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	overview  viewport.Model
	flips     tablePane
	sessions  tablePane

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

type tablePane struct {
	table  table.Model
	layout tableLayout
}

type tableLayout struct {
	width    int
	height   int
	rowCount int
}

// NewModel constructs a stats UI model.
func NewModel(st *store.Store, cfg model.StatsConfig) *Model {
	m := &Model{
		store:    st,
		cfg:      cfg,
		tabs:     []string{"Overview", "Flips", "Sessions"},
		overview: viewport.New(0, 0),
		flips:    newTablePane(flipColumns()),
		sessions: newTablePane(sessionColumns()),
	}
	m.initInputs()
	m.refreshReport()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderOverview()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.CurveWindow = nextCurveWindow(m.cfg.CurveWindow)
			m.renderOverview()
			return m, nil
		case "-":
			m.cfg.CurveWindow = prevCurveWindow(m.cfg.CurveWindow)
			m.renderOverview()
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			m.gotoEdge(true)
			return m, nil
		case "G", "end":
			m.gotoEdge(false)
			return m, nil
		}
		return m, m.scroll(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) scroll(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch m.activeTab {
	case tabFlips:
		m.flips.table, cmd = m.flips.table.Update(msg)
	case tabSessions:
		m.sessions.table, cmd = m.sessions.table.Update(msg)
	default:
		m.overview, cmd = m.overview.Update(msg)
	}
	return cmd
}

func (m *Model) gotoEdge(top bool) {
	switch m.activeTab {
	case tabFlips:
		if top {
			m.flips.table.GotoTop()
		} else {
			m.flips.table.GotoBottom()
		}
	case tabSessions:
		if top {
			m.sessions.table.GotoTop()
		} else {
			m.sessions.table.GotoBottom()
		}
	default:
		if top {
			m.overview.GotoTop()
		} else {
			m.overview.GotoBottom()
		}
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Curve window: "),
	}
	m.setInputsFromConfig()
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	if m.cfg.Since != nil {
		m.filterInputs[0].SetValue(m.cfg.Since.Format("2006-01-02"))
	} else {
		m.filterInputs[0].SetValue("")
	}
	if m.cfg.Last > 0 {
		m.filterInputs[1].SetValue(strconv.Itoa(m.cfg.Last))
	} else {
		m.filterInputs[1].SetValue("")
	}
	m.filterInputs[2].SetValue(strconv.Itoa(m.cfg.CurveWindow))
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	m.flips.resize(m.width, bodyHeight)
	m.sessions.resize(m.width, bodyHeight)
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	m.activeTab = next
	m.flips.table.Blur()
	m.sessions.table.Blur()
	switch m.activeTab {
	case tabFlips:
		m.flips.table.Focus()
	case tabSessions:
		m.sessions.table.Focus()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Settings: since=%s  last=%s  window=%d", since, last, m.cfg.CurveWindow)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Settings: /  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	switch m.activeTab {
	case tabFlips:
		if len(m.report.Flips) == 0 {
			return fitLines("No flips found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.flips.table.View()), m.width, height)
	case tabSessions:
		if len(m.report.Sessions) == 0 {
			return fitLines("No sessions found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.sessions.table.View()), m.width, height)
	}
	return fitLines(m.overview.View(), m.width, height)
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load stats.")
		return
	}
	m.errMsg = ""
	m.report = report
	m.flips.setRows(flipRows(report.Flips))
	m.sessions.setRows(sessionRows(report.Sessions))
	m.renderOverview()
}

func (m *Model) renderOverview() {
	if m.errMsg != "" {
		m.overview.SetContent("Failed to load stats.")
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.report, m.cfg.CurveWindow, width))
}

func renderOverview(report stats.Report, window, width int) string {
	if len(report.Flips) == 0 {
		return "No flips found."
	}
	parts := []string{renderSummaryCards(report, width)}
	if report.Bias.Suspicious() {
		parts = append(parts, warnStyle.Render("Split is unlikely for a fair coin (p < 0.05)."))
	}
	parts = append(parts,
		headerStyle.Render("Recent: ")+stats.OutcomeStrip(report.Flips, minInt(stripWidth, width-8)),
		renderCurves(report.Flips, window, width),
	)
	return strings.TrimRight(strings.Join(parts, "\n\n"), "\n")
}

func renderSummaryCards(report stats.Report, width int) string {
	s := report.Stats
	cards := []string{
		metricCard("Flips", fmt.Sprintf("%d", s.TotalFlips)),
		metricCard("Heads", fmt.Sprintf("%d (%.1f%%)", s.HeadsCount, s.HeadsPct())),
		metricCard("Tails", fmt.Sprintf("%d (%.1f%%)", s.TailsCount, s.TailsPct())),
		metricCard("Longest streak", fmt.Sprintf("%d", s.LongestStreak)),
		metricCard("Mean P(|0⟩)", fmt.Sprintf("%.2f", report.Bias.MeanProbabilityOfZero)),
		metricCard("Chi-square", fmt.Sprintf("%.3f", report.Bias.ChiSquare)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4], cards[5])
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderCurves(flips []coin.FlipResult, window, width int) string {
	var buf bytes.Buffer
	if err := stats.RenderCurves(&buf, flips, window, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render curves: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func newTablePane(columns []table.Column) tablePane {
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(1),
	)
	t.SetStyles(tableStyles())
	return tablePane{table: t}
}

func (p *tablePane) setRows(rows []table.Row) {
	p.table.SetRows(rows)
	p.table.GotoTop()
	p.layout.rowCount = len(rows)
}

func (p *tablePane) resize(width, height int) {
	viewportHeight := maxInt(1, height-1)
	if p.layout.width == width && p.layout.height == viewportHeight {
		return
	}
	p.layout.width = width
	p.layout.height = viewportHeight
	p.table.SetWidth(width)
	p.table.SetHeight(viewportHeight)
	// The header border adds lines the table does not count; shrink until it fits.
	if over := lipgloss.Height(p.table.View()) - height; over > 0 {
		p.table.SetHeight(maxInt(1, viewportHeight-over))
	}
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#00FFFF")).
		Bold(true)
	return styles
}

func flipColumns() []table.Column {
	return []table.Column{
		{Title: "#", Width: 6},
		{Title: "Result", Width: 7},
		{Title: "P(|0⟩)", Width: 7},
		{Title: "Time", Width: 20},
	}
}

// flipRows lists flips newest first, numbered by chronological position.
func flipRows(flips []coin.FlipResult) []table.Row {
	rows := make([]table.Row, 0, len(flips))
	for i := len(flips) - 1; i >= 0; i-- {
		f := flips[i]
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			f.Label.String(),
			fmt.Sprintf("%.2f", f.ProbabilityOfZero),
			f.Timestamp.Local().Format("2006-01-02 15:04:05"),
		})
	}
	return rows
}

func sessionColumns() []table.Column {
	return []table.Column{
		{Title: "Started", Width: 17},
		{Title: "Source", Width: 12},
		{Title: "Flips", Width: 6},
		{Title: "Heads", Width: 6},
		{Title: "Tails", Width: 6},
		{Title: "Heads %", Width: 8},
	}
}

func sessionRows(sessions []model.SessionAggregate) []table.Row {
	rows := make([]table.Row, 0, len(sessions))
	for _, s := range sessions {
		pct := 0.0
		if s.Flips > 0 {
			pct = float64(s.Heads) / float64(s.Flips) * 100
		}
		rows = append(rows, table.Row{
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			s.Source,
			strconv.Itoa(s.Flips),
			strconv.Itoa(s.Heads),
			strconv.Itoa(s.Tails),
			fmt.Sprintf("%.1f%%", pct),
		})
	}
	return rows
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	cfg, err := parseFilter(
		m.filterInputs[0].Value(),
		m.filterInputs[1].Value(),
		m.filterInputs[2].Value(),
	)
	if err != nil {
		return err
	}
	m.cfg = cfg
	return nil
}

func parseFilter(sinceInput, lastInput, windowInput string) (model.StatsConfig, error) {
	var cfg model.StatsConfig
	if s := strings.TrimSpace(sinceInput); s != "" {
		parsed, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("invalid since date (expected YYYY-MM-DD)")
		}
		cfg.Since = &parsed
	}
	if s := strings.TrimSpace(lastInput); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 0 {
			return cfg, fmt.Errorf("invalid last value (use 0 or positive integer)")
		}
		cfg.Last = parsed
	}
	cfg.CurveWindow = 1
	if s := strings.TrimSpace(windowInput); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil {
			return cfg, fmt.Errorf("invalid curve window (use integer)")
		}
		if parsed < 1 {
			return cfg, fmt.Errorf("invalid curve window (use integer >= 1)")
		}
		cfg.CurveWindow = parsed
	}
	return cfg, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func nextCurveWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
