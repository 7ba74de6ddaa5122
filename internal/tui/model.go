// Package tui provides the Bubble Tea coin flip interface.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/verte-zerg/qflip/internal/coin"
	"github.com/verte-zerg/qflip/internal/flipper"
	"github.com/verte-zerg/qflip/internal/model"
	"github.com/verte-zerg/qflip/internal/store"
)

const frameInterval = 90 * time.Millisecond

type (
	settleMsg struct{}
	idleMsg   struct{}
	frameMsg  struct{}
)

// Model implements the Bubble Tea flip UI.
type Model struct {
	ctx    context.Context
	orch   *flipper.Orchestrator
	store  *store.Store
	logger *log.Logger

	spinner  spinner.Model
	frame    int
	showInfo bool

	width  int
	height int

	allFlips int
	allHeads int
	hasAll   bool
}

// NewModel constructs a flip TUI model. st may be nil when flips are not stored.
func NewModel(ctx context.Context, orch *flipper.Orchestrator, st *store.Store, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.Default()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle
	m := &Model{
		ctx:     ctx,
		orch:    orch,
		store:   st,
		logger:  logger,
		spinner: sp,
	}
	m.loadFooterStats()
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
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case settleMsg:
		result, ok := m.orch.Settle(m.ctx)
		if !ok {
			return m, nil
		}
		if m.orch.Saved() {
			m.countStored(result)
		}
		return m, tea.Tick(m.orch.Config().SettleDelay, func(time.Time) tea.Msg { return idleMsg{} })
	case idleMsg:
		m.orch.Finish()
		m.frame = 0
		return m, nil
	case frameMsg:
		if m.orch.Phase() != flipper.Flipping {
			return m, nil
		}
		m.frame++
		return m, frameTick()
	case spinner.TickMsg:
		if m.orch.Phase() != flipper.Flipping {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case " ", "enter":
		return m, m.startFlip()
	case "i":
		m.showInfo = !m.showInfo
		return m, nil
	case "r":
		m.orch.Reset()
		return m, nil
	default:
		return m, nil
	}
}

// startFlip triggers the orchestrator and schedules the settle tick, the
// coin animation and the spinner. Triggers outside Idle return nil.
func (m *Model) startFlip() tea.Cmd {
	if !m.orch.Trigger(m.ctx) {
		return nil
	}
	m.frame = 0
	settle := tea.Tick(m.orch.Config().FlipDelay, func(time.Time) tea.Msg { return settleMsg{} })
	return tea.Batch(settle, frameTick(), m.spinner.Tick)
}

func frameTick() tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg { return frameMsg{} })
}

func (m *Model) loadFooterStats() {
	if m.store == nil {
		return
	}
	sessions, err := m.store.ListSessions(m.ctx, model.StatsConfig{})
	if err != nil {
		m.logger.Warn("failed to load stored totals", "err", err)
		return
	}
	for _, s := range sessions {
		m.allFlips += s.Flips
		m.allHeads += s.Heads
	}
	m.hasAll = true
}

func (m *Model) countStored(result coin.FlipResult) {
	if !m.hasAll {
		return
	}
	m.allFlips++
	if result.Label == coin.Heads {
		m.allHeads++
	}
}
