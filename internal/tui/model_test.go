package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/verte-zerg/qflip/internal/coin"
	"github.com/verte-zerg/qflip/internal/flipper"
	"github.com/verte-zerg/qflip/internal/session"
)

func newTestModel(t *testing.T, src flipper.SourceFunc) *Model {
	t.Helper()
	orch := flipper.New(src, session.NewTracker(5), flipper.DefaultConfig())
	return NewModel(context.Background(), orch, nil, nil)
}

func headsSource(context.Context) (coin.Outcome, error) {
	return coin.Outcome{Bit: 0, ProbabilityOfZero: 0.5}, nil
}

func press(m *Model, key tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(key)
	return cmd
}

var spaceKey = tea.KeyMsg{Type: tea.KeySpace}

func TestSpaceStartsFlip(t *testing.T) {
	m := newTestModel(t, headsSource)
	if cmd := press(m, spaceKey); cmd == nil {
		t.Fatalf("expected scheduled commands after trigger")
	}
	if m.orch.Phase() != flipper.Flipping {
		t.Fatalf("expected Flipping, got %s", m.orch.Phase())
	}
	if !strings.Contains(m.View(), "Quantum Superposition...") {
		t.Fatalf("expected superposition label while flipping")
	}
}

func TestSecondTriggerIsIgnored(t *testing.T) {
	calls := 0
	m := newTestModel(t, func(ctx context.Context) (coin.Outcome, error) {
		calls++
		return headsSource(ctx)
	})
	press(m, spaceKey)
	if cmd := press(m, spaceKey); cmd != nil {
		t.Fatalf("expected no commands for a trigger during a flip")
	}
	if calls != 1 {
		t.Fatalf("expected one source call, got %d", calls)
	}
}

func TestFlipLifecycleRecordsOnce(t *testing.T) {
	m := newTestModel(t, headsSource)
	press(m, spaceKey)

	_, cmd := m.Update(settleMsg{})
	if cmd == nil {
		t.Fatalf("expected idle tick after settle")
	}
	if m.orch.Phase() != flipper.Settling {
		t.Fatalf("expected Settling, got %s", m.orch.Phase())
	}
	m.Update(settleMsg{})
	stats := m.orch.Snapshot().Stats
	if stats.TotalFlips != 1 || stats.HeadsCount != 1 {
		t.Fatalf("expected exactly one recorded heads flip, got %+v", stats)
	}
	if !strings.Contains(m.View(), "Measured Heads") {
		t.Fatalf("expected measured result in view")
	}

	m.Update(idleMsg{})
	if m.orch.Phase() != flipper.Idle {
		t.Fatalf("expected Idle, got %s", m.orch.Phase())
	}
	if got := len(m.orch.Snapshot().History); got != 1 {
		t.Fatalf("expected history to survive settle, got %d entries", got)
	}
}

func TestSourceFailureShowsErrorLabel(t *testing.T) {
	m := newTestModel(t, func(context.Context) (coin.Outcome, error) {
		return coin.Outcome{}, errors.New("backend down")
	})
	if cmd := press(m, spaceKey); cmd != nil {
		t.Fatalf("expected no scheduled commands after failure")
	}
	if m.orch.Phase() != flipper.Idle {
		t.Fatalf("expected Idle after failure, got %s", m.orch.Phase())
	}
	if !strings.Contains(m.View(), flipper.ErrorLabel) {
		t.Fatalf("expected error label in view")
	}
	if m.orch.Snapshot().Stats.TotalFlips != 0 {
		t.Fatalf("expected no recorded flips")
	}
}

func TestResetIgnoredWhileFlipping(t *testing.T) {
	m := newTestModel(t, headsSource)
	press(m, spaceKey)
	m.Update(settleMsg{})
	press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if m.orch.Snapshot().Stats.TotalFlips != 1 {
		t.Fatalf("expected reset to be ignored while settling")
	}
	m.Update(idleMsg{})
	press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if m.orch.Snapshot().Stats.TotalFlips != 0 {
		t.Fatalf("expected reset while idle to clear statistics")
	}
}

func TestInfoToggle(t *testing.T) {
	m := newTestModel(t, headsSource)
	if strings.Contains(m.View(), "How it works") {
		t.Fatalf("expected explanation hidden by default")
	}
	press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'i'}})
	if !strings.Contains(m.View(), "How it works") {
		t.Fatalf("expected explanation after toggle")
	}
}

func TestEmptyHistoryPlaceholder(t *testing.T) {
	m := newTestModel(t, headsSource)
	if !strings.Contains(m.View(), "No flips yet") {
		t.Fatalf("expected empty history placeholder")
	}
}

func TestRenderFooterFormats(t *testing.T) {
	m := &Model{hasAll: true, allFlips: 4, allHeads: 1}
	out := m.renderFooter()
	if !strings.Contains(out, "All-time 4 flips") || !strings.Contains(out, "25.0% heads") {
		t.Fatalf("footer missing expected segments: %s", out)
	}
	m.countStored(coin.FlipResult{Label: coin.Heads})
	if m.allFlips != 5 || m.allHeads != 2 {
		t.Fatalf("expected stored totals to advance, got %d/%d", m.allHeads, m.allFlips)
	}
}

func TestRenderFooterWithoutStore(t *testing.T) {
	m := &Model{}
	if out := m.renderFooter(); out != "" {
		t.Fatalf("expected empty footer without store, got %q", out)
	}
}

type flakyRecorder struct {
	err  error
	rows int
}

func (r *flakyRecorder) InsertFlip(context.Context, string, coin.FlipResult) error {
	if r.err != nil {
		return r.err
	}
	r.rows++
	return nil
}

func TestFooterTracksOnlySavedFlips(t *testing.T) {
	rec := &flakyRecorder{err: errors.New("database is locked")}
	orch := flipper.New(flipper.SourceFunc(headsSource), session.NewTracker(5), flipper.DefaultConfig(),
		flipper.WithRecorder(rec, "s1"),
		flipper.WithLogger(log.New(io.Discard)),
	)
	m := NewModel(context.Background(), orch, nil, nil)
	m.hasAll = true
	m.allFlips = 2

	press(m, spaceKey)
	m.Update(settleMsg{})
	m.Update(idleMsg{})
	if m.allFlips != 2 {
		t.Fatalf("expected footer to skip an unsaved flip, got %d", m.allFlips)
	}

	rec.err = nil
	press(m, spaceKey)
	m.Update(settleMsg{})
	if m.allFlips != 3 || m.allHeads != 1 || rec.rows != 1 {
		t.Fatalf("expected footer to count the saved flip, got %d/%d rows=%d", m.allHeads, m.allFlips, rec.rows)
	}
}

func TestHelpReflectsFlightState(t *testing.T) {
	m := newTestModel(t, headsSource)
	if !strings.Contains(m.View(), "r reset") {
		t.Fatalf("expected reset hint while idle")
	}
	press(m, spaceKey)
	if !strings.Contains(m.View(), "flip in progress") {
		t.Fatalf("expected busy hint while flipping")
	}
	m.Update(settleMsg{})
	if !strings.Contains(m.View(), "flip in progress") {
		t.Fatalf("expected busy hint while settling")
	}
	m.Update(idleMsg{})
	if strings.Contains(m.View(), "flip in progress") {
		t.Fatalf("expected busy hint cleared after the flight")
	}
}
