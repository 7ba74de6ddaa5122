package statsui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/qflip/internal/coin"
	"github.com/verte-zerg/qflip/internal/model"
	"github.com/verte-zerg/qflip/internal/store"
)

func seededStore(t *testing.T, labels ...coin.Label) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "qflip.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	ctx := context.Background()
	start := time.Unix(1700000000, 0)
	sid, err := st.StartSession(ctx, model.SessionInfo{StartedAt: start, Source: "test", HistorySize: 10})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	for i, l := range labels {
		err := st.InsertFlip(ctx, sid, coin.FlipResult{
			Label:             l,
			ProbabilityOfZero: 0.5,
			Timestamp:         start.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("insert flip: %v", err)
		}
	}
	return st
}

func TestModelRendersTabs(t *testing.T) {
	st := seededStore(t, coin.Heads, coin.Tails, coin.Heads)
	m := NewModel(st, model.StatsConfig{CurveWindow: 2})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})

	view := m.View()
	for _, want := range []string{"Overview", "Flips", "Sessions", "window=2", "HTH"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in overview:\n%s", want, view)
		}
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabFlips {
		t.Fatalf("expected flips tab, got %d", m.activeTab)
	}
	if !strings.Contains(m.View(), "Tails") {
		t.Fatalf("expected flip rows in flips tab")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if !strings.Contains(m.View(), "test") {
		t.Fatalf("expected session source in sessions tab")
	}
}

func TestModelEmptyStore(t *testing.T) {
	st := seededStore(t)
	m := NewModel(st, model.StatsConfig{CurveWindow: 5})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	if !strings.Contains(m.View(), "No flips found.") {
		t.Fatalf("expected empty placeholder")
	}
}

func TestCurveWindowKeys(t *testing.T) {
	st := seededStore(t, coin.Heads)
	m := NewModel(st, model.StatsConfig{CurveWindow: 7})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'='}})
	if m.cfg.CurveWindow != 10 {
		t.Fatalf("expected window 10, got %d", m.cfg.CurveWindow)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'-'}})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'-'}})
	if m.cfg.CurveWindow != 1 {
		t.Fatalf("expected window 1, got %d", m.cfg.CurveWindow)
	}
}

func TestParseFilter(t *testing.T) {
	cfg, err := parseFilter("2026-01-02", "25", "4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Since == nil || cfg.Since.Format("2006-01-02") != "2026-01-02" {
		t.Fatalf("unexpected since: %v", cfg.Since)
	}
	if cfg.Last != 25 || cfg.CurveWindow != 4 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	cases := [][3]string{
		{"01/02/2026", "", ""},
		{"", "-1", ""},
		{"", "", "0"},
		{"", "", "abc"},
	}
	for _, c := range cases {
		if _, err := parseFilter(c[0], c[1], c[2]); err == nil {
			t.Fatalf("expected error for %q", c)
		}
	}
}

func TestFlipRowsNewestFirst(t *testing.T) {
	base := time.Unix(1700000000, 0)
	rows := flipRows([]coin.FlipResult{
		{Label: coin.Heads, ProbabilityOfZero: 0.5, Timestamp: base},
		{Label: coin.Tails, ProbabilityOfZero: 0.5, Timestamp: base.Add(time.Second)},
	})
	if len(rows) != 2 || rows[0][0] != "2" || rows[0][1] != "Tails" || rows[1][1] != "Heads" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestCurveWindowSteps(t *testing.T) {
	cases := []struct{ in, next, prev int }{
		{1, 5, 1},
		{5, 10, 1},
		{7, 10, 5},
		{10, 15, 5},
	}
	for _, c := range cases {
		if got := nextCurveWindow(c.in); got != c.next {
			t.Fatalf("next(%d) = %d, want %d", c.in, got, c.next)
		}
		if got := prevCurveWindow(c.in); got != c.prev {
			t.Fatalf("prev(%d) = %d, want %d", c.in, got, c.prev)
		}
	}
}
