package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/qflip/internal/coin"
	"github.com/verte-zerg/qflip/internal/model"
	"github.com/verte-zerg/qflip/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "qflip.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	start := time.Unix(1700000000, 0)
	sid, err := st.StartSession(ctx, model.SessionInfo{StartedAt: start, Source: "test", HistorySize: 5})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	labels := []coin.Label{coin.Heads, coin.Heads, coin.Tails, coin.Heads, coin.Heads, coin.Heads}
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

	report, err := BuildReport(ctx, st, model.StatsConfig{CurveWindow: 3})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Flips) != 6 || len(report.Sessions) != 1 {
		t.Fatalf("unexpected report sizes: %d flips, %d sessions", len(report.Flips), len(report.Sessions))
	}
	s := report.Stats
	if s.TotalFlips != 6 || s.HeadsCount != 5 || s.TailsCount != 1 || s.CurrentStreak != 3 || s.LongestStreak != 3 {
		t.Fatalf("unexpected stats: %+v", s)
	}
	if report.Bias.MeanProbabilityOfZero != 0.5 {
		t.Fatalf("unexpected mean P0: %.3f", report.Bias.MeanProbabilityOfZero)
	}

	last, err := BuildReport(ctx, st, model.StatsConfig{Last: 2})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if last.Stats.TotalFlips != 2 || last.Stats.CurrentStreak != 2 {
		t.Fatalf("unexpected windowed stats: %+v", last.Stats)
	}

	var buf bytes.Buffer
	if err := RenderSummary(&buf, report); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Total Flips: 6", "Heads: 5 (83.3%)", "Longest Streak: 3", "Recent: HHTHHH"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, Report{}); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No flips found." {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
