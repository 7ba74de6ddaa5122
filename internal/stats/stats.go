// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/qflip/internal/coin"
	"github.com/verte-zerg/qflip/internal/session"
)

// Summarize replays flips, oldest first, through a session tracker.
func Summarize(flips []coin.FlipResult) session.Statistics {
	tr := session.NewTracker(1)
	for _, f := range flips {
		tr.Apply(f)
	}
	return tr.Stats()
}

// RunningHeadsRatio returns the heads percentage after each flip.
func RunningHeadsRatio(flips []coin.FlipResult) []float64 {
	out := make([]float64, len(flips))
	heads := 0
	for i, f := range flips {
		if f.Label == coin.Heads {
			heads++
		}
		out[i] = float64(heads) / float64(i+1) * 100
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		den := i + 1
		if den > window {
			den = window
		}
		out[i] = sum / float64(den)
	}
	return out
}

// OutcomeStrip renders the last width outcomes as a strip of H and T.
func OutcomeStrip(flips []coin.FlipResult, width int) string {
	if width > 0 && len(flips) > width {
		flips = flips[len(flips)-width:]
	}
	var b strings.Builder
	for _, f := range flips {
		b.WriteString(f.Label.Short())
	}
	return b.String()
}

// RenderSummary prints the all-time summary for a report.
func RenderSummary(w io.Writer, report Report) error {
	if len(report.Flips) == 0 {
		_, err := fmt.Fprintln(w, "No flips found.")
		return err
	}
	s := report.Stats
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", len(report.Sessions)),
		fmt.Sprintf("Total Flips: %d", s.TotalFlips),
		fmt.Sprintf("Heads: %d (%.1f%%)", s.HeadsCount, s.HeadsPct()),
		fmt.Sprintf("Tails: %d (%.1f%%)", s.TailsCount, s.TailsPct()),
		fmt.Sprintf("Current Streak: %d", s.CurrentStreak),
		fmt.Sprintf("Longest Streak: %d", s.LongestStreak),
		fmt.Sprintf("Mean P(|0⟩): %.2f", report.Bias.MeanProbabilityOfZero),
		fmt.Sprintf("Chi-square: %.3f  z: %+.2f", report.Bias.ChiSquare, report.Bias.ZScore),
	}
	if report.Bias.Suspicious() {
		lines = append(lines, "Split is unlikely for a fair coin (p < 0.05).")
	}
	lines = append(lines, fmt.Sprintf("Recent: %s", OutcomeStrip(report.Flips, 40)), "")
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderHistory prints flips newest first as an aligned table. Flips are
// numbered by their position in the chronological slice.
func RenderHistory(w io.Writer, flips []coin.FlipResult, limit int) error {
	if len(flips) == 0 {
		_, err := fmt.Fprintln(w, "No flips yet")
		return err
	}
	cols := []column{
		{title: "#", right: true},
		{title: "Result"},
		{title: "Time"},
		{title: "P(|0⟩)", right: true},
	}
	rows := make([][]string, 0, len(flips))
	for i := len(flips) - 1; i >= 0; i-- {
		if limit > 0 && len(rows) >= limit {
			break
		}
		f := flips[i]
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			f.Label.String(),
			f.Timestamp.Local().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.2f", f.ProbabilityOfZero),
		})
	}
	for _, line := range formatTable(cols, rows) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RollingHeadsRatio returns the heads percentage over the last window flips at each point.
func RollingHeadsRatio(flips []coin.FlipResult, window int) []float64 {
	indicator := make([]float64, len(flips))
	for i, f := range flips {
		if f.Label == coin.Heads {
			indicator[i] = 100
		}
	}
	return MovingAverage(indicator, window)
}

// RenderCurves plots the cumulative and rolling heads ratios.
func RenderCurves(w io.Writer, flips []coin.FlipResult, window, totalWidth, height int, useColor bool) error {
	if len(flips) == 0 {
		return nil
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeries(w, "Heads Ratio", []Series{
		{Name: "Cumulative heads %", Values: RunningHeadsRatio(flips)},
		{Name: fmt.Sprintf("Last-%d heads %%", window), Values: RollingHeadsRatio(flips, window)},
	}, width, height, useColor)
}
