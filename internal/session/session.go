// Package session aggregates flip results into running statistics and a
// bounded history.
package session

import "github.com/verte-zerg/qflip/internal/coin"

// DefaultHistorySize is the number of recent flips kept when no capacity is set.
const DefaultHistorySize = 10

// Statistics aggregates every trial observed in a session.
type Statistics struct {
	TotalFlips    int
	HeadsCount    int
	TailsCount    int
	CurrentStreak int
	LongestStreak int
}

// HeadsPct returns the heads share in percent, or 0 before the first flip.
func (s Statistics) HeadsPct() float64 {
	if s.TotalFlips == 0 {
		return 0
	}
	return float64(s.HeadsCount) / float64(s.TotalFlips) * 100
}

// TailsPct returns the tails share in percent, or 0 before the first flip.
func (s Statistics) TailsPct() float64 {
	if s.TotalFlips == 0 {
		return 0
	}
	return float64(s.TailsCount) / float64(s.TotalFlips) * 100
}

// Record folds one new label into the statistics. prev must be the label of
// the trial immediately before next, or invalid for the first trial.
func Record(prev coin.NullLabel, next coin.Label, stats Statistics) Statistics {
	continuing := prev.Valid && prev.Label == next
	streak := 1
	if continuing {
		streak = stats.CurrentStreak + 1
	}
	out := stats
	out.CurrentStreak = streak
	if streak > out.LongestStreak {
		out.LongestStreak = streak
	}
	out.TotalFlips++
	if next == coin.Heads {
		out.HeadsCount++
	} else {
		out.TailsCount++
	}
	return out
}

// Prepend returns a new slice with entry first followed by log, truncated to
// capacity. log itself is not modified.
func Prepend(entry coin.FlipResult, log []coin.FlipResult, capacity int) []coin.FlipResult {
	if capacity <= 0 {
		return []coin.FlipResult{}
	}
	n := len(log) + 1
	if n > capacity {
		n = capacity
	}
	out := make([]coin.FlipResult, n)
	out[0] = entry
	copy(out[1:], log)
	return out
}

// Snapshot is an immutable view of a tracker.
type Snapshot struct {
	Stats    Statistics
	Previous coin.NullLabel
	History  []coin.FlipResult
	Capacity int
}

// Tracker owns the statistics and history of one session. The previous label
// is carried next to the streak so eviction from the history never affects it.
type Tracker struct {
	capacity int
	stats    Statistics
	previous coin.NullLabel
	history  []coin.FlipResult
}

// NewTracker returns an empty tracker keeping at most capacity history entries.
func NewTracker(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &Tracker{capacity: capacity, history: []coin.FlipResult{}}
}

// Apply records a completed flip.
func (t *Tracker) Apply(result coin.FlipResult) {
	t.stats = Record(t.previous, result.Label, t.stats)
	t.previous = coin.Some(result.Label)
	t.history = Prepend(result, t.history, t.capacity)
}

// Reset clears statistics, previous label and history.
func (t *Tracker) Reset() {
	t.stats = Statistics{}
	t.previous = coin.NullLabel{}
	t.history = []coin.FlipResult{}
}

// Stats returns the current statistics.
func (t *Tracker) Stats() Statistics {
	return t.stats
}

// History returns a copy of the history, newest first.
func (t *Tracker) History() []coin.FlipResult {
	out := make([]coin.FlipResult, len(t.history))
	copy(out, t.history)
	return out
}

// Capacity returns the history bound.
func (t *Tracker) Capacity() int {
	return t.capacity
}

// Snapshot returns a copy of the tracker state.
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		Stats:    t.stats,
		Previous: t.previous,
		History:  t.History(),
		Capacity: t.capacity,
	}
}
