// Package model defines shared data structures.
package model

import "time"

// Config defines flip settings.
type Config struct {
	HistorySize int
	FlipDelay   time.Duration
	SettleDelay time.Duration
	Seed        int64
	Store       bool
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Since       *time.Time
	Last        int
	CurveWindow int
}

// SessionInfo describes a flip session when it starts.
type SessionInfo struct {
	StartedAt   time.Time
	Source      string
	HistorySize int
}

// SessionAggregate summarizes a stored session for reporting.
type SessionAggregate struct {
	SessionID  string
	StartedAt  time.Time
	Source     string
	Flips      int
	Heads      int
	Tails      int
	LastFlipAt time.Time
}
