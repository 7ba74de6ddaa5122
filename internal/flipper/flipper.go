// Package flipper sequences a single coin flip through its phases.
//
// A flip moves Idle -> Flipping -> Settling -> Idle. The randomness source is
// called once on entering Flipping; the result is recorded once on entering
// Settling; Finish clears the per-flip display state. Triggers outside Idle
// are ignored. The Orchestrator is driven from one goroutine (the Bubble Tea
// update loop or the headless Flip helper) and is not safe for concurrent use.
package flipper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/verte-zerg/qflip/internal/coin"
	"github.com/verte-zerg/qflip/internal/session"
)

// ErrorLabel is the user-visible text shown after a source failure.
const ErrorLabel = "Error in quantum computation"

// ErrSourceFailure wraps any error returned by the randomness source.
var ErrSourceFailure = errors.New("randomness source failure")

// Default delays between phases.
const (
	DefaultFlipDelay   = 1500 * time.Millisecond
	DefaultSettleDelay = 2 * time.Second
)

// Source produces one outcome per call.
type Source interface {
	Flip(ctx context.Context) (coin.Outcome, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (coin.Outcome, error)

// Flip implements Source.
func (f SourceFunc) Flip(ctx context.Context) (coin.Outcome, error) {
	return f(ctx)
}

// Recorder persists settled flips.
type Recorder interface {
	InsertFlip(ctx context.Context, sessionID string, result coin.FlipResult) error
}

// Phase is the orchestrator state.
type Phase int

const (
	// Idle accepts triggers.
	Idle Phase = iota
	// Flipping holds a measured but not yet revealed outcome.
	Flipping
	// Settling shows the revealed outcome before returning to Idle.
	Settling
)

// String implements fmt.Stringer.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Flipping:
		return "flipping"
	case Settling:
		return "settling"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Config holds the fixed presentation delays.
type Config struct {
	FlipDelay   time.Duration
	SettleDelay time.Duration
}

// DefaultConfig returns the standard delays.
func DefaultConfig() Config {
	return Config{FlipDelay: DefaultFlipDelay, SettleDelay: DefaultSettleDelay}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder persists every settled flip under sessionID.
func WithRecorder(rec Recorder, sessionID string) Option {
	return func(o *Orchestrator) {
		o.recorder = rec
		o.sessionID = sessionID
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithSleeper overrides how Flip waits between phases.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(o *Orchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// WithIDGenerator overrides flip ID generation.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// Orchestrator runs flips against a source and feeds a session tracker.
type Orchestrator struct {
	source  Source
	tracker *session.Tracker
	cfg     Config

	recorder  Recorder
	sessionID string
	logger    *log.Logger
	now       func() time.Time
	sleep     func(time.Duration)
	newID     func() string

	phase      Phase
	pending    coin.Outcome
	hasPending bool
	current    coin.FlipResult
	hasCurrent bool
	message    string
	lastErr    error
	saved      bool
}

// New builds an Orchestrator in the Idle phase.
func New(source Source, tracker *session.Tracker, cfg Config, opts ...Option) *Orchestrator {
	if cfg.FlipDelay < 0 {
		cfg.FlipDelay = 0
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	o := &Orchestrator{
		source:  source,
		tracker: tracker,
		cfg:     cfg,
		logger:  log.Default(),
		now:     time.Now,
		sleep:   time.Sleep,
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Config returns the phase delays.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// Phase returns the current phase.
func (o *Orchestrator) Phase() Phase {
	return o.phase
}

// Busy reports whether a flip is in flight.
func (o *Orchestrator) Busy() bool {
	return o.phase != Idle
}

// Message returns the user-visible error text, or "" when the last flip did not fail.
func (o *Orchestrator) Message() string {
	return o.message
}

// LastErr returns the error behind Message, wrapping ErrSourceFailure.
func (o *Orchestrator) LastErr() error {
	return o.lastErr
}

// Current returns the revealed result while Settling.
func (o *Orchestrator) Current() (coin.FlipResult, bool) {
	return o.current, o.hasCurrent
}

// Saved reports whether the most recently settled flip reached the recorder.
func (o *Orchestrator) Saved() bool {
	return o.saved
}

// Snapshot returns the tracker state.
func (o *Orchestrator) Snapshot() session.Snapshot {
	return o.tracker.Snapshot()
}

// Trigger starts a flip. It returns false without side effects when a flip is
// already in flight, and false after a source failure, leaving the
// orchestrator Idle with Message set.
func (o *Orchestrator) Trigger(ctx context.Context) bool {
	if o.phase != Idle {
		return false
	}
	o.phase = Flipping
	o.message = ""
	o.lastErr = nil
	o.hasCurrent = false

	outcome, err := o.source.Flip(ctx)
	if err != nil {
		o.lastErr = fmt.Errorf("%w: %w", ErrSourceFailure, err)
		o.message = ErrorLabel
		o.phase = Idle
		o.hasPending = false
		o.logger.Error("quantum circuit error", "err", err)
		return false
	}
	o.pending = outcome
	o.hasPending = true
	return true
}

// Settle reveals the pending outcome and records it exactly once.
func (o *Orchestrator) Settle(ctx context.Context) (coin.FlipResult, bool) {
	if o.phase != Flipping || !o.hasPending {
		return coin.FlipResult{}, false
	}
	result := coin.FlipResult{
		ID:                o.newID(),
		Label:             o.pending.Label(),
		ProbabilityOfZero: o.pending.ProbabilityOfZero,
		Timestamp:         o.now(),
	}
	o.tracker.Apply(result)
	o.hasPending = false
	o.current = result
	o.hasCurrent = true
	o.phase = Settling

	o.saved = false
	if o.recorder != nil {
		if err := o.recorder.InsertFlip(ctx, o.sessionID, result); err != nil {
			o.logger.Warn("failed to save flip", "id", result.ID, "err", err)
		} else {
			o.saved = true
		}
	}
	return result, true
}

// Finish returns to Idle and clears the per-flip display state.
func (o *Orchestrator) Finish() bool {
	if o.phase != Settling {
		return false
	}
	o.phase = Idle
	o.hasCurrent = false
	o.current = coin.FlipResult{}
	return true
}

// Reset clears the session statistics and history. It is ignored unless Idle.
func (o *Orchestrator) Reset() bool {
	if o.phase != Idle {
		return false
	}
	o.tracker.Reset()
	o.message = ""
	o.lastErr = nil
	return true
}

// Flip runs one complete flip, waiting out both delays. Source failures are
// reported through the false return, Message and LastErr.
func (o *Orchestrator) Flip(ctx context.Context) (coin.FlipResult, bool) {
	if !o.Trigger(ctx) {
		return coin.FlipResult{}, false
	}
	o.sleep(o.cfg.FlipDelay)
	result, ok := o.Settle(ctx)
	o.sleep(o.cfg.SettleDelay)
	o.Finish()
	return result, ok
}
