// Package coin defines flip outcomes and their labels.
package coin

import (
	"fmt"
	"time"
)

// Bit is a classical measurement result, 0 or 1.
type Bit uint8

// Label is the human-facing side of the coin.
type Label int

const (
	// Heads is the label for a measured 0.
	Heads Label = iota
	// Tails is the label for a measured 1.
	Tails
)

// FromBit maps a measured bit to its label: 0 is Heads, anything else Tails.
func FromBit(b Bit) Label {
	if b == 0 {
		return Heads
	}
	return Tails
}

// String implements fmt.Stringer.
func (l Label) String() string {
	switch l {
	case Heads:
		return "Heads"
	case Tails:
		return "Tails"
	default:
		return fmt.Sprintf("Label(%d)", int(l))
	}
}

// Short returns the single-letter form used in compact strips.
func (l Label) Short() string {
	if l == Heads {
		return "H"
	}
	return "T"
}

// NullLabel is a Label that may be absent, in the manner of sql.NullString.
type NullLabel struct {
	Label Label
	Valid bool
}

// Some wraps a present label.
func Some(l Label) NullLabel {
	return NullLabel{Label: l, Valid: true}
}

// Outcome is what a randomness source returns for one trial.
type Outcome struct {
	Bit Bit
	// ProbabilityOfZero is the pre-measurement probability of |0⟩.
	// It is informational and never decides the label.
	ProbabilityOfZero float64
}

// Label maps the outcome's bit.
func (o Outcome) Label() Label {
	return FromBit(o.Bit)
}

// FlipResult is one completed trial.
type FlipResult struct {
	ID                string
	Label             Label
	ProbabilityOfZero float64
	Timestamp         time.Time
}
