package quantum

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/verte-zerg/qflip/internal/coin"
)

var (
	// ErrQubitRange is returned for operations addressed outside qubit 0.
	ErrQubitRange = errors.New("qubit index out of range")
	// ErrNoMeasurement is returned when a register is read before it was written.
	ErrNoMeasurement = errors.New("classical register has no measurement")
)

// Gate names a single-qubit gate.
type Gate string

const (
	// GateH is the Hadamard gate.
	GateH Gate = "h"
	// GateX is the Pauli-X gate.
	GateX Gate = "x"
)

type measurement struct {
	creg string
}

// Circuit is a one-qubit circuit: gates run in order, then measurements.
type Circuit struct {
	gates    []Gate
	measures []measurement
	cregs    map[string]coin.Bit
	probs    [2]float64
	ran      bool
}

// NewCircuit returns an empty circuit.
func NewCircuit() *Circuit {
	return &Circuit{cregs: map[string]coin.Bit{}}
}

// AddGate appends a gate on the given qubit.
func (c *Circuit) AddGate(g Gate, target int) error {
	if target != 0 {
		return fmt.Errorf("gate %s on qubit %d: %w", g, target, ErrQubitRange)
	}
	switch g {
	case GateH, GateX:
	default:
		return fmt.Errorf("unsupported gate %q", g)
	}
	c.gates = append(c.gates, g)
	return nil
}

// AddMeasure measures the qubit into bit 0 of the named classical register.
func (c *Circuit) AddMeasure(target int, creg string) error {
	if target != 0 {
		return fmt.Errorf("measure qubit %d: %w", target, ErrQubitRange)
	}
	if creg == "" {
		return fmt.Errorf("classical register name is empty")
	}
	c.measures = append(c.measures, measurement{creg: creg})
	return nil
}

// Run evolves |0⟩ through the gates and performs the measurements.
func (c *Circuit) Run(rnd *rand.Rand) error {
	if rnd == nil {
		return fmt.Errorf("random source is nil")
	}
	q := NewQubit()
	for _, g := range c.gates {
		switch g {
		case GateH:
			q.ApplyHadamard()
		case GateX:
			q.ApplyX()
		}
	}
	p0, p1 := q.Probabilities()
	c.probs = [2]float64{p0, p1}
	for _, m := range c.measures {
		c.cregs[m.creg] = q.Measure(rnd)
	}
	c.ran = true
	return nil
}

// CregValue returns the value stored in a classical register.
func (c *Circuit) CregValue(name string) (coin.Bit, error) {
	v, ok := c.cregs[name]
	if !c.ran || !ok {
		return 0, fmt.Errorf("register %q: %w", name, ErrNoMeasurement)
	}
	return v, nil
}

// Probabilities returns the pre-measurement probabilities of |0⟩ and |1⟩
// from the last run.
func (c *Circuit) Probabilities() [2]float64 {
	return c.probs
}
