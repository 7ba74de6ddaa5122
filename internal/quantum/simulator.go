package quantum

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/verte-zerg/qflip/internal/coin"
)

const coinRegister = "c"

// Simulator flips a coin by running H then measure on a fresh qubit.
type Simulator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSimulator returns a Simulator. A zero seed seeds from the current time.
func NewSimulator(seed int64) *Simulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{rnd: rand.New(rand.NewSource(seed))}
}

// Name identifies the source in stored sessions.
func (s *Simulator) Name() string {
	return "hadamard-1q"
}

// Flip builds and runs the one-qubit circuit and reads the classical register.
func (s *Simulator) Flip(ctx context.Context) (coin.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return coin.Outcome{}, err
	}
	circuit := NewCircuit()
	if err := circuit.AddGate(GateH, 0); err != nil {
		return coin.Outcome{}, err
	}
	if err := circuit.AddMeasure(0, coinRegister); err != nil {
		return coin.Outcome{}, err
	}

	s.mu.Lock()
	err := circuit.Run(s.rnd)
	s.mu.Unlock()
	if err != nil {
		return coin.Outcome{}, fmt.Errorf("failed to run circuit: %w", err)
	}

	bit, err := circuit.CregValue(coinRegister)
	if err != nil {
		return coin.Outcome{}, err
	}
	return coin.Outcome{
		Bit:               bit,
		ProbabilityOfZero: circuit.Probabilities()[0],
	}, nil
}
