// Package quantum simulates the single-qubit circuit behind a coin flip.
package quantum

import (
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/verte-zerg/qflip/internal/coin"
)

// Qubit holds the two amplitudes of a single qubit.
type Qubit struct {
	alpha complex128 // |0⟩ amplitude
	beta  complex128 // |1⟩ amplitude
}

// NewQubit returns a qubit initialised to |0⟩.
func NewQubit() *Qubit {
	return &Qubit{alpha: 1, beta: 0}
}

// ApplyHadamard maps |0⟩ to (|0⟩+|1⟩)/√2 and |1⟩ to (|0⟩-|1⟩)/√2.
func (q *Qubit) ApplyHadamard() {
	// H = 1/√2 * [1  1]
	//           [1 -1]
	h := complex(1/math.Sqrt2, 0)
	newAlpha := h * (q.alpha + q.beta)
	newBeta := h * (q.alpha - q.beta)
	q.alpha = newAlpha
	q.beta = newBeta
}

// ApplyX swaps the amplitudes.
func (q *Qubit) ApplyX() {
	q.alpha, q.beta = q.beta, q.alpha
}

// Probabilities returns P(|0⟩) and P(|1⟩), normalised.
func (q *Qubit) Probabilities() (p0, p1 float64) {
	p0 = real(q.alpha * cmplx.Conj(q.alpha))
	p1 = real(q.beta * cmplx.Conj(q.beta))
	total := p0 + p1
	if total <= 0 {
		return 1, 0
	}
	return p0 / total, p1 / total
}

// Measure collapses the qubit and returns the observed bit.
func (q *Qubit) Measure(rnd *rand.Rand) coin.Bit {
	p0, _ := q.Probabilities()
	if rnd.Float64() < p0 {
		q.alpha, q.beta = 1, 0
		return 0
	}
	q.alpha, q.beta = 0, 1
	return 1
}
