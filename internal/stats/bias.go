package stats

import (
	"math"

	mstats "github.com/montanaflynn/stats"

	"github.com/verte-zerg/qflip/internal/coin"
)

// Bias describes how far a flip sequence is from a fair coin.
type Bias struct {
	// BitMean is the mean of the measured bits (0 heads, 1 tails).
	BitMean float64
	// BitStdDev is the population standard deviation of the bits.
	BitStdDev float64
	// MeanProbabilityOfZero averages the reported pre-measurement P(|0⟩).
	MeanProbabilityOfZero float64
	// ChiSquare is the goodness-of-fit statistic against 50/50, one degree of freedom.
	ChiSquare float64
	// ZScore is the standardised deviation of the heads count from n/2.
	ZScore float64
}

// chiSquareCritical95 is the 5% critical value for one degree of freedom.
const chiSquareCritical95 = 3.841

// Suspicious reports whether a fair coin would produce this result less than 5% of the time.
func (b Bias) Suspicious() bool {
	return b.ChiSquare > chiSquareCritical95
}

// AnalyzeBias computes bias figures for flips. An empty slice yields a zero Bias.
func AnalyzeBias(flips []coin.FlipResult) (Bias, error) {
	if len(flips) == 0 {
		return Bias{}, nil
	}
	bits := make(mstats.Float64Data, len(flips))
	probs := make(mstats.Float64Data, len(flips))
	heads := 0
	for i, f := range flips {
		if f.Label == coin.Tails {
			bits[i] = 1
		} else {
			heads++
		}
		probs[i] = f.ProbabilityOfZero
	}

	var (
		b   Bias
		err error
	)
	if b.BitMean, err = bits.Mean(); err != nil {
		return Bias{}, err
	}
	if b.BitStdDev, err = bits.StandardDeviation(); err != nil {
		return Bias{}, err
	}
	if b.MeanProbabilityOfZero, err = probs.Mean(); err != nil {
		return Bias{}, err
	}

	n := float64(len(flips))
	expected := n / 2
	tails := n - float64(heads)
	b.ChiSquare = (math.Pow(float64(heads)-expected, 2) + math.Pow(tails-expected, 2)) / expected
	b.ZScore = (float64(heads) - expected) / math.Sqrt(n/4)
	return b, nil
}
