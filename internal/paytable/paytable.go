// Package paytable models a discrete slot payout distribution calibrated to
// an exact target RTP. Weights represent fixed game mechanics (hit
// frequencies) and are never touched; calibration linearly scales the payout
// multipliers instead.
package paytable

import (
	"fmt"
	"math"
)

const (
	// weightSumTolerance bounds the allowed drift of Σ weights from 1.
	weightSumTolerance = 1e-9

	// maxTargetRTP allows player-advantage promos but rejects typos like 96
	// where 0.96 was meant.
	maxTargetRTP = 2.0
)

// Synthetic slot model used by the promo planners: most spins lose, some
// small wins, rare big win.
var (
	defaultMultipliers = []float64{0, 0.2, 1, 3, 10, 50}
	defaultWeights     = []float64{0.75, 0.12, 0.08, 0.04, 0.009, 0.001}
)

// Table is an immutable, calibrated payout table. Safe for concurrent reads;
// construct once per batch and share across workers.
type Table struct {
	multipliers []float64 // scaled to hit targetRTP
	weights     []float64
	cumulative  []float64 // running weight sums, for sampling
	targetRTP   float64
	scale       float64
}

// New validates the base table and calibrates it so that the expected payout
// under the base weights equals targetRTP.
func New(multipliers, weights []float64, targetRTP float64) (*Table, error) {
	if len(multipliers) == 0 {
		return nil, fmt.Errorf("%w: empty payout table", ErrInvalidDistribution)
	}
	if len(multipliers) != len(weights) {
		return nil, fmt.Errorf("%w: %d payouts but %d weights",
			ErrInvalidDistribution, len(multipliers), len(weights))
	}
	if targetRTP <= 0 {
		return nil, fmt.Errorf("%w: target RTP must be positive, got %v",
			ErrInvalidDistribution, targetRTP)
	}
	if targetRTP > maxTargetRTP {
		return nil, fmt.Errorf("%w: target RTP %v exceeds maximum %v",
			ErrInvalidDistribution, targetRTP, maxTargetRTP)
	}

	var weightSum, baseEV float64
	for i := range multipliers {
		if multipliers[i] < 0 {
			return nil, fmt.Errorf("%w: negative payout multiplier %v at index %d",
				ErrInvalidDistribution, multipliers[i], i)
		}
		if weights[i] < 0 {
			return nil, fmt.Errorf("%w: negative weight %v at index %d",
				ErrInvalidDistribution, weights[i], i)
		}
		weightSum += weights[i]
		baseEV += multipliers[i] * weights[i]
	}

	if math.Abs(weightSum-1) > weightSumTolerance {
		return nil, fmt.Errorf("%w: weights sum to %v, expected 1",
			ErrInvalidDistribution, weightSum)
	}

	if baseEV == 0 {
		return nil, fmt.Errorf("%w: base expected value is zero, cannot scale to RTP %v",
			ErrDegenerateDistribution, targetRTP)
	}

	scale := targetRTP / baseEV

	t := &Table{
		multipliers: make([]float64, len(multipliers)),
		weights:     make([]float64, len(weights)),
		cumulative:  make([]float64, len(weights)),
		targetRTP:   targetRTP,
		scale:       scale,
	}

	acc := 0.0
	for i := range multipliers {
		t.multipliers[i] = multipliers[i] * scale
		t.weights[i] = weights[i]
		acc += weights[i]
		t.cumulative[i] = acc
	}

	return t, nil
}

// Default returns the synthetic slot table calibrated to targetRTP.
func Default(targetRTP float64) (*Table, error) {
	return New(defaultMultipliers, defaultWeights, targetRTP)
}

// DefaultMultipliers returns a copy of the base (uncalibrated) multipliers.
func DefaultMultipliers() []float64 {
	out := make([]float64, len(defaultMultipliers))
	copy(out, defaultMultipliers)
	return out
}

// DefaultWeights returns a copy of the default weights.
func DefaultWeights() []float64 {
	out := make([]float64, len(defaultWeights))
	copy(out, defaultWeights)
	return out
}

type floatSource interface {
	Float64() float64
}

// Sample draws one payout multiplier according to the table weights,
// consuming exactly one float from src.
func (t *Table) Sample(src floatSource) float64 {
	f := src.Float64()

	for i, c := range t.cumulative {
		if f < c {
			return t.multipliers[i]
		}
	}

	// Cumulative sums can fall fractionally short of 1; clamp to last bucket
	return t.multipliers[len(t.multipliers)-1]
}

// Multipliers returns a copy of the calibrated payout multipliers.
func (t *Table) Multipliers() []float64 {
	out := make([]float64, len(t.multipliers))
	copy(out, t.multipliers)
	return out
}

// Weights returns a copy of the weights.
func (t *Table) Weights() []float64 {
	out := make([]float64, len(t.weights))
	copy(out, t.weights)
	return out
}

// TargetRTP returns the RTP the table was calibrated to.
func (t *Table) TargetRTP() float64 {
	return t.targetRTP
}

// Scale returns the factor applied to the base multipliers.
func (t *Table) Scale() float64 {
	return t.scale
}

// RTP recomputes the expected payout from the calibrated table. Equals
// TargetRTP within floating tolerance; exposed for verification.
func (t *Table) RTP() float64 {
	var ev float64
	for i := range t.multipliers {
		ev += t.multipliers[i] * t.weights[i]
	}
	return ev
}

// HitRate returns the probability that a spin pays anything at all.
func (t *Table) HitRate() float64 {
	var hit float64
	for i := range t.multipliers {
		if t.multipliers[i] > 0 {
			hit += t.weights[i]
		}
	}
	return hit
}

// Variance returns the per-spin payout variance of the calibrated table.
func (t *Table) Variance() float64 {
	mean := t.RTP()
	var acc float64
	for i := range t.multipliers {
		d := t.multipliers[i] - mean
		acc += d * d * t.weights[i]
	}
	return acc
}

// StdDev returns the per-spin payout standard deviation.
func (t *Table) StdDev() float64 {
	return math.Sqrt(t.Variance())
}
