// Package sim runs promo tickets through a wagering requirement: one
// spin-by-spin balance walk per ticket, aggregated over many independent
// trials into survival and redemption statistics.
package sim

import (
	"fmt"

	"github.com/rankop88888/promo-sim-go/internal/engine"
	"github.com/rankop88888/promo-sim-go/internal/paytable"
)

// TrialParams describes one promo ticket.
type TrialParams struct {
	// FaceValue is the ticket's starting balance.
	FaceValue float64 `json:"face_value"`
	// BetSize is wagered on every spin.
	BetSize float64 `json:"bet_size"`
	// WageringMultiplier times FaceValue must be wagered before the balance
	// becomes redeemable.
	WageringMultiplier float64 `json:"wagering_multiplier"`
}

// Validate rejects parameter sets that could never terminate or make no
// sense. Must pass before any spin loop runs.
func (p TrialParams) Validate() error {
	if p.FaceValue <= 0 {
		return fmt.Errorf("%w: face value must be positive, got %v", ErrInvalidTrialParams, p.FaceValue)
	}
	if p.BetSize <= 0 {
		return fmt.Errorf("%w: bet size must be positive, got %v", ErrInvalidTrialParams, p.BetSize)
	}
	if p.WageringMultiplier < 1 {
		return fmt.Errorf("%w: wagering multiplier must be at least 1, got %v", ErrInvalidTrialParams, p.WageringMultiplier)
	}
	return nil
}

// RequiredWager is the total amount that must be bet before redemption.
func (p TrialParams) RequiredWager() float64 {
	return p.FaceValue * p.WageringMultiplier
}

// TrialResult is the terminal state of one ticket. Exactly one of two
// outcomes: survived with a positive redeemable balance, or busted with
// nothing left.
type TrialResult struct {
	Survived     bool    `json:"survived"`
	FinalBalance float64 `json:"final_balance"`
	Spins        uint64  `json:"spins"`
}

// RunTrial plays one ticket to termination. The caller supplies the random
// source; the table is shared read-only.
func RunTrial(p TrialParams, table *paytable.Table, src engine.Source) (TrialResult, error) {
	if err := p.Validate(); err != nil {
		return TrialResult{}, err
	}
	return runTrial(p, table, src, nil), nil
}

// RunTrialTrajectory is RunTrial plus the per-spin balance walk, for
// diagnostic charting of a single illustrative ticket.
func RunTrialTrajectory(p TrialParams, table *paytable.Table, src engine.Source) (TrialResult, []float64, error) {
	if err := p.Validate(); err != nil {
		return TrialResult{}, nil, err
	}
	trajectory := make([]float64, 0, trajectoryHint(p))
	res := runTrial(p, table, src, &trajectory)
	return res, trajectory, nil
}

// trajectoryHint sizes the trajectory preallocation. The natural spin bound
// required/bet can overflow int for extreme but valid parameters, so the
// hint is clamped; it is only an optimization.
func trajectoryHint(p TrialParams) int {
	const maxHint = 4096
	ratio := p.RequiredWager() / p.BetSize
	if !(ratio > 0) || ratio > maxHint {
		return maxHint
	}
	return int(ratio)
}

// runTrial assumes pre-validated params; used directly by batch workers to
// skip per-trial re-validation.
func runTrial(p TrialParams, table *paytable.Table, src engine.Source, trace *[]float64) TrialResult {
	required := p.RequiredWager()
	balance := p.FaceValue

	var wagered float64
	var spins uint64

	for balance >= p.BetSize && wagered < required {
		// Each spin costs the bet and credits the outcome in the same step:
		// a push (multiplier 1) leaves the balance unchanged.
		outcome := table.Sample(src)
		balance = balance - p.BetSize + outcome*p.BetSize
		wagered += p.BetSize
		spins++

		if trace != nil {
			*trace = append(*trace, balance)
		}
	}

	// Redemption requires a strictly positive balance; meeting the wager
	// requirement with nothing left is still a bust.
	if wagered >= required && balance > 0 {
		return TrialResult{Survived: true, FinalBalance: balance, Spins: spins}
	}
	return TrialResult{Survived: false, FinalBalance: 0, Spins: spins}
}
