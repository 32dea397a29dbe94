package paytable

import "errors"

var (
	ErrInvalidDistribution    = errors.New("invalid payout distribution")
	ErrDegenerateDistribution = errors.New("degenerate payout distribution")
)
