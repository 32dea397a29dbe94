package sim

import "errors"

var (
	ErrInvalidTrialParams = errors.New("invalid trial parameters")
	ErrInvalidBatchParams = errors.New("invalid batch parameters")
)
