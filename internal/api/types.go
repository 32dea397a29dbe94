package api

import (
	"github.com/rankop88888/promo-sim-go/internal/sim"
	"github.com/rankop88888/promo-sim-go/internal/store"
	"github.com/shopspring/decimal"
)

// EngineError represents a structured error response with context.
type EngineError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// Error implements the error interface.
func (e EngineError) Error() string {
	return e.Message
}

// Error types with proper categorization
const (
	// Input validation errors
	ErrTypeValidation   = "validation_error"
	ErrTypeDistribution = "invalid_distribution"
	ErrTypeDegenerate   = "degenerate_distribution"
	ErrTypeTrialParams  = "invalid_trial_parameters"
	ErrTypeBatchParams  = "invalid_batch_parameters"

	// Resource errors
	ErrTypeNotFound = "run_not_found"

	// System errors
	ErrTypeTimeout  = "timeout"
	ErrTypeInternal = "internal_error"
)

// SimulateRequest describes one batch simulation. Payouts and weights are
// optional; omitted together they fall back to the default synthetic slot
// table.
type SimulateRequest struct {
	FaceValue          float64   `json:"face_value"`
	BetSize            float64   `json:"bet_size"`
	WageringMultiplier float64   `json:"wagering_multiplier"`
	TargetRTP          float64   `json:"target_rtp"`
	Payouts            []float64 `json:"payouts,omitempty"`
	Weights            []float64 `json:"weights,omitempty"`
	NumTrials          int       `json:"num_trials"`
	Seed               *uint64   `json:"seed,omitempty"`
	Workers            int       `json:"workers,omitempty"`
	IncludeTrajectory  bool      `json:"include_trajectory,omitempty"`
	TimeoutMs          int       `json:"timeout_ms,omitempty"`
	Persist            *bool     `json:"persist,omitempty"`
}

// SimulateResponse carries the batch summary plus derived cost figures.
type SimulateResponse struct {
	RunID           string           `json:"run_id,omitempty"`
	Seed            uint64           `json:"seed"`
	Summary         sim.BatchSummary `json:"summary"`
	TicketCost      decimal.Decimal  `json:"ticket_cost"`
	HitRate         float64          `json:"hit_rate"`
	PayoutStdDev    float64          `json:"payout_std_dev"`
	CalibratedTable PaytableResponse `json:"calibrated_table"`
	EngineVersion   string           `json:"engine_version"`
	Echo            SimulateRequest  `json:"echo"`
}

// PaytableResponse describes a calibrated payout table.
type PaytableResponse struct {
	Multipliers []float64 `json:"multipliers"`
	Weights     []float64 `json:"weights"`
	TargetRTP   float64   `json:"target_rtp"`
	Scale       float64   `json:"scale"`
	HitRate     float64   `json:"hit_rate"`
	StdDev      float64   `json:"std_dev"`
}

// ExpenseRequest prices promo scenarios against a stored or inline summary.
type ExpenseRequest struct {
	RunID           string                `json:"run_id,omitempty"`
	SurvivalRate    *float64              `json:"survival_rate,omitempty"`
	AverageRedeemed *float64              `json:"average_redeemed,omitempty"`
	PointCost       decimal.Decimal       `json:"point_cost"`
	Scenarios       []sim.ExpenseScenario `json:"scenarios"`
}

// ExpenseResponse is the priced table.
type ExpenseResponse struct {
	Rows          []sim.ExpenseRow `json:"rows"`
	TicketCost    decimal.Decimal  `json:"ticket_cost"`
	EngineVersion string           `json:"engine_version"`
}

// RunsResponse lists persisted runs.
type RunsResponse struct {
	Runs          []*store.Run `json:"runs"`
	EngineVersion string       `json:"engine_version"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status        string `json:"status"`
	EngineVersion string `json:"engine_version"`
	Timestamp     string `json:"timestamp"`
}
