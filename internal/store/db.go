// Package store persists batch runs so analysts can revisit and compare
// past simulations.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run id has no row.
var ErrRunNotFound = errors.New("run not found")

// Run is one persisted batch: the request echo plus its summary.
type Run struct {
	ID                 string    `json:"id"`
	FaceValue          float64   `json:"face_value"`
	BetSize            float64   `json:"bet_size"`
	WageringMultiplier float64   `json:"wagering_multiplier"`
	TargetRTP          float64   `json:"target_rtp"`
	PaytableJSON       string    `json:"paytable_json,omitempty"`
	NumTrials          int       `json:"num_trials"`
	TrialsRun          int       `json:"trials_run"`
	Seed               uint64    `json:"seed"`
	Survived           int       `json:"survived"`
	SurvivalRate       float64   `json:"survival_rate"`
	AverageRedeemed    float64   `json:"average_redeemed"`
	RequiredWager      float64   `json:"required_wager"`
	Incomplete         bool      `json:"incomplete"`
	DurationMs         int64     `json:"duration_ms"`
	CreatedAt          time.Time `json:"created_at"`
}

// DB is the persistence boundary for batch runs.
type DB interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRecentRuns(ctx context.Context, limit int) ([]*Run, error)
	DeleteRun(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}
