package sim

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rankop88888/promo-sim-go/internal/engine"
	"github.com/rankop88888/promo-sim-go/internal/paytable"
)

// trialChunkSize trials per job keeps channel traffic low while leaving
// enough chunks for even distribution across workers.
const trialChunkSize = 256

// ProgressFunc observes batch progress. It may be called concurrently from
// several workers and must not affect simulation results.
type ProgressFunc func(done, total uint64)

// BatchRequest describes one batch of independent trials.
type BatchRequest struct {
	Params    TrialParams
	Table     *paytable.Table
	NumTrials int
	// Seed fixes every trial's random stream; identical requests replay
	// bit-for-bit at any worker count.
	Seed    uint64
	Workers int // 0 means GOMAXPROCS
	// WithTrajectory records trial 0's balance walk for charting.
	WithTrajectory bool
	OnProgress     ProgressFunc
}

// BatchSummary aggregates a batch. Non-surviving trials contribute 0 to
// AverageRedeemed.
type BatchSummary struct {
	NumTrials       int       `json:"num_trials"`
	TrialsRun       int       `json:"trials_run"`
	Survived        int       `json:"survived"`
	SurvivalRate    float64   `json:"survival_rate"`
	AverageRedeemed float64   `json:"average_redeemed"`
	RequiredWager   float64   `json:"required_wager"`
	Incomplete      bool      `json:"incomplete,omitempty"`
	Trajectory      []float64 `json:"trajectory,omitempty"`
}

// chunkJob is a half-open range of trial indexes.
type chunkJob struct {
	index int
	start int
	end   int
}

// chunkPartial carries one chunk's local reduction back to the collector.
type chunkPartial struct {
	index       int
	survived    int
	redeemedSum float64
	trials      int
}

// Runner executes batches on a worker pool.
type Runner struct {
	workers int
}

// NewRunner creates a runner sized to the machine.
func NewRunner() *Runner {
	return &Runner{workers: runtime.GOMAXPROCS(0)}
}

// Run executes the batch. Invalid configuration aborts before any trial
// runs; context cancellation stops between trials and returns the partial
// aggregation marked incomplete.
func (r *Runner) Run(ctx context.Context, req BatchRequest) (*BatchSummary, error) {
	if req.NumTrials <= 0 {
		return nil, fmt.Errorf("%w: num trials must be positive, got %d", ErrInvalidBatchParams, req.NumTrials)
	}
	if req.Table == nil {
		return nil, fmt.Errorf("%w: nil payout table", ErrInvalidBatchParams)
	}
	if err := req.Params.Validate(); err != nil {
		return nil, err
	}

	workers := req.Workers
	if workers <= 0 {
		workers = r.workers
	}

	numChunks := (req.NumTrials + trialChunkSize - 1) / trialChunkSize
	jobs := make(chan chunkJob, workers*2)
	// Each chunk reports exactly once; full buffer means workers never block
	partials := make(chan chunkPartial, numChunks)

	var done uint64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case job, ok := <-jobs:
					if !ok {
						return
					}
					p := chunkPartial{index: job.index}
					for trial := job.start; trial < job.end; trial++ {
						select {
						case <-ctx.Done():
							partials <- p
							return
						default:
						}

						src := engine.NewStream(req.Seed, uint64(trial))
						res := runTrial(req.Params, req.Table, src, nil)
						if res.Survived {
							p.survived++
						}
						p.redeemedSum += res.FinalBalance
						p.trials++
					}
					partials <- p

					if req.OnProgress != nil {
						req.OnProgress(atomic.AddUint64(&done, uint64(p.trials)), uint64(req.NumTrials))
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for index, start := 0, 0; start < req.NumTrials; index++ {
			end := start + trialChunkSize
			if end > req.NumTrials {
				end = req.NumTrials
			}
			select {
			case jobs <- chunkJob{index: index, start: start, end: end}:
				start = end
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(partials)

	byIndex := make([]chunkPartial, numChunks)
	for p := range partials {
		byIndex[p.index] = p
	}

	// Fold partials in chunk order so the float sum is identical at any
	// worker count.
	var survived, trialsRun int
	var redeemedSum float64
	for i := range byIndex {
		survived += byIndex[i].survived
		redeemedSum += byIndex[i].redeemedSum
		trialsRun += byIndex[i].trials
	}

	summary := &BatchSummary{
		NumTrials:     req.NumTrials,
		TrialsRun:     trialsRun,
		Survived:      survived,
		RequiredWager: req.Params.RequiredWager(),
		Incomplete:    trialsRun < req.NumTrials,
	}
	if trialsRun > 0 {
		summary.SurvivalRate = float64(survived) / float64(trialsRun)
		summary.AverageRedeemed = redeemedSum / float64(trialsRun)
	}

	if req.WithTrajectory && trialsRun > 0 {
		// Trial 0's stream replays identically, so this walk is exactly
		// what the batch played for that ticket.
		_, trajectory, err := RunTrialTrajectory(req.Params, req.Table, engine.NewStream(req.Seed, 0))
		if err == nil {
			summary.Trajectory = trajectory
		}
	}

	return summary, nil
}
