package sim

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/rankop88888/promo-sim-go/internal/paytable"
)

func scenarioRequest(t *testing.T, numTrials int) BatchRequest {
	t.Helper()
	table, err := paytable.Default(0.96)
	if err != nil {
		t.Fatalf("paytable.Default failed: %v", err)
	}
	return BatchRequest{
		Params:    TrialParams{FaceValue: 5000, BetSize: 500, WageringMultiplier: 40},
		Table:     table,
		NumTrials: numTrials,
		Seed:      42,
	}
}

func TestRunnerValidation(t *testing.T) {
	runner := NewRunner()
	ctx := context.Background()

	t.Run("zero_trials", func(t *testing.T) {
		req := scenarioRequest(t, 100)
		req.NumTrials = 0
		_, err := runner.Run(ctx, req)
		if !errors.Is(err, ErrInvalidBatchParams) {
			t.Errorf("Expected ErrInvalidBatchParams, got %v", err)
		}
	})

	t.Run("negative_trials", func(t *testing.T) {
		req := scenarioRequest(t, 100)
		req.NumTrials = -5
		_, err := runner.Run(ctx, req)
		if !errors.Is(err, ErrInvalidBatchParams) {
			t.Errorf("Expected ErrInvalidBatchParams, got %v", err)
		}
	})

	t.Run("nil_table", func(t *testing.T) {
		req := scenarioRequest(t, 100)
		req.Table = nil
		_, err := runner.Run(ctx, req)
		if !errors.Is(err, ErrInvalidBatchParams) {
			t.Errorf("Expected ErrInvalidBatchParams, got %v", err)
		}
	})

	t.Run("invalid_trial_params_abort", func(t *testing.T) {
		req := scenarioRequest(t, 100)
		req.Params.BetSize = 0
		summary, err := runner.Run(ctx, req)
		if !errors.Is(err, ErrInvalidTrialParams) {
			t.Errorf("Expected ErrInvalidTrialParams, got %v", err)
		}
		if summary != nil {
			t.Error("Expected no partial summary on configuration error")
		}
	})
}

func TestRunnerBasicInvariants(t *testing.T) {
	runner := NewRunner()
	req := scenarioRequest(t, 2000)

	summary, err := runner.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.TrialsRun != 2000 {
		t.Errorf("Expected 2000 trials run, got %d", summary.TrialsRun)
	}
	if summary.Incomplete {
		t.Error("Expected complete batch")
	}
	if summary.SurvivalRate < 0 || summary.SurvivalRate > 1 {
		t.Errorf("Survival rate out of [0, 1]: %v", summary.SurvivalRate)
	}
	if summary.AverageRedeemed < 0 {
		t.Errorf("Average redeemed negative: %v", summary.AverageRedeemed)
	}
	if summary.RequiredWager != 200000 {
		t.Errorf("Expected required wager 200000, got %v", summary.RequiredWager)
	}
	if summary.Survived != int(summary.SurvivalRate*float64(summary.TrialsRun)+0.5) {
		t.Errorf("Survived count %d inconsistent with rate %v", summary.Survived, summary.SurvivalRate)
	}
}

func TestRunnerDeterministicAcrossWorkerCounts(t *testing.T) {
	runner := NewRunner()
	ctx := context.Background()

	var baseline *BatchSummary
	for _, workers := range []int{1, 2, 4, 8} {
		req := scenarioRequest(t, 5000)
		req.Workers = workers
		req.WithTrajectory = true

		summary, err := runner.Run(ctx, req)
		if err != nil {
			t.Fatalf("Run with %d workers failed: %v", workers, err)
		}

		if baseline == nil {
			baseline = summary
			continue
		}

		if summary.Survived != baseline.Survived {
			t.Errorf("Workers=%d: survived %d != baseline %d", workers, summary.Survived, baseline.Survived)
		}
		if summary.SurvivalRate != baseline.SurvivalRate {
			t.Errorf("Workers=%d: survival rate %v != baseline %v", workers, summary.SurvivalRate, baseline.SurvivalRate)
		}
		if summary.AverageRedeemed != baseline.AverageRedeemed {
			t.Errorf("Workers=%d: average redeemed %v != baseline %v", workers, summary.AverageRedeemed, baseline.AverageRedeemed)
		}
		if len(summary.Trajectory) != len(baseline.Trajectory) {
			t.Fatalf("Workers=%d: trajectory length %d != baseline %d", workers, len(summary.Trajectory), len(baseline.Trajectory))
		}
		for i := range summary.Trajectory {
			if summary.Trajectory[i] != baseline.Trajectory[i] {
				t.Fatalf("Workers=%d: trajectory diverges at spin %d", workers, i)
			}
		}
	}
}

func TestRunnerStandardPromoBatchReproducible(t *testing.T) {
	// Full-size reference batch: 5000 face value, 500 bet, 40x wagering,
	// 0.96 RTP, 10000 trials, seed 42. Two runs must agree bit for bit.
	runner := NewRunner()
	ctx := context.Background()

	first, err := runner.Run(ctx, scenarioRequest(t, 10000))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	second, err := runner.Run(ctx, scenarioRequest(t, 10000))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if first.TrialsRun != 10000 || first.Incomplete {
		t.Fatalf("Expected a complete 10000-trial batch, got %d trials (incomplete=%v)",
			first.TrialsRun, first.Incomplete)
	}
	if first.RequiredWager != 200000 {
		t.Errorf("Expected required wager 200000, got %v", first.RequiredWager)
	}
	if first.SurvivalRate < 0 || first.SurvivalRate > 1 {
		t.Errorf("Survival rate out of [0, 1]: %v", first.SurvivalRate)
	}

	if second.Survived != first.Survived {
		t.Errorf("Survived %d != %d on repeated run", second.Survived, first.Survived)
	}
	if second.SurvivalRate != first.SurvivalRate {
		t.Errorf("Survival rate %v != %v on repeated run", second.SurvivalRate, first.SurvivalRate)
	}
	if second.AverageRedeemed != first.AverageRedeemed {
		t.Errorf("Average redeemed %v != %v on repeated run", second.AverageRedeemed, first.AverageRedeemed)
	}
}

func TestRunnerSeedChangesResults(t *testing.T) {
	runner := NewRunner()
	ctx := context.Background()

	a, err := runner.Run(ctx, scenarioRequest(t, 5000))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	req := scenarioRequest(t, 5000)
	req.Seed = 43
	b, err := runner.Run(ctx, req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if a.Survived == b.Survived && a.AverageRedeemed == b.AverageRedeemed {
		t.Error("Expected different seeds to produce different aggregates")
	}
}

func TestRunnerWageringMultiplierMonotonicity(t *testing.T) {
	runner := NewRunner()
	ctx := context.Background()

	easy := scenarioRequest(t, 3000)
	easy.Params.WageringMultiplier = 1

	hard := scenarioRequest(t, 3000)
	hard.Params.WageringMultiplier = 40

	easySummary, err := runner.Run(ctx, easy)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	hardSummary, err := runner.Run(ctx, hard)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// A 40x requirement busts far more tickets than a 1x requirement; with
	// 3000 trials the gap dwarfs sampling noise.
	if easySummary.SurvivalRate <= hardSummary.SurvivalRate {
		t.Errorf("Expected survival at 1x (%v) to exceed survival at 40x (%v)",
			easySummary.SurvivalRate, hardSummary.SurvivalRate)
	}
}

func TestRunnerCancellation(t *testing.T) {
	runner := NewRunner()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // already cancelled: no trial should complete a full batch

	summary, err := runner.Run(ctx, scenarioRequest(t, 100000))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !summary.Incomplete {
		t.Error("Expected incomplete summary after cancellation")
	}
	if summary.TrialsRun >= summary.NumTrials {
		t.Errorf("Expected partial run, got %d of %d trials", summary.TrialsRun, summary.NumTrials)
	}
	if summary.SurvivalRate < 0 || summary.SurvivalRate > 1 {
		t.Errorf("Survival rate out of [0, 1]: %v", summary.SurvivalRate)
	}
}

func TestRunnerProgress(t *testing.T) {
	runner := NewRunner()

	var lastDone, calls uint64
	req := scenarioRequest(t, 2000)
	req.Workers = 1
	req.OnProgress = func(done, total uint64) {
		atomic.StoreUint64(&lastDone, done)
		atomic.AddUint64(&calls, 1)
		if total != 2000 {
			t.Errorf("Expected total 2000, got %d", total)
		}
	}

	if _, err := runner.Run(context.Background(), req); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if atomic.LoadUint64(&calls) == 0 {
		t.Fatal("Expected progress callbacks")
	}
	if atomic.LoadUint64(&lastDone) != 2000 {
		t.Errorf("Expected final progress 2000, got %d", lastDone)
	}
}

func TestRunnerTrajectoryOnlyWhenRequested(t *testing.T) {
	runner := NewRunner()
	ctx := context.Background()

	plain, err := runner.Run(ctx, scenarioRequest(t, 200))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if plain.Trajectory != nil {
		t.Error("Expected no trajectory by default")
	}

	req := scenarioRequest(t, 200)
	req.WithTrajectory = true
	traced, err := runner.Run(ctx, req)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(traced.Trajectory) == 0 {
		t.Error("Expected a trajectory when requested")
	}
}

func BenchmarkRunner(b *testing.B) {
	table, err := paytable.Default(0.96)
	if err != nil {
		b.Fatalf("paytable.Default failed: %v", err)
	}
	runner := NewRunner()
	req := BatchRequest{
		Params:    TrialParams{FaceValue: 5000, BetSize: 500, WageringMultiplier: 40},
		Table:     table,
		NumTrials: 1000,
		Seed:      42,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := runner.Run(context.Background(), req); err != nil {
			b.Fatal(err)
		}
	}
}
