package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rankop88888/promo-sim-go/internal/engine"
	"github.com/rankop88888/promo-sim-go/internal/paytable"
	"github.com/rankop88888/promo-sim-go/internal/sim"
	"github.com/rankop88888/promo-sim-go/internal/store"
)

// handleSimulate runs one batch, optionally persists it, and returns the
// summary with derived cost figures.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation, "Invalid JSON format", map[string]any{
			"error": err.Error(),
		})
		return
	}

	if req.NumTrials > s.opts.MaxTrials {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation,
			fmt.Sprintf("num_trials %d exceeds maximum %d", req.NumTrials, s.opts.MaxTrials), nil)
		return
	}

	table, err := buildTable(&req)
	if err != nil {
		s.writeCoreError(w, r, err, nil)
		return
	}

	seed := uint64(0)
	if req.Seed != nil {
		seed = *req.Seed
	} else {
		seed, err = engine.RandomSeed()
		if err != nil {
			s.writeCoreError(w, r, err, nil)
			return
		}
	}

	batchReq := s.batchRequest(&req, table, seed)

	ctx := r.Context()
	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = contextWithTimeoutMs(ctx, req.TimeoutMs)
		defer cancel()
	}

	s.logger.Printf(
		"simulate_request face_value=%v bet_size=%v wagering_multiplier=%v target_rtp=%v num_trials=%d seed=%d",
		req.FaceValue, req.BetSize, req.WageringMultiplier, req.TargetRTP, req.NumTrials, seed,
	)

	start := time.Now()
	summary, err := s.runner.Run(ctx, batchReq)
	if err != nil {
		s.writeCoreError(w, r, err, map[string]any{
			"num_trials": req.NumTrials,
		})
		return
	}
	duration := time.Since(start)

	response := SimulateResponse{
		Seed:            seed,
		Summary:         *summary,
		TicketCost:      sim.TicketCost(summary),
		HitRate:         table.HitRate(),
		PayoutStdDev:    table.StdDev(),
		CalibratedTable: paytableResponse(table),
		EngineVersion:   EngineVersion,
		Echo:            req,
	}

	if s.db != nil && (req.Persist == nil || *req.Persist) {
		run := runRecord(&req, summary, table, seed, duration)
		if err := s.db.SaveRun(r.Context(), run); err != nil {
			// Simulation succeeded; report it even if persistence did not
			s.logger.Printf("run_persist_failed err=%q", err.Error())
		} else {
			response.RunID = run.ID
		}
	}

	s.logger.Printf(
		"simulate_completed survival_rate=%v average_redeemed=%v trials_run=%d incomplete=%t duration=%v",
		summary.SurvivalRate, summary.AverageRedeemed, summary.TrialsRun, summary.Incomplete, duration,
	)

	s.writeJSON(w, http.StatusOK, response)
}

// handleExpense prices promo scenarios against a stored run or an inline
// summary.
func (s *Server) handleExpense(w http.ResponseWriter, r *http.Request) {
	var req ExpenseRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation, "Invalid JSON format", map[string]any{
			"error": err.Error(),
		})
		return
	}

	var summary sim.BatchSummary
	switch {
	case req.RunID != "":
		if s.db == nil {
			s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation,
				"run_id given but persistence is disabled", nil)
			return
		}
		run, err := s.db.GetRun(r.Context(), req.RunID)
		if err != nil {
			s.writeCoreError(w, r, err, map[string]any{"run_id": req.RunID})
			return
		}
		summary = sim.BatchSummary{
			SurvivalRate:    run.SurvivalRate,
			AverageRedeemed: run.AverageRedeemed,
		}
	case req.SurvivalRate != nil && req.AverageRedeemed != nil:
		summary = sim.BatchSummary{
			SurvivalRate:    *req.SurvivalRate,
			AverageRedeemed: *req.AverageRedeemed,
		}
	default:
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation,
			"either run_id or survival_rate and average_redeemed are required", nil)
		return
	}

	rows := sim.BuildExpenseTable(&summary, req.Scenarios, req.PointCost)

	s.writeJSON(w, http.StatusOK, ExpenseResponse{
		Rows:          rows,
		TicketCost:    sim.TicketCost(&summary),
		EngineVersion: EngineVersion,
	})
}

// handleDefaultPaytable returns the synthetic slot table, calibrated if a
// target_rtp query parameter is given.
func (s *Server) handleDefaultPaytable(w http.ResponseWriter, r *http.Request) {
	targetRTP := 0.96
	if raw := r.URL.Query().Get("target_rtp"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation,
				fmt.Sprintf("invalid target_rtp %q", raw), nil)
			return
		}
		targetRTP = parsed
	}

	table, err := paytable.Default(targetRTP)
	if err != nil {
		s.writeCoreError(w, r, err, nil)
		return
	}

	s.writeJSON(w, http.StatusOK, paytableResponse(table))
}

// handleListRuns returns recent persisted runs.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeJSON(w, http.StatusOK, RunsResponse{EngineVersion: EngineVersion})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation,
				fmt.Sprintf("invalid limit %q", raw), nil)
			return
		}
		limit = parsed
	}

	runs, err := s.db.ListRecentRuns(r.Context(), limit)
	if err != nil {
		s.writeCoreError(w, r, err, nil)
		return
	}

	s.writeJSON(w, http.StatusOK, RunsResponse{Runs: runs, EngineVersion: EngineVersion})
}

// handleGetRun returns one persisted run.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, r, http.StatusNotFound, ErrTypeNotFound, "persistence is disabled", nil)
		return
	}

	id := chi.URLParam(r, "id")
	run, err := s.db.GetRun(r.Context(), id)
	if err != nil {
		s.writeCoreError(w, r, err, map[string]any{"run_id": id})
		return
	}

	s.writeJSON(w, http.StatusOK, run)
}

// handleDeleteRun removes one persisted run.
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, r, http.StatusNotFound, ErrTypeNotFound, "persistence is disabled", nil)
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.db.DeleteRun(r.Context(), id); err != nil {
		s.writeCoreError(w, r, err, map[string]any{"run_id": id})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// batchRequest assembles the core request, falling back to the server's
// configured pool size when the request does not name one.
func (s *Server) batchRequest(req *SimulateRequest, table *paytable.Table, seed uint64) sim.BatchRequest {
	workers := req.Workers
	if workers <= 0 {
		workers = s.opts.Workers
	}

	return sim.BatchRequest{
		Params: sim.TrialParams{
			FaceValue:          req.FaceValue,
			BetSize:            req.BetSize,
			WageringMultiplier: req.WageringMultiplier,
		},
		Table:          table,
		NumTrials:      req.NumTrials,
		Seed:           seed,
		Workers:        workers,
		WithTrajectory: req.IncludeTrajectory,
	}
}

// buildTable constructs the calibrated table for a request, defaulting the
// base distribution when none is given.
func buildTable(req *SimulateRequest) (*paytable.Table, error) {
	if len(req.Payouts) == 0 && len(req.Weights) == 0 {
		return paytable.Default(req.TargetRTP)
	}
	return paytable.New(req.Payouts, req.Weights, req.TargetRTP)
}

func paytableResponse(t *paytable.Table) PaytableResponse {
	return PaytableResponse{
		Multipliers: t.Multipliers(),
		Weights:     t.Weights(),
		TargetRTP:   t.TargetRTP(),
		Scale:       t.Scale(),
		HitRate:     t.HitRate(),
		StdDev:      t.StdDev(),
	}
}

func contextWithTimeoutMs(ctx context.Context, ms int) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(ms)*time.Millisecond)
}

func runRecord(req *SimulateRequest, summary *sim.BatchSummary, table *paytable.Table, seed uint64, duration time.Duration) *store.Run {
	tableJSON, _ := json.Marshal(paytableResponse(table))
	return &store.Run{
		FaceValue:          req.FaceValue,
		BetSize:            req.BetSize,
		WageringMultiplier: req.WageringMultiplier,
		TargetRTP:          req.TargetRTP,
		PaytableJSON:       string(tableJSON),
		NumTrials:          summary.NumTrials,
		TrialsRun:          summary.TrialsRun,
		Seed:               seed,
		Survived:           summary.Survived,
		SurvivalRate:       summary.SurvivalRate,
		AverageRedeemed:    summary.AverageRedeemed,
		RequiredWager:      summary.RequiredWager,
		Incomplete:         summary.Incomplete,
		DurationMs:         duration.Milliseconds(),
	}
}
