package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rankop88888/promo-sim-go/internal/paytable"
	"github.com/rankop88888/promo-sim-go/internal/sim"
	"github.com/rankop88888/promo-sim-go/internal/store"
)

// errorStatus maps a core error to its HTTP status and error type. The core
// raises configuration errors uncaught; this is where they become responses.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, paytable.ErrDegenerateDistribution):
		return http.StatusBadRequest, ErrTypeDegenerate
	case errors.Is(err, paytable.ErrInvalidDistribution):
		return http.StatusBadRequest, ErrTypeDistribution
	case errors.Is(err, sim.ErrInvalidTrialParams):
		return http.StatusBadRequest, ErrTypeTrialParams
	case errors.Is(err, sim.ErrInvalidBatchParams):
		return http.StatusBadRequest, ErrTypeBatchParams
	case errors.Is(err, store.ErrRunNotFound):
		return http.StatusNotFound, ErrTypeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, ErrTypeTimeout
	default:
		return http.StatusInternalServerError, ErrTypeInternal
	}
}

// writeJSON writes a JSON response with proper headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// writeError writes a structured error response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, errType, message string, context map[string]any) {
	s.writeJSON(w, status, EngineError{
		Type:      errType,
		Message:   message,
		Context:   context,
		RequestID: middleware.GetReqID(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// writeCoreError maps a core error and writes it.
func (s *Server) writeCoreError(w http.ResponseWriter, r *http.Request, err error, context map[string]any) {
	status, errType := errorStatus(err)
	s.logger.Printf("request_error type=%s status=%d err=%q request_id=%s",
		errType, status, err.Error(), middleware.GetReqID(r.Context()))
	s.writeError(w, r, status, errType, err.Error(), context)
}

// recoveryMiddleware converts panics into structured 500 responses.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Printf("panic_recovered path=%s panic=%v request_id=%s",
					r.URL.Path, rec, middleware.GetReqID(r.Context()))
				s.writeError(w, r, http.StatusInternalServerError, ErrTypeInternal,
					"Internal server error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
