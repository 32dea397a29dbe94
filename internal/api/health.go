package api

import (
	"net/http"
	"time"
)

// handleHealthCheck reports overall service health.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK

	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	s.writeJSON(w, code, HealthResponse{
		Status:        status,
		EngineVersion: EngineVersion,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}

// handleLiveness reports whether the process is running at all.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "alive",
		EngineVersion: EngineVersion,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReadiness reports whether the service can accept work.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:        "not_ready",
				EngineVersion: EngineVersion,
				Timestamp:     time.Now().UTC().Format(time.RFC3339),
			})
			return
		}
	}

	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ready",
		EngineVersion: EngineVersion,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}
