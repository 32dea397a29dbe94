// Package api exposes the simulation core over HTTP for the dashboard
// layer. The core never imports this package; the server is a thin
// transport shell.
package api

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rankop88888/promo-sim-go/internal/sim"
	"github.com/rankop88888/promo-sim-go/internal/store"
)

// Options tunes request handling limits.
type Options struct {
	// MaxTrials caps num_trials per request to keep the service responsive.
	MaxTrials int
	// RequestTimeout bounds one simulation request end to end.
	RequestTimeout time.Duration
	// Workers is the default simulation pool size for requests that omit
	// workers; 0 means GOMAXPROCS.
	Workers int
}

// DefaultOptions match interactive dashboard use.
func DefaultOptions() Options {
	return Options{
		MaxTrials:      100000,
		RequestTimeout: 60 * time.Second,
	}
}

// Server handles HTTP requests.
type Server struct {
	db        store.DB
	runner    *sim.Runner
	logger    *log.Logger
	opts      Options
	startTime time.Time
}

// NewServer creates a new API server. db may be nil to disable persistence.
func NewServer(db store.DB, opts Options) *Server {
	if opts.MaxTrials <= 0 {
		opts.MaxTrials = DefaultOptions().MaxTrials
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultOptions().RequestTimeout
	}

	return &Server{
		db:        db,
		runner:    sim.NewRunner(),
		logger:    log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile),
		opts:      opts,
		startTime: time.Now(),
	}
}

// Routes sets up the HTTP routes with proper middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLoggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))
	r.Use(s.corsMiddleware)

	r.Get("/health", s.handleHealthCheck)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/health/live", s.handleLiveness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/simulate", s.handleSimulate)
		r.Post("/expense", s.handleExpense)
		r.Get("/paytable/default", s.handleDefaultPaytable)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Delete("/runs/{id}", s.handleDeleteRun)
	})

	return r
}

// requestLoggingMiddleware logs one line per request with status and timing.
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Printf(
			"request method=%s path=%s status=%d duration=%v request_id=%s bytes_written=%d",
			r.Method, r.URL.Path, ww.Status(), time.Since(start), requestID, ww.BytesWritten(),
		)
	})
}

// corsMiddleware handles CORS headers for the dashboard frontend.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
