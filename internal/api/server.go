// Package api provides the local HTTP API server for VitalGraph. It is the
// only surface consumers touch: ingest and add-edge for mutations,
// everything else read-only.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vitalgraph/vitalgraph/internal/alerts"
	"github.com/vitalgraph/vitalgraph/internal/causal"
	"github.com/vitalgraph/vitalgraph/internal/debt"
	"github.com/vitalgraph/vitalgraph/internal/graph"
	"github.com/vitalgraph/vitalgraph/internal/logging"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server

	store        *graph.Store
	engine       debt.Engine
	gate         *causal.Gate
	alertService *alerts.Service
	wsHub        *WSHub
}

// Config for the server
type Config struct {
	Port         int
	Store        *graph.Store
	Engine       debt.Engine
	Gate         *causal.Gate
	AlertService *alerts.Service
}

// New creates a new API server
func New(cfg Config) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		store:        cfg.Store,
		engine:       cfg.Engine,
		gate:         cfg.Gate,
		alertService: cfg.AlertService,
		wsHub:        NewWSHub(),
	}

	if s.alertService != nil {
		s.alertService.Subscribe(s.wsHub)
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	s.routes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) routes() {
	s.router.Get("/api/v1/health", s.handleHealth)

	s.router.Route("/api/v1/ingest", func(r chi.Router) {
		r.Post("/samples", s.handleIngestSample)
		r.Post("/glucose", s.handleIngestGlucose)
		r.Post("/behaviors", s.handleIngestBehavior)
		r.Post("/meals", s.handleIngestMeal)
		r.Post("/environment", s.handleIngestEnvironment)
		r.Post("/edges", s.handleAddEdge)
		r.Post("/patterns", s.handleUpsertPattern)
	})

	s.router.Route("/api/v1/query", func(r chi.Router) {
		r.Get("/samples", s.handleQuerySamples)
		r.Get("/glucose", s.handleQueryGlucose)
		r.Get("/meals", s.handleQueryMeals)
		r.Get("/behaviors", s.handleQueryBehaviors)
		r.Get("/environment", s.handleQueryEnvironment)
		r.Get("/edges", s.handleQueryEdges)
		r.Get("/paths", s.handleTracePaths)
	})

	s.router.Route("/api/v1/debt", func(r chi.Router) {
		r.Get("/scores", s.handleDebtScores)
		r.Post("/classify", s.handleClassifyDebt)
	})

	s.router.Post("/api/v1/escalation/check", s.handleEscalationCheck)
	s.router.Get("/api/v1/alerts", s.handleRecentAlerts)
	s.router.Get("/ws/alerts", s.wsHub.HandleWS)
}

// Start begins serving. Blocks until shutdown.
func (s *Server) Start() error {
	logging.WithField("addr", s.httpServer.Addr).Info("API server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsHub.Close()
	return s.httpServer.Shutdown(ctx)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// timeRange parses from/to query params (RFC3339). A missing range defaults
// to the last 24 hours.
func timeRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from, to := now.Add(-24*time.Hour), now

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return from, to, fmt.Errorf("invalid from: %w", err)
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return from, to, fmt.Errorf("invalid to: %w", err)
		}
		to = t
	}

	return from, to, nil
}
