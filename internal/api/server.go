package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/opensource-finance/credix/internal/domain"
	"github.com/opensource-finance/credix/internal/intervention"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, svc *intervention.Service, repo domain.CustomerRepository, cache domain.Cache, bus domain.EventBus, version string) *Server {
	handler := NewHandler(svc, repo, cache, bus, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// Customer risk and plans
	router.Route("/customers", func(r chi.Router) {
		r.Post("/import", handler.ImportCustomers)
		r.Get("/{id}/risk", handler.GetRisk)
		r.Get("/{id}/plans", handler.GetPlans)
		r.Get("/{id}/alerts", handler.ListAlerts)
		r.Post("/{id}/alerts", handler.DispatchAlert)
	})

	// Customer-facing intervention portal
	router.Get("/intervention", handler.GetIntervention)
	router.Get("/customer/intervention", handler.GetIntervention)
	router.Route("/intervention/{customerId}", func(r chi.Router) {
		r.Get("/history", handler.GetHistory)
		r.Post("/plans/{planId}/accept", handler.AcceptPlan)
		r.Post("/plans/{planId}/decline", handler.DeclinePlan)
	})

	// Operations
	router.Post("/alerts/scan", handler.ScanAlerts)
	router.Get("/operations/engagement", handler.GetEngagement)
	router.Get("/operations/worklist", handler.GetWorklist)
	router.Get("/portfolio/kpis", handler.GetPortfolio)
	router.Get("/portfolio/cutoff", handler.GetCutoff)

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
