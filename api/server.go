/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from X-Forwarded-For / X-Real-IP
  3. Logging:    Structured request log (zap)
  4. Metrics:    Request counter (prometheus)
  5. Recoverer:  Panic recovery (500 instead of crash)
  6. CORS:       Cross-origin requests for frontends

ROUTE GROUPS:
  /api/plans/*          Stateless simulation
  /api/portfolios/*     Saved debts and plan history
  /api/scenarios/*      Demo portfolios
  /healthz              Liveness
  /metrics              Prometheus scrape endpoint

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cli/serve.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/warp/payoff-engine/logging"
	"github.com/warp/payoff-engine/metrics"
)

// NewRouter creates a new router with all routes configured. An empty
// corsOrigins allows any origin.
func NewRouter(h *Handler, log *zap.Logger, corsOrigins []string) *chi.Mux {
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(log))
	r.Use(metrics.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Cache"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Stateless plan routes
		r.Route("/plans", func(r chi.Router) {
			r.Post("/simulate", h.SimulatePlan)
			r.Post("/compare", h.ComparePlans)
			r.Post("/estimate", h.EstimatePayoff)
		})

		// Portfolio routes
		r.Route("/portfolios", func(r chi.Router) {
			r.Get("/", h.ListPortfolios)
			r.Route("/{pid}", func(r chi.Router) {
				r.Get("/debts", h.ListDebts)
				r.Post("/debts", h.CreateDebt)
				r.Get("/debts/{id}", h.GetDebt)
				r.Put("/debts/{id}", h.UpdateDebt)
				r.Delete("/debts/{id}", h.DeleteDebt)
				r.Post("/plan", h.PlanPortfolio)
				r.Get("/runs", h.ListPlanRuns)
			})
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
