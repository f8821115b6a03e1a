/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address behind proxies
  3. Observe:    slog request log + Prometheus request metrics
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for frontends

ROUTE GROUPS:
  /api/rental-objects/*  Rental objects and their contracts
  /api/contracts         Contract creation
  /api/groups            Group hierarchy
  /api/currencies/*      Currencies and rate curves
  /api/taxes             Taxes
  /api/cost-centers/*    Cost centers and revenue
  /api/revenues          Revenue creation
  /api/rent-analysis/*   Rent analysis (JSON, XLSX)
  /metrics               Prometheus scrape endpoint

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go, analysis.go: Handler implementations
  - cmd/rentd/serve.go: Server startup
*/
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/warp/rent-engine/metrics"
)

// NewRouter creates a new router with all routes configured. m may be nil.
func NewRouter(h *Handler, m *metrics.Metrics) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observe(h.Logger, m))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Run-ID"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/rental-objects", func(r chi.Router) {
			r.Get("/", h.ListRentalObjects)
			r.Post("/", h.CreateRentalObject)
			r.Get("/{id}", h.GetRentalObject)
			r.Get("/{id}/contracts", h.ListContracts)
		})

		r.Post("/contracts", h.CreateContract)

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", h.ListGroups)
			r.Post("/", h.CreateGroup)
		})

		r.Route("/currencies", func(r chi.Router) {
			r.Get("/", h.ListCurrencies)
			r.Post("/", h.CreateCurrency)
			r.Post("/{code}/rates", h.CreateRate)
		})

		r.Route("/taxes", func(r chi.Router) {
			r.Get("/", h.ListTaxes)
			r.Post("/", h.CreateTax)
		})

		r.Route("/cost-centers", func(r chi.Router) {
			r.Post("/", h.CreateCostCenter)
			r.Get("/{id}/revenues", h.ListRevenues)
		})

		r.Post("/revenues", h.CreateRevenue)

		r.Route("/rent-analysis", func(r chi.Router) {
			r.Get("/", h.RentAnalysis)
			r.Get("/export", h.ExportRentAnalysis)
		})
	})

	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	return r
}

// observe logs every request and records it in m. Routes are labelled by
// pattern ("/api/rental-objects/{id}") so metric cardinality stays bounded.
func observe(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			if m != nil {
				m.ObserveRequest(route, r.Method, status, elapsed)
			}
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", elapsed,
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
