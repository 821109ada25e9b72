/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/stats             Global program counters
  /api/organizations/*   Organization reads and dashboards
  /api/employees/*       Membership reads and dashboards
  /api/vesting/*         Schedule reads with live amounts

SECURITY NOTE:
  The surface is read-only by construction: no route mutates ledger state,
  and no signing key is reachable from a request. Still no authentication;
  deploy behind one if the data is sensitive.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", h.GetStats)

		// Organization routes
		r.Route("/organizations", func(r chi.Router) {
			r.Get("/", h.ListOrganizations)
			r.Get("/{orgID}", h.GetOrganization)
			r.Get("/{orgID}/owner", h.GetOrganizationOwner)
			r.Get("/{orgID}/employees", h.ListOrganizationEmployees)
			r.Get("/{orgID}/dashboard", h.GetEmployerDashboard)
			r.Get("/{orgID}/dashboard/stats", h.GetOrganizationStats)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Get("/{identity}", h.GetEmployeeMemberships)
			r.Get("/{identity}/dashboard", h.GetEmployeeDashboard)
		})

		// Vesting routes
		r.Route("/vesting", func(r chi.Router) {
			r.Get("/schedules", h.ListSchedules)
			r.Get("/schedules/{orgID}/{employee}/{mint}/{scheduleID}", h.GetSchedule)
		})
	})

	return r
}
