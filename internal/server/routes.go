package server

import (
	"github.com/go-chi/chi/v5"
)

// APIPrefix is where the dashboard routes are mounted.
const APIPrefix = "/api/dashboard"

// SetupRoutes registers the dashboard API. /health and /metrics are
// unauthenticated; everything under APIPrefix requires auth.
func SetupRoutes(router chi.Router, h *Handlers, auth Authenticator) {
	router.Get("/health", h.Health)
	router.Method("GET", "/metrics", h.metrics.Handler())

	router.Route(APIPrefix, func(r chi.Router) {
		r.Use(RequireAuth(auth))

		r.Get("/summary", h.Summary())
		r.Get("/calendar-month", h.Calendar())
		r.Get("/lot-status", h.LotStatus())
		r.Get("/alerts", h.Alerts())
		r.Get("/alerts/history", h.AlertHistory)
		r.Get("/realtime", h.Realtime())
		r.Get("/defect-by-intervals", h.Intervals())
		r.Get("/analytics", h.Analytics())
		r.Get("/tables", h.Tables())
	})
}
