/**
 * @description
 * This file sets up the HTTP router: the player-facing API under /api/v1
 * behind JWT auth, the internal reconciliation surface behind the shared
 * service key, and the unauthenticated health and metrics endpoints.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: Router and middleware.
 * - github.com/go-chi/cors: CORS handling for browser clients.
 * - github.com/prometheus/client_golang/prometheus/promhttp: Metrics exposition.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes creates the service router and registers every endpoint.
func Routes(h *Handlers, jwksURL, internalKey string, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Internal-API-Key"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(jwksURL))

		r.Post("/sessions", h.CreateSessionHandler)
		r.Get("/sessions/{sessionID}", h.GetSessionHandler)
		r.Patch("/sessions/{sessionID}", h.UpdateSessionHandler)
		r.Delete("/sessions/{sessionID}", h.DeleteSessionHandler)
		r.Post("/sessions/{sessionID}/cancel", h.CancelSessionHandler)
		r.Get("/sessions/{sessionID}/cost", h.GetCostSummaryHandler)

		r.Get("/sessions/{sessionID}/roster", h.ListRosterHandler)
		r.Put("/sessions/{sessionID}/rsvp", h.RSVPHandler)
		r.Post("/sessions/{sessionID}/signups", h.AddSignupHandler)
		r.Get("/sessions/{sessionID}/signups/me", h.GetMySignupHandler)
		r.Post("/sessions/{sessionID}/lock", h.LockRosterHandler)
		r.Post("/sessions/{sessionID}/unlock", h.UnlockRosterHandler)
		r.Get("/sessions/{sessionID}/obligations", h.ListSessionObligationsHandler)

		r.Get("/groups/{groupID}/sessions", h.ListGroupSessionsHandler)

		r.Get("/obligations", h.ListMyObligationsHandler)
		r.Get("/obligations/{obligationID}", h.GetObligationHandler)
		r.Post("/obligations/{obligationID}/satisfy", h.SatisfyObligationHandler)
		r.Post("/obligations/{obligationID}/waive", h.WaiveObligationHandler)
		r.Post("/obligations/{obligationID}/reverse", h.ReverseObligationHandler)

		r.Put("/preferences/notifications", h.UpdatePreferenceHandler)
	})

	r.Route("/internal/reconciliation", func(r chi.Router) {
		r.Use(InternalAuthMiddleware(internalKey))
		r.Post("/notices", h.IngestNoticeHandler)
		r.Get("/records", h.ListReconciliationRecordsHandler)
	})

	return r
}
