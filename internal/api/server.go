package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/fernkoch/tennis-tracker/internal/api/handler"
	"github.com/fernkoch/tennis-tracker/internal/config"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(deps handler.Deps, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS — credentials on, the session rides a cookie.
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time"},
		AllowCredentials: true,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(deps)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/cache", h.HealthCheckCache)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Auth
		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/signin", h.Signin)
		r.Post("/auth/signout", h.Signout)
		r.Get("/auth/session", h.Session)
		r.Post("/auth/magic-link", h.RequestMagicLink)
		r.Get("/auth/verify", h.VerifyMagicLink)
		r.Post("/auth/password", h.SetPassword)

		// Matches
		r.Get("/matches", h.GetMatches)
		r.Get("/matches/head-to-head", h.GetHeadToHead)
		r.Get("/tournaments/{tournamentID}/draw", h.GetTournamentDraw)
		r.Get("/rankings/{tour}", h.GetRankings)

		// Preferences
		r.Get("/preferences", h.GetPreferences)
		r.Patch("/preferences", h.PatchPreferences)

		// Notifications
		r.Post("/notifications/send", h.SendNotification)
		r.Get("/notifications/history", h.GetNotificationHistory)
		r.Delete("/notifications/history", h.PruneNotificationHistory)
	})

	return r
}
