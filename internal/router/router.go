package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/breemind-dev/breemind/internal/middleware"
	"github.com/breemind-dev/breemind/internal/middleware/metrics"
	rl "github.com/breemind-dev/breemind/internal/middleware/ratelimiter"
	"github.com/breemind-dev/breemind/internal/setup"
)

// New configures the full route tree.
// IMPORTANT! ratelimiters attached with .Use limit requests for all endpoints
// in that group combined.
func New(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.Config.Public.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	// JSON API only, so the CSP can be strict
	r.Use(middleware.SecurityHeaders(false))

	h := deps.Handler

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Endpoints that send email get the tightest limits.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(rl.New(1.0/10, 1, 1*time.Hour), middleware.GetEmailFromBody))
				r.Use(middleware.RateLimit(rl.New(1.0/10, 1, 1*time.Hour), middleware.GetIP))
				r.Use(middleware.GlobalRateLimit(rl.Rps100()))
				r.Post("/register", h.Register)
				r.Post("/forgot-password", h.ForgotPassword)
			})

			// Token verification (stricter limits to prevent brute force)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(rl.New(5.0/600.0, 5, 1*time.Hour), middleware.GetIP))
				r.Use(middleware.GlobalRateLimit(rl.Rps100()))
				r.Post("/verify-email", h.VerifyEmail)
				r.Post("/reset-password", h.ResetPassword)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(rl.OnceInSecond(), middleware.GetIP))
				r.Use(middleware.GlobalRateLimit(rl.Rps100()))
				r.Post("/login", h.Login)
			})
		})

		r.Get("/health", h.Health)
		r.Get("/ready", h.Ready)
	})

	r.Handle("/metrics", promhttp.Handler())

	// Preflight requests should not 404.
	r.MethodFunc("OPTIONS", "/*", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}
