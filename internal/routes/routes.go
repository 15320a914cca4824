package routes

import (
	"github.com/BradenHooton/loginguard/internal/auth"
	"github.com/BradenHooton/loginguard/internal/handlers"
	"github.com/BradenHooton/loginguard/internal/middleware"
	"github.com/BradenHooton/loginguard/internal/models"
	pkghttp "github.com/BradenHooton/loginguard/pkg/http"
	"github.com/go-chi/chi/v5"
)

// Handlers groups the HTTP handlers mounted by RegisterRoutes
type Handlers struct {
	Login    *handlers.LoginHandler
	Attempts *handlers.AttemptHandler
	Policy   *handlers.PolicyHandler
	Health   *handlers.HealthHandler
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	tokenManager *auth.TokenManager,
	rateLimitConfig middleware.RateLimitConfig,
	ipConfig *pkghttp.IPConfig,
) {
	router.Method("GET", "/health", h.Health)

	router.Route("/v1", func(r chi.Router) {
		// Called by the authentication front end on every login
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByLoginIP(rateLimitConfig, ipConfig))
			r.Post("/login/check", h.Login.Check)
			r.Post("/login/failure", h.Login.Failure)
			r.Post("/login/success", h.Login.Success)
		})

		// Operator routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(rateLimitConfig, ipConfig))
			r.Use(auth.AuthMiddleware(tokenManager))
			r.Use(auth.RequireRole(models.RoleAdmin))
			r.Post("/attempts", h.Attempts.Record)
			r.Get("/attempts/count", h.Attempts.Count)
			r.Get("/attempts/last", h.Attempts.Last)
			r.Delete("/attempts", h.Attempts.Purge)
			r.Get("/attempts/status", h.Attempts.Status)
			r.Get("/policy", h.Policy.Get)
			r.Put("/policy", h.Policy.Update)
		})
	})
}
