package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cookie-auth/internal/config"
	"cookie-auth/internal/handler"
	"cookie-auth/internal/middleware"
	"cookie-auth/internal/model"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	Health *handler.HealthHandler
	Docs   *handler.DocsHandler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, handlers Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)

	r.Get("/health", handlers.Health.Health)
	r.Get("/health/ready", handlers.Health.Ready)
	r.Get("/openapi.yaml", handlers.Docs.OpenAPI)
	r.Get("/swagger", handlers.Docs.SwaggerUI)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))
		api.Use(middleware.NoStore)

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", handlers.Auth.Register)
			auth.Post("/login", handlers.Auth.Login)
			auth.Post("/logout", handlers.Auth.Logout)
			auth.With(authMiddleware.Authenticate, authMiddleware.RequireRoles(model.RoleAdmin)).Get("/admin", handlers.Auth.Admin)
		})
	})

	return r
}
